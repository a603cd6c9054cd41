package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/model"
)

// ContactRepositoryInterface defines methods used by services
type ContactRepositoryInterface interface {
	Create(ctx context.Context, c *model.Contact) error
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	GetByEmail(ctx context.Context, email string) (*model.Contact, error)
	Update(ctx context.Context, c *model.Contact) error
	DeleteByEmail(ctx context.Context, email string) error
	ListAll(ctx context.Context) ([]*model.Contact, error)
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, email, first_name, last_name, company, custom_fields, created_at, updated_at`

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	fields, err := encodeCustomFields(c.CustomFields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO contacts (id, email, first_name, last_name, company, custom_fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.DB.ExecContext(ctx, query, c.ID, c.Email, c.FirstName, c.LastName, c.Company, fields, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewAlreadyExists("contact", c.Email)
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetByID fetches a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, lookupErr(err, "contact", id)
	}
	return c, nil
}

// GetByEmail fetches a contact by its unique email address
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE email = $1`
	c, err := scanContact(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, lookupErr(err, "contact", email)
	}
	return c, nil
}

func (r *ContactRepository) Update(ctx context.Context, c *model.Contact) error {
	fields, err := encodeCustomFields(c.CustomFields)
	if err != nil {
		return err
	}
	now := time.Now()
	query := `
		UPDATE contacts
		SET first_name=$1, last_name=$2, company=$3, custom_fields=$4, updated_at=$5
		WHERE email=$6
	`
	res, err := r.DB.ExecContext(ctx, query, c.FirstName, c.LastName, c.Company, fields, now, c.Email)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("contact", c.Email)
	}
	c.UpdatedAt = &now
	return nil
}

func (r *ContactRepository) DeleteByEmail(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM contacts WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("contact", email)
	}
	return nil
}

// ListAll fetches all contacts ordered by creation
func (r *ContactRepository) ListAll(ctx context.Context) ([]*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at, email`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	var fields []byte
	if err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &fields, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CustomFields = map[string]string{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &c.CustomFields); err != nil {
			return nil, fmt.Errorf("failed to decode custom fields of %s: %w", c.Email, err)
		}
	}
	return &c, nil
}

func encodeCustomFields(fields map[string]string) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode custom fields: %w", err)
	}
	return string(b), nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
