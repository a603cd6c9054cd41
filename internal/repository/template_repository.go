package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *model.EmailTemplate) error
	GetByID(ctx context.Context, id string) (*model.EmailTemplate, error)
	GetByName(ctx context.Context, name string) (*model.EmailTemplate, error)
	ListNames(ctx context.Context) ([]string, error)
	DeleteByName(ctx context.Context, name string) error
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(ctx context.Context, t *model.EmailTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO templates (id, name, subject, body, html_body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, t.ID, t.Name, t.Subject, t.Body, t.HTMLBody, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewAlreadyExists("template", t.Name)
		}
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*model.EmailTemplate, error) {
	query := `SELECT id, name, subject, body, html_body, created_at FROM templates WHERE id = $1`
	var t model.EmailTemplate
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.HTMLBody, &t.CreatedAt)
	if err != nil {
		return nil, lookupErr(err, "template", id)
	}
	return &t, nil
}

func (r *TemplateRepository) GetByName(ctx context.Context, name string) (*model.EmailTemplate, error) {
	query := `SELECT id, name, subject, body, html_body, created_at FROM templates WHERE name = $1`
	var t model.EmailTemplate
	err := r.DB.QueryRowContext(ctx, query, name).Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.HTMLBody, &t.CreatedAt)
	if err != nil {
		return nil, lookupErr(err, "template", name)
	}
	return &t, nil
}

func (r *TemplateRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *TemplateRepository) DeleteByName(ctx context.Context, name string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM templates WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("template", name)
	}
	return nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
