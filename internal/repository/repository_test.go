package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestContactRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := &ContactRepository{DB: db}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts")).
		WithArgs(sqlmock.AnyArg(), "a@x.com", "Ana", "", "", `{"city":"Lisbon"}`, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &model.Contact{
		Email:        "a@x.com",
		FirstName:    "Ana",
		CustomFields: map[string]string{"city": "Lisbon"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := &ContactRepository{DB: db}
	created := time.Now().Add(-time.Hour)

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "company", "custom_fields", "created_at", "updated_at"}).
			AddRow("c-1", "a@x.com", "Ana", "Silva", "Acme", []byte(`{"department":"Sales"}`), created, nil)
		mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE id = $1")).WithArgs("c-1").WillReturnRows(rows)

		c, err := repo.GetByID(context.Background(), "c-1")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", c.Email)
		assert.Equal(t, "Sales", c.CustomFields["department"])
		assert.Nil(t, c.UpdatedAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE id = $1")).WithArgs("gone").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "gone")
		assert.ErrorIs(t, err, appErrors.ErrNotFound)
	})

	t.Run("MalformedID", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE id = $1")).WithArgs("xyz").WillReturnError(&pq.Error{Code: "22P02"})

		_, err := repo.GetByID(context.Background(), "xyz")
		assert.ErrorIs(t, err, appErrors.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactListRepository_GetByIDLoadsMembers(t *testing.T) {
	db, mock := newMock(t)
	repo := &ContactListRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("FROM contact_lists WHERE id = $1")).WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow("l-1", "Newsletter", "Main list", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM contact_list_members WHERE list_id = $1")).WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows([]string{"contact_id"}).AddRow("c-1").AddRow("c-2"))

	l, err := repo.GetByID(context.Background(), "l-1")
	require.NoError(t, err)
	assert.Equal(t, "Newsletter", l.Name)
	assert.Equal(t, []string{"c-1", "c-2"}, l.ContactIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactListRepository_AddMembersSkipsExisting(t *testing.T) {
	db, mock := newMock(t)
	repo := &ContactListRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contact_list_members")).WithArgs("l-1", "c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contact_list_members")).WithArgs("l-1", "c-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	added, err := repo.AddMembers(context.Background(), "l-1", []string{"c-1", "c-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_GetByName(t *testing.T) {
	db, mock := newMock(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("FROM campaigns WHERE name = $1")).WithArgs("welcome").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "template_id", "status", "total_recipients", "sent_count", "failed_count", "created_at", "sent_at"}).
			AddRow("cmp-1", "welcome", "t-1", "draft", 0, 0, 0, time.Now(), nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM campaign_lists WHERE campaign_id = $1 ORDER BY position")).WithArgs("cmp-1").
		WillReturnRows(sqlmock.NewRows([]string{"list_id"}).AddRow("l-1").AddRow("l-2"))

	c, err := repo.GetByName(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, "t-1", c.TemplateID)
	assert.Equal(t, []string{"l-1", "l-2"}, c.ContactListIDs)
	assert.Nil(t, c.SentAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_UpdateDelivery(t *testing.T) {
	db, mock := newMock(t)
	repo := &CampaignRepository{DB: db}
	sentAt := time.Now()
	d := model.CampaignDelivery{Status: model.CampaignStatusSent, SentAt: sentAt, TotalRecipients: 2, SentCount: 1, FailedCount: 1}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns")).
		WithArgs("sent", sentAt, 2, 1, 1, "welcome").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateDelivery(context.Background(), "welcome", d))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns")).
		WithArgs("sent", sentAt, 2, 1, 1, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateDelivery(context.Background(), "ghost", d)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_ListCampaignsFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND status=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("sent", 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "template_id", "status", "total_recipients", "sent_count", "failed_count", "created_at", "sent_at"}).
			AddRow("cmp-3", "c3", "t-1", "sent", 4, 4, 0, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM campaigns WHERE 1=1 AND status=$1")).
		WithArgs("sent").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	campaigns, total, err := repo.ListCampaigns(context.Background(), 20, 10, "sent")
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
	assert.Equal(t, 21, total)
	assert.NotNil(t, campaigns[0].SentAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailLogRepository_AppendAndList(t *testing.T) {
	db, mock := newMock(t)
	repo := &EmailLogRepository{DB: db}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_logs")).
		WithArgs(sqlmock.AnyArg(), sql.NullString{}, "a@x.com", "Hi", "failed", "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &model.EmailLogEntry{ToEmail: "a@x.com", Subject: "Hi", Status: model.EmailStatusFailed, ErrorMessage: "boom"}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta("FROM email_logs WHERE status = $1 ORDER BY timestamp DESC LIMIT $2")).
		WithArgs("failed", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "to_email", "subject", "status", "error_message", "timestamp"}).
			AddRow("log-1", "cmp-1", "a@x.com", "Hi", "failed", "boom", time.Now()))

	logs, err := repo.List(context.Background(), 5, "failed")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "cmp-1", logs[0].CampaignID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailLogRepository_DeleteOlderThan(t *testing.T) {
	db, mock := newMock(t)
	repo := &EmailLogRepository{DB: db}
	cutoff := time.Now().AddDate(0, 0, -30)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM email_logs WHERE timestamp < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
