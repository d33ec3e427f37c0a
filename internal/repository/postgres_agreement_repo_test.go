package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/lib/pq"
)

var agreementRowColumns = []string{"id", "user_email", "user_name", "apartment_id", "status", "created_at", "accepted_at"}

func TestPostgresAgreementRepo_Create_UniqueViolationIsDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAgreementRepo(db)

	mock.ExpectExec(`INSERT INTO agreements`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &model.Agreement{
		ID: "ag1", UserEmail: "a@example.com", ApartmentID: "apt1",
		Status: model.AgreementStatusPending, CreatedAt: time.Now(),
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestPostgresAgreementRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAgreementRepo(db)

	mock.ExpectExec(`INSERT INTO agreements`).
		WithArgs("ag1", "a@example.com", "Alice", "apt1", "pending", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Agreement{
		ID: "ag1", UserEmail: "a@example.com", UserName: "Alice", ApartmentID: "apt1",
		Status: model.AgreementStatusPending, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestPostgresAgreementRepo_ListByUserEmail_ScansAcceptedAt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAgreementRepo(db)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	accepted := created.Add(time.Hour)

	mock.ExpectQuery(`FROM agreements WHERE user_email = \$1`).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(agreementRowColumns).
			AddRow("ag1", "a@example.com", "Alice", "apt1", "pending", created, nil).
			AddRow("ag2", "a@example.com", "Alice", "apt2", "accepted", created, accepted))

	got, err := repo.ListByUserEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("ListByUserEmail: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].AcceptedAt != nil {
		t.Errorf("pending agreement AcceptedAt = %v, want nil", got[0].AcceptedAt)
	}
	if got[1].Status != model.AgreementStatusAccepted || got[1].AcceptedAt == nil || !got[1].AcceptedAt.Equal(accepted) {
		t.Errorf("accepted agreement = %+v", got[1])
	}
}

func TestPostgresAgreementRepo_List_EmptyIsNonNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAgreementRepo(db)

	mock.ExpectQuery(`FROM agreements ORDER BY`).
		WillReturnRows(sqlmock.NewRows(agreementRowColumns))

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got = %v, want empty slice", got)
	}
}

func TestPostgresAgreementRepo_UpdateStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAgreementRepo(db)
	now := time.Now()

	mock.ExpectExec(`UPDATE agreements SET status = \$2`).
		WithArgs("missing", "accepted", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", model.AgreementStatusAccepted, &now)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresAgreementRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAgreementRepo(db)

	mock.ExpectExec(`DELETE FROM agreements WHERE id = \$1`).
		WithArgs("ag1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "ag1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
