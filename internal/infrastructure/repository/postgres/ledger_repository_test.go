package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*LedgerRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &LedgerRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestSeenReturnsFalseForUnknownFingerprint(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT 1 FROM ingest_ledger").
		WithArgs("deadbeef").
		WillReturnError(sql.ErrNoRows)

	seen, err := repo.Seen(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Fatal("expected not seen")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSeenReturnsTrueForKnownFingerprint(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT 1 FROM ingest_ledger").
		WithArgs("cafebabe").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	seen, err := repo.Seen(context.Background(), "cafebabe")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if !seen {
		t.Fatal("expected seen")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordInsertsEntry(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	receivedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO ingest_ledger").
		WithArgs("cafebabe", "ventas.csv", "cafebabe_ventas.csv", receivedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Record(context.Background(), domain.LedgerEntry{
		Fingerprint: "cafebabe",
		Filename:    "ventas.csv",
		StoredPath:  "cafebabe_ventas.csv",
		ReceivedAt:  receivedAt,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// A conflicting insert affects zero rows and must not surface as an error.
func TestRecordDuplicateFingerprintIsNoOp(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO ingest_ledger").
		WithArgs("cafebabe", "ventas.csv", "cafebabe_ventas.csv", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Record(context.Background(), domain.LedgerEntry{
		Fingerprint: "cafebabe",
		Filename:    "ventas.csv",
		StoredPath:  "cafebabe_ventas.csv",
	})
	if err != nil {
		t.Fatalf("Record() duplicate should be no-op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
