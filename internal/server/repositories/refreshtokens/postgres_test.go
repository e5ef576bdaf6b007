package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	qInsert    = `(?s)^INSERT\s+INTO\s+refresh_tokens\s*\(user_id,\s*jti,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`
	qFind      = `(?s)^SELECT\s+id,\s*user_id,\s*jti,\s*expires_at,\s*revoked,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+jti\s*=\s*\$1\s*$`
	qRevoke    = `(?s)^UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+jti\s*=\s*\$1\s+AND\s+revoked\s*=\s*FALSE\s*$`
	qRevokeAll = `(?s)^UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+revoked\s*=\s*FALSE\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	created := time.Now()

	mock.ExpectQuery(qInsert).
		WithArgs(int64(1), "jti-1", expires).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), created))

	got, err := repo.Create(context.Background(), 1, "jti-1", expires)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 10 || got.UserID != 1 || got.JTI != "jti-1" || got.Revoked || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected record: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateJTI(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).
		WithArgs(int64(1), "dup", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_refresh_jti"})

	_, err := repo.Create(context.Background(), 1, "dup", time.Now())
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).
		WithArgs(int64(1), "jti-1", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), 1, "jti-1", time.Now())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByJTI_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(10 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "user_id", "jti", "expires_at", "revoked", "created_at"}).
		AddRow(int64(3), int64(1), "jti-1", expires, true, time.Now())

	mock.ExpectQuery(qFind).WithArgs("jti-1").WillReturnRows(rows)

	got, err := repo.FindByJTI(context.Background(), "jti-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 3 || got.UserID != 1 || !got.Revoked || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFindByJTI_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qFind).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByJTI(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByJTI_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qFind).WithArgs("jti-1").WillReturnError(errors.New("db err"))

	_, err := repo.FindByJTI(context.Background(), "jti-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"flips live record", 1, true},
		{"already revoked or absent", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectExec(qRevoke).WithArgs("jti-1").WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.Revoke(context.Background(), "jti-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Revoke = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRevoke_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qRevoke).WithArgs("jti-1").WillReturnError(errors.New("db err"))

	ok, err := repo.Revoke(context.Background(), "jti-1")
	if ok || err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v %v", ok, err)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qRevokeAll).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.RevokeAllForUser(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("revoked %d, want 3", n)
	}
}

func TestRevokeAllForUser_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qRevokeAll).WithArgs(int64(5)).WillReturnError(errors.New("db err"))

	if _, err := repo.RevokeAllForUser(context.Background(), 5); err == nil {
		t.Fatal("expected error")
	}
}
