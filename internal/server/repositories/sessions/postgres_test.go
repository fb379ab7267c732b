package sessions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/partsinventory/internal/common"
)

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock, db
}

func TestSet_Upserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+session_store\s*\(sid,\s*sess,\s*expire\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(sid\)\s*DO\s+UPDATE\s+SET\s+sess\s*=\s*EXCLUDED\.sess,\s*expire\s*=\s*EXCLUDED\.expire\s*$`
	mock.ExpectExec(q).
		WithArgs("sid1", `{"user_id":"u1"}`, fixedNow.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Set(context.Background(), "sid1", []byte(`{"user_id":"u1"}`), time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSet_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+session_store`).WillReturnError(errors.New("db down"))

	err := repo.Set(context.Background(), "sid1", []byte(`{}`), time.Hour)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet(t *testing.T) {
	q := `(?s)^SELECT\s+sess\s+FROM\s+session_store\s+WHERE\s+sid\s*=\s*\$1\s+AND\s+expire\s*>\s*\$2\s*$`

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(q).WithArgs("sid1", fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"sess"}).AddRow([]byte(`{"user_id":"u1"}`)))

		got, err := repo.Get(context.Background(), "sid1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"user_id":"u1"}` {
			t.Fatalf("unexpected payload: %s", got)
		}
	})

	t.Run("absent or expired", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(q).WithArgs("sid1", fixedNow).WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "sid1")
		if !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want common.ErrorNotFound, got %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(q).WithArgs("sid1", fixedNow).WillReturnError(errors.New("db err"))

		_, err := repo.Get(context.Background(), "sid1")
		if err == nil || errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})
}

func TestDel(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM session_store WHERE sid = \$1$`).
		WithArgs("sid1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Del(context.Background(), "sid1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM session_store WHERE expire <= \$1$`).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("unexpected result: %d, %v", n, err)
	}
}

func TestDeleteByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM session_store WHERE sess ->> 'user_id' = \$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByUser(context.Background(), "u1")
	if err != nil || n != 2 {
		t.Fatalf("unexpected result: %d, %v", n, err)
	}
}

func TestDeleteByUser_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM session_store`).WillReturnError(errors.New("db down"))

	if _, err := repo.DeleteByUser(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}
