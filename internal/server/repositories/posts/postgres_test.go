package posts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var postCols = []string{"id", "user_id", "description", "image", "likes", "comments", "created_at", "updated_at"}

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows(postCols)
}

func TestCreate_StartsWithEmptySets(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+posts\s*\(id,\s*user_id,\s*description,\s*image,\s*created_at,\s*updated_at\)`).
		WithArgs(sqlmock.AnyArg(), "u-1", "hello", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := repo.Create(context.Background(), &models.Post{UserID: "u-1", Description: "hello", Likes: []string{"stale"}})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if p.ID == "" || len(p.Likes) != 0 || p.Comments == nil {
		t.Fatalf("unexpected post: %+v", p)
	}
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*user_id,.*FROM\s+posts\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("p-1").
		WillReturnRows(postRows().AddRow("p-1", "u-1", "hello", "img.png", "{u-2}", "{c-1,c-2}", now, now))

	p, err := repo.GetByID(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if p.Image != "img.png" || len(p.Likes) != 1 || len(p.Comments) != 2 {
		t.Fatalf("unexpected post: %+v", p)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+posts`).WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "p-x"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestListByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+posts\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs("u-1").
		WillReturnRows(postRows().
			AddRow("p-2", "u-1", "second", "", "{}", "{}", now, now).
			AddRow("p-1", "u-1", "first", "", "{}", "{}", now.Add(-time.Hour), now))

	got, err := repo.ListByUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p-2" {
		t.Fatalf("unexpected posts: %+v", got)
	}
}

func TestSearch_EscapesPattern(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+posts\s+WHERE\s+description\s+ILIKE\s+\$1\s+ESCAPE`).
		WithArgs(`%100\%\_off%`).
		WillReturnRows(postRows())

	got, err := repo.Search(context.Background(), "100%_off")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestSearch_EmptyMatchesAll(t *testing.T) {
	if got := likePattern(""); got != "%%" {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestSearch_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+posts`).WillReturnError(errors.New("db down"))

	_, err := repo.Search(context.Background(), "x")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestToggleLike_SingleStatement(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)^UPDATE\s+posts\s+SET\s+likes\s*=\s*CASE\s+WHEN\s+\$2::text\s*=\s*ANY\(likes\)\s+THEN\s+array_remove\(likes,\s*\$2::text\)\s+ELSE\s+array_append\(likes,\s*\$2::text\)\s+END.*WHERE\s+id\s*=\s*\$1\s+RETURNING`
	mock.ExpectQuery(q).WithArgs("p-1", "u-2").
		WillReturnRows(postRows().AddRow("p-1", "u-1", "hello", "", "{u-2}", "{}", now, now))

	p, err := repo.ToggleLike(context.Background(), "p-1", "u-2")
	if err != nil {
		t.Fatalf("ToggleLike error: %v", err)
	}
	if !p.LikedBy("u-2") {
		t.Fatalf("expected like to be recorded: %+v", p.Likes)
	}
}

func TestToggleLike_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+posts`).WillReturnError(sql.ErrNoRows)

	if _, err := repo.ToggleLike(context.Background(), "p-x", "u-2"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestAppendComment(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+posts\s+SET\s+comments\s*=\s*array_append\(comments,\s*\$2::text\)`
	mock.ExpectExec(q).WithArgs("p-1", "c-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("p-x", "c-1").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.AppendComment(context.Background(), "p-1", "c-1"); err != nil {
		t.Fatalf("AppendComment error: %v", err)
	}
	if err := repo.AppendComment(context.Background(), "p-x", "c-1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+posts\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+posts`).WithArgs("p-1").WillReturnError(errors.New("db down"))

	if err := repo.Delete(context.Background(), "p-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	err := repo.Delete(context.Background(), "p-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
