package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return New(db.NewCompatDB(raw, db.DialectPostgres)), mock
}

func TestMock_CreateUserMapsUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	u := models.User{Name: "A", Email: "a@test.com", PasswordHash: "h", IsActive: true}
	if err := s.Users().Create(context.Background(), &u); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMock_ListPublicUsesPostgresPlaceholders(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews WHERE is_public AND video_id = $1")).
		WithArgs("vid").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("vid", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "video_id", "video_title", "video_thumbnail", "rating", "title",
			"content", "tags", "is_public", "created_at", "updated_at",
		}).AddRow("r1", "u1", "vid", "Title", "", 5, "Nice", "Good content", `["rock"]`, true,
			"2024-01-02T03:04:05.000000Z", "2024-01-02T03:04:05.000000Z"))

	got, total, err := s.Reviews().ListPublic(context.Background(), store.PublicFilter{VideoID: "vid", Limit: 10})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].Tags[0] != "rock" || got[0].CreatedAt.Year() != 2024 {
		t.Fatalf("unexpected result: total=%d reviews=%+v", total, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMock_AddLikeRollsBackOnCounterFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("BEGIN").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM videos WHERE id = $1")).
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO video_likes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET likes_count")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectExec("ROLLBACK").WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := s.Videos().AddLike(context.Background(), "v1", "u1"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
