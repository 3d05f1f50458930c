package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// rewritePlaceholders
// ---------------------------------------------------------------------------

func TestRewritePlaceholders_Empty(t *testing.T) {
	if got := rewritePlaceholders(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestRewritePlaceholders_NoPlaceholders(t *testing.T) {
	in := "SELECT 1"
	if got := rewritePlaceholders(in); got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestRewritePlaceholders_Single(t *testing.T) {
	got := rewritePlaceholders("SELECT * FROM t WHERE id = ?")
	want := "SELECT * FROM t WHERE id = $1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_Multiple(t *testing.T) {
	got := rewritePlaceholders("INSERT INTO t (a, b, c) VALUES (?, ?, ?)")
	want := "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_QuestionInStringLiteral(t *testing.T) {
	// ? inside a quoted string must not be rewritten.
	got := rewritePlaceholders("SELECT '?' AS q FROM t WHERE id = ?")
	want := "SELECT '?' AS q FROM t WHERE id = $1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_EscapedQuote(t *testing.T) {
	// '' inside a string is an escaped single-quote; the ? after closing ' is a placeholder.
	got := rewritePlaceholders("SELECT 'it''s' WHERE x = ?")
	want := "SELECT 'it''s' WHERE x = $1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_MultipleStringsAndPlaceholders(t *testing.T) {
	got := rewritePlaceholders("SELECT 'a?b' WHERE c = ? AND d = ?")
	want := "SELECT 'a?b' WHERE c = $1 AND d = $2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Dialect helpers -- CompatDB with nil DB is safe; these methods only inspect
// d.Dialect.
// ---------------------------------------------------------------------------

func sqliteDB() *CompatDB { return &CompatDB{Dialect: DialectSQLite} }
func pgDB() *CompatDB     { return &CompatDB{Dialect: DialectPostgres} }

func TestIsPostgres(t *testing.T) {
	if sqliteDB().IsPostgres() {
		t.Error("SQLite CompatDB.IsPostgres() should be false")
	}
	if !pgDB().IsPostgres() {
		t.Error("Postgres CompatDB.IsPostgres() should be true")
	}
}

func TestBeginTxSQL(t *testing.T) {
	if got := sqliteDB().BeginTxSQL(); got != "BEGIN IMMEDIATE" {
		t.Errorf("SQLite = %q, want BEGIN IMMEDIATE", got)
	}
	if got := pgDB().BeginTxSQL(); got != "BEGIN" {
		t.Errorf("Postgres = %q, want BEGIN", got)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tc := range tests {
		if got := Placeholders(tc.n); got != tc.want {
			t.Errorf("Placeholders(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil) {
		t.Error("nil error is not a unique violation")
	}
	if !IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")) {
		t.Error("SQLite UNIQUE failure not detected")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("Postgres 23505 not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("Postgres FK violation reported as unique violation")
	}
}

func TestFormatParseTime_RoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 9, 17, 4, 5, 123456000, time.FixedZone("X", 3600))
	s := FormatTime(in)
	if s != "2024-03-09T16:04:05.123456Z" {
		t.Errorf("FormatTime = %q", s)
	}
	if got := ParseTime(s); !got.Equal(in) {
		t.Errorf("ParseTime(%q) = %v, want %v", s, got, in)
	}
	if got := ParseTime("2024-03-09T16:04:05Z"); got.IsZero() {
		t.Error("ParseTime should accept RFC 3339")
	}
	if got := ParseTime("garbage"); !got.IsZero() {
		t.Errorf("ParseTime(garbage) = %v, want zero", got)
	}
}

func TestFormatTime_SortsLexically(t *testing.T) {
	a := FormatTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	b := FormatTime(time.Date(2024, 1, 2, 3, 4, 5, 1000, time.UTC))
	if !(a < b) {
		t.Errorf("%q should sort before %q", a, b)
	}
}

// ---------------------------------------------------------------------------
// Migrations against in-memory SQLite
// ---------------------------------------------------------------------------

func TestRunMigrations_SQLiteIdempotent(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	for i := 0; i < 2; i++ {
		if err := RunMigrations(ctx, d); err != nil {
			t.Fatalf("RunMigrations run %d: %v", i+1, err)
		}
	}

	var n int
	if err := d.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", n)
	}

	for _, table := range []string{"users", "videos", "video_likes", "video_saves", "playlists", "playlist_videos", "reviews"} {
		if _, err := d.ExecContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1"); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()
	if err := RunMigrations(ctx, d); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	boom := errors.New("boom")
	err = WithTx(ctx, d, func(conn *CompatConn) error {
		now := FormatTime(time.Now())
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO users (id, name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			"u1", "Ana", "ana@test.com", "hash", now, now); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	var n int
	if err := d.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 0 {
		t.Errorf("users = %d after rollback, want 0", n)
	}
}
