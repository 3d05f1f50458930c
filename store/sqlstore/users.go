package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/google/uuid"
)

type userRepo struct {
	db *db.CompatDB
}

const userColumns = `id, name, email, password_hash, avatar, about, is_active, last_login, created_at, updated_at`

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var lastLogin sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.About,
		&u.IsActive, &lastLogin, &createdAt, &updatedAt); err != nil {
		return models.User{}, notFound(err)
	}
	if lastLogin.Valid && lastLogin.String != "" {
		t := db.ParseTime(lastLogin.String)
		u.LastLogin = &t
	}
	u.CreatedAt = db.ParseTime(createdAt)
	u.UpdatedAt = db.ParseTime(updatedAt)
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, avatar, about, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar, u.About, u.IsActive,
		db.FormatTime(now), db.FormatTime(now))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) ByID(ctx context.Context, id string) (models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *userRepo) ByEmail(ctx context.Context, email string, activeOnly bool) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	if activeOnly {
		query += ` AND is_active`
	}
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepo) ListActive(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_active ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *userRepo) update(ctx context.Context, id, query string, args ...interface{}) (models.User, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.User{}, store.ErrNotFound
	}
	return r.ByID(ctx, id)
}

func (r *userRepo) UpdateProfile(ctx context.Context, id, name, about string) (models.User, error) {
	return r.update(ctx, id,
		`UPDATE users SET name = ?, about = ?, updated_at = ? WHERE id = ? AND is_active`,
		name, about, db.FormatTime(time.Now()), id)
}

func (r *userRepo) UpdateAvatar(ctx context.Context, id, avatar string) (models.User, error) {
	return r.update(ctx, id,
		`UPDATE users SET avatar = ?, updated_at = ? WHERE id = ? AND is_active`,
		avatar, db.FormatTime(time.Now()), id)
}

func (r *userRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.update(ctx, id,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ? AND is_active`,
		false, db.FormatTime(time.Now()), id)
	return err
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`, db.FormatTime(at), id); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
