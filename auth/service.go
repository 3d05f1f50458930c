package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/rs/zerolog/log"
)

// ErrBadCredentials is returned for any signin failure.
var ErrBadCredentials = apperr.Unauthorized("incorrect email or password")

// ErrEmailTaken is returned by Signup for a registered email.
var ErrEmailTaken = apperr.Conflict("email already registered")

// Service owns credential checks and account creation.
type Service struct {
	Users store.Users
	Now   func() time.Time
}

func NewService(users store.Users) *Service {
	return &Service{Users: users, Now: time.Now}
}

// Signup creates an active account. in must already be normalized and
// validated.
func (s *Service) Signup(ctx context.Context, in models.SignupInput) (models.User, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Avatar:       models.DefaultAvatar,
		IsActive:     true,
	}
	if err := s.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate checks email and password against an active account and
// records the login time. Every failure is ErrBadCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.Users.ByEmail(ctx, email, true)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return models.User{}, err
		}
		CheckPassword(dummyHash(), password)
		return models.User{}, ErrBadCredentials
	}
	if !CheckPassword(u.PasswordHash, password) {
		return models.User{}, ErrBadCredentials
	}

	now := s.Now().UTC()
	if err := s.Users.TouchLastLogin(ctx, u.ID, now); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", u.ID).Msg("failed to record last login")
	} else {
		u.LastLogin = &now
	}
	return u, nil
}
