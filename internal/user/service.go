package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"storefront-be/internal/apperr"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type TokenIssuer interface {
	Issue(userID, email string, isAdmin bool) (string, error)
}

type Service interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetProfile(ctx context.Context, id auth.Identity) (*User, error)
	UpdateProfile(ctx context.Context, id auth.Identity, params UpdateProfileParams) (*AuthResult, error)

	List(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, userID string) (*User, error)
	Update(ctx context.Context, userID string, params AdminUpdateParams) (*User, error)
	Delete(ctx context.Context, actor auth.Identity, userID string) error

	// Resolve re-reads the user behind a token so revoked accounts and admin
	// flags take effect on the next request.
	Resolve(ctx context.Context, userID string) (auth.Identity, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
	now    func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("email is invalid")
	}
	return nil
}

func (s *service) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperr.Validation("password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, auth.ErrPasswordTooLong
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	now := s.now()
	u := &User{
		Name:      name,
		Email:     email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if !errors.Is(err, ErrUserExists) {
			log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	log.Info("user registered", zap.String("user_id", u.ID))
	return s.authResult(u)
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Info("login rejected: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(password, u.Password) {
		log.Info("login rejected: password mismatch", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	return s.authResult(u)
}

func (s *service) GetProfile(ctx context.Context, id auth.Identity) (*User, error) {
	return s.repo.FindByID(ctx, id.UserID)
}

func (s *service) UpdateProfile(ctx context.Context, id auth.Identity, params UpdateProfileParams) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProfile"),
	)

	u, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		u.Name = strings.TrimSpace(*params.Name)
	}
	if params.Email != nil && strings.TrimSpace(*params.Email) != "" {
		email := normalizeEmail(*params.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}

	// The repository keeps the stored hash when Password is empty.
	u.Password = ""
	if params.Password != nil && *params.Password != "" {
		hashed, err := auth.HashPassword(*params.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hashed
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		log.Error("failed to update profile", zap.Error(err))
		return nil, err
	}

	log.Info("profile updated")
	return s.authResult(u)
}

func (s *service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *service) GetByID(ctx context.Context, userID string) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, params AdminUpdateParams) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		u.Name = strings.TrimSpace(*params.Name)
	}
	if params.Email != nil && strings.TrimSpace(*params.Email) != "" {
		email := normalizeEmail(*params.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if params.IsAdmin != nil {
		u.IsAdmin = *params.IsAdmin
	}
	u.Password = ""
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("user updated by admin",
		zap.String("target_user_id", u.ID),
		zap.Bool("is_admin", u.IsAdmin),
	)
	return u, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Identity, userID string) error {
	if actor.UserID == userID {
		return ErrCannotDeleteSelf
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("user deleted", zap.String("target_user_id", userID))
	return nil
}

func (s *service) Resolve(ctx context.Context, userID string) (auth.Identity, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return auth.Identity{}, auth.ErrInvalidToken
		}
		return auth.Identity{}, err
	}
	return auth.Identity{
		UserID:  u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}, nil
}

func (s *service) authResult(u *User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
		Token:   token,
	}, nil
}
