package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"
	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/safar/vintagebikes/internal/config"
	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/models"
	"github.com/safar/vintagebikes/internal/store"
)

// Mailer delivers the email verification token.
type Mailer interface {
	SendVerification(ctx context.Context, email, token string) error
}

// LogMailer only records that a verification mail would have been sent.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) SendVerification(ctx context.Context, email, token string) error {
	m.Log.Info().Str("email", email).Int("tokenLength", len(token)).Msg("verification email queued")
	return nil
}

type Service struct {
	db         *sql.DB
	tokens     *TokenManager
	mailer     Mailer
	bcryptCost int
	log        zerolog.Logger
}

func NewService(db *sql.DB, tokens *TokenManager, mailer Mailer, cfg config.AuthConfig, log zerolog.Logger) *Service {
	return &Service{
		db:         db,
		tokens:     tokens,
		mailer:     mailer,
		bcryptCost: cfg.BcryptCost,
		log:        log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// Register creates an unverified account and sends the verification token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "auth.Register"

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "", err)
	}

	user, err := store.CreateUser(ctx, s.db, store.NewUser{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Address:      in.Address,
	})
	if err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			return nil, apperr.Wrap(apperr.KindConflict, op, "user already exists", err)
		}
		return nil, apperr.Wrap(apperr.KindPersistence, op, "", err)
	}

	token, err := s.tokens.Issue(Principal{UserID: user.ID, Email: user.Email}, PurposeVerify)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	if err := s.mailer.SendVerification(ctx, user.Email, token); err != nil {
		s.log.Error().Err(err).Int64("userId", user.ID).Msg("send verification failed")
	}

	return user, nil
}

type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	const op = "auth.Login"

	user, err := store.GetUserByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, op, "user not found", err)
		}
		return nil, apperr.Wrap(apperr.KindPersistence, op, "", err)
	}

	if !user.Verified {
		return nil, apperr.Validation(op, "email not verified, please check your email")
	}

	if err := CheckPassword(user.Password, password); err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, op, "invalid credentials", err)
	}

	p := Principal{UserID: user.ID, Email: user.Email}
	access, err := s.tokens.Issue(p, PurposeAccess)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	refresh, err := s.tokens.Issue(p, PurposeRefresh)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "", err)
	}

	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	const op = "auth.VerifyEmail"

	if token == "" {
		return apperr.Validation(op, "token is required")
	}
	p, err := s.tokens.Parse(token, PurposeVerify)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, op, "invalid or expired token", err)
	}

	if err := store.MarkUserVerified(ctx, s.db, p.Email); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return apperr.Wrap(apperr.KindNotFound, op, "user not found", err)
		}
		return apperr.Wrap(apperr.KindPersistence, op, "", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "auth.Refresh"

	if refreshToken == "" {
		return "", apperr.Unauthorized(op, "refresh token missing")
	}
	p, err := s.tokens.Parse(refreshToken, PurposeRefresh)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, op, "invalid or expired refresh token", err)
	}

	if _, err := store.GetUser(ctx, s.db, p.UserID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return "", apperr.Wrap(apperr.KindUnauthorized, op, "invalid or expired refresh token", err)
		}
		return "", apperr.Wrap(apperr.KindPersistence, op, "", err)
	}

	access, err := s.tokens.Issue(p, PurposeAccess)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	return access, nil
}
