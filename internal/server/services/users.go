package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/logging"
	"github.com/dmitrijs2005/gophsocial/internal/server/auth"
	"github.com/dmitrijs2005/gophsocial/internal/server/config"
	smail "github.com/dmitrijs2005/gophsocial/internal/server/mail"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/repomanager"
)

const minPasswordLength = 6

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Registration is the input of Register.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UserService handles accounts: registration with email verification,
// login and refresh-token rotation, password reset and profile reads and
// updates.
type UserService struct {
	repomanager                       repomanager.RepositoryManager
	mailer                            smail.Mailer
	log                               logging.Logger
	jwtSecret                         []byte
	appURL                            string
	accessTokenValidityDuration       time.Duration
	refreshTokenValidityDuration      time.Duration
	verificationTokenValidityDuration time.Duration
	resetTokenValidityDuration        time.Duration
	now                               func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(m repomanager.RepositoryManager, mailer smail.Mailer, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		repomanager:                       m,
		mailer:                            mailer,
		log:                               log,
		jwtSecret:                         []byte(cfg.SecretKey),
		appURL:                            strings.TrimRight(cfg.AppURL, "/"),
		accessTokenValidityDuration:       cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration:      cfg.RefreshTokenValidityDuration,
		verificationTokenValidityDuration: cfg.VerificationTokenValidityDuration,
		resetTokenValidityDuration:        cfg.ResetTokenValidityDuration,
		now:                               time.Now,
	}
}

// Register creates an unverified account and emails a verification link.
// A duplicate email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, in Registration) (*models.User, error) {
	user, err := s.newUser(in)
	if err != nil {
		return nil, err
	}

	var secret string
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		if _, err := m.Users().Create(ctx, user); err != nil {
			return err
		}
		secret, err = s.issueToken(ctx, m, user.ID, models.TokenKindVerification, s.verificationTokenValidityDuration)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: email address already exists", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	link := fmt.Sprintf("%s/users/verify/%s/%s", s.appURL, user.ID, secret)
	msg := smail.Message{
		To:      user.Email,
		Subject: "Email Verification",
		Body:    fmt.Sprintf("Hi %s,\n\nPlease verify your email address:\n%s\n\nThis link expires in %s.\n", user.FirstName, link, s.verificationTokenValidityDuration),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn(ctx, "verification email not sent", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// CreateVerifiedUser creates an account that can log in immediately. Used by
// the admin CLI.
func (s *UserService) CreateVerifiedUser(ctx context.Context, in Registration) (*models.User, error) {
	user, err := s.newUser(in)
	if err != nil {
		return nil, err
	}
	user.Verified = true
	if _, err := s.repomanager.Users().Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: email address already exists", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

func (s *UserService) newUser(in Registration) (*models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.FirstName == "" || in.LastName == "" {
		return nil, validationError("first and last name are required")
	}
	// Display names and comments are rejected: the stored value is the
	// login key and the SMTP recipient.
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return nil, validationError("a valid email address is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	return &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
	}, nil
}

// Login verifies credentials and returns a new TokenPair with the user.
// Unknown emails and wrong passwords both yield common.ErrorUnauthorized;
// unverified accounts yield common.ErrorNotVerified.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	if email == "" || password == "" {
		return nil, nil, validationError("email and password are required")
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return nil, nil, common.ErrorUnauthorized
	}
	if !user.Verified {
		return nil, nil, common.ErrorNotVerified
	}

	pair, err := s.generateTokenPair(ctx, s.repomanager, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.Tokens().FindByHash(ctx, models.TokenKindRefresh, common.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expired(s.now()) {
		if err := s.repomanager.Tokens().Delete(ctx, token.ID); err != nil {
			s.log.Warn(ctx, "expired refresh token not deleted", "user_id", token.UserID, "error", err)
		}
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		if err := m.Tokens().Delete(ctx, token.ID); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, m, token.UserID)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// VerifyEmail consumes a verification link. An expired link removes the
// unverified account and yields common.ErrTokenExpired.
func (s *UserService) VerifyEmail(ctx context.Context, userID, secret string) error {
	token, err := s.repomanager.Tokens().Find(ctx, userID, models.TokenKindVerification)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: invalid verification link", common.ErrorNotFound)
		}
		return fmt.Errorf("error searching verification token: %w", err)
	}

	if token.Expired(s.now()) {
		err := s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
			if err := m.Tokens().DeleteByUser(ctx, userID, models.TokenKindVerification); err != nil {
				return err
			}
			return m.Users().Delete(ctx, userID)
		})
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error removing expired registration: %w", err)
		}
		return common.ErrTokenExpired
	}

	if !tokenMatches(token, secret) {
		return fmt.Errorf("%w: verification failed or link is invalid", common.ErrorUnauthorized)
	}

	return s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		if err := m.Users().SetVerified(ctx, userID); err != nil {
			return err
		}
		return m.Tokens().DeleteByUser(ctx, userID, models.TokenKindVerification)
	})
}

// RequestPasswordReset emails a reset link. While an earlier link is still
// valid it yields common.ErrResetPending and sends nothing.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repomanager.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: email address not found", common.ErrorNotFound)
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	var secret string
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		existing, err := m.Tokens().Find(ctx, user.ID, models.TokenKindPasswordReset)
		switch {
		case err == nil && !existing.Expired(s.now()):
			return common.ErrResetPending
		case err == nil:
			if err := m.Tokens().DeleteByUser(ctx, user.ID, models.TokenKindPasswordReset); err != nil {
				return err
			}
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}
		secret, err = s.issueToken(ctx, m, user.ID, models.TokenKindPasswordReset, s.resetTokenValidityDuration)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrResetPending) {
			return err
		}
		return fmt.Errorf("error creating reset token: %w", err)
	}

	link := fmt.Sprintf("%s/users/reset-password/%s/%s", s.appURL, user.ID, secret)
	msg := smail.Message{
		To:      user.Email,
		Subject: "Password Reset",
		Body:    fmt.Sprintf("Hi %s,\n\nReset your password here:\n%s\n\nThis link expires in %s.\n", user.FirstName, link, s.resetTokenValidityDuration),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		if derr := s.repomanager.Tokens().DeleteByUser(ctx, user.ID, models.TokenKindPasswordReset); derr != nil {
			s.log.Warn(ctx, "reset token not deleted after mail failure", "user_id", user.ID, "error", derr)
		}
		return fmt.Errorf("error sending reset email: %w", err)
	}
	return nil
}

// CheckPasswordReset validates a reset link without consuming it.
func (s *UserService) CheckPasswordReset(ctx context.Context, userID, secret string) error {
	_, err := s.resetToken(ctx, userID, secret)
	return err
}

// ChangePassword sets a new password for the holder of a valid reset link,
// consumes the link and revokes every refresh token of the account.
func (s *UserService) ChangePassword(ctx context.Context, userID, secret, password string) error {
	if len(password) < minPasswordLength {
		return validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if _, err := s.resetToken(ctx, userID, secret); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		if err := m.Users().SetPassword(ctx, userID, hash); err != nil {
			return err
		}
		if err := m.Tokens().DeleteByUser(ctx, userID, models.TokenKindPasswordReset); err != nil {
			return err
		}
		return m.Tokens().DeleteByUser(ctx, userID, models.TokenKindRefresh)
	})
}

func (s *UserService) resetToken(ctx context.Context, userID, secret string) (*models.Token, error) {
	if _, err := s.repomanager.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: invalid password reset link", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	token, err := s.repomanager.Tokens().Find(ctx, userID, models.TokenKindPasswordReset)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: invalid password reset link", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error searching reset token: %w", err)
	}
	if token.Expired(s.now()) {
		return nil, common.ErrTokenExpired
	}
	if !tokenMatches(token, secret) {
		return nil, fmt.Errorf("%w: invalid password reset link", common.ErrorUnauthorized)
	}
	return token, nil
}

// GetUser returns the account id, or the caller's own when id is empty,
// with the friends set resolved to public profiles.
func (s *UserService) GetUser(ctx context.Context, callerID, id string) (*models.UserDetails, error) {
	if id == "" {
		id = callerID
	}
	user, err := s.repomanager.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return s.details(ctx, user)
}

// UpdateUser applies the non-empty fields of upd and returns the updated
// account with a fresh access token.
func (s *UserService) UpdateUser(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserDetails, string, error) {
	if upd.IsEmpty() {
		return nil, "", validationError("please provide at least one field to update")
	}

	user, err := s.repomanager.Users().Update(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return nil, "", fmt.Errorf("error updating user: %w", err)
	}

	details, err := s.details(ctx, user)
	if err != nil {
		return nil, "", err
	}
	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return details, token, nil
}

// PurgeUnverified deletes the accounts whose verification link has expired
// and returns how many were removed.
func (s *UserService) PurgeUnverified(ctx context.Context) (int, error) {
	ids, err := s.repomanager.Tokens().ExpiredUserIDs(ctx, models.TokenKindVerification, s.now())
	if err != nil {
		return 0, fmt.Errorf("error listing expired verifications: %w", err)
	}

	purged := 0
	for _, id := range ids {
		err := s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
			user, err := m.Users().GetByID(ctx, id)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			if err := m.Tokens().DeleteByUser(ctx, id, models.TokenKindVerification); err != nil {
				return err
			}
			if user == nil || user.Verified {
				return nil
			}
			if err := m.Users().Delete(ctx, id); err != nil {
				return err
			}
			purged++
			return nil
		})
		if err != nil {
			return purged, fmt.Errorf("error purging user %s: %w", id, err)
		}
		s.log.Info(ctx, "purged unverified user", "user_id", id)
	}
	return purged, nil
}

// --- helpers below ---

func (s *UserService) details(ctx context.Context, user *models.User) (*models.UserDetails, error) {
	byID, err := profiles(ctx, s.repomanager.Users(), user.Friends)
	if err != nil {
		return nil, err
	}
	friends := make([]*models.PublicProfile, 0, len(user.Friends))
	for _, id := range user.Friends {
		if p, ok := byID[id]; ok {
			friends = append(friends, p)
		}
	}
	return &models.UserDetails{User: user, FriendProfiles: friends}, nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

// issueToken stores the digest of a new random secret and returns the secret.
func (s *UserService) issueToken(ctx context.Context, m repomanager.RepositoryManager, userID string, kind models.TokenKind, validity time.Duration) (string, error) {
	secret, err := common.MakeRandHexString(32)
	if err != nil {
		return "", err
	}
	now := s.now()
	err = m.Tokens().Create(ctx, &models.Token{
		UserID:    userID,
		Kind:      kind,
		Hash:      common.HashToken(secret),
		ExpiresAt: now.Add(validity),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return secret, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, m repomanager.RepositoryManager, userID string) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.issueToken(ctx, m, userID, models.TokenKindRefresh, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func tokenMatches(token *models.Token, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(token.Hash), []byte(common.HashToken(secret))) == 1
}
