package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"vendorhub/internal/auth"
	"vendorhub/internal/config"
	"vendorhub/internal/domain"
	"vendorhub/internal/metrics"
	"vendorhub/internal/store"
	"vendorhub/internal/util"
	apperrors "vendorhub/pkg/errors"
)

// LoginResult is returned by a successful login
type LoginResult struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// CreateUserPayload describes a new back-office or vendor account
type CreateUserPayload struct {
	Username string
	Email    string
	Password string
	FullName *string
	Role     domain.Role
	VendorID *uint
}

// AuthService implements login and bearer token authentication
type AuthService struct {
	store *store.Store
	cfg   *config.AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(st *store.Store, cfg *config.AuthConfig) *AuthService {
	return &AuthService{store: st, cfg: cfg}
}

// Authenticate resolves a bearer token into the caller's principal
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	claims, err := util.ValidateToken(token, s.cfg)
	if err != nil {
		return nil, apperrors.Unauthorized()
	}

	user, err := s.store.GetUserByUsername(ctx, claims.Username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized()
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized()
	}

	// role comes from the database so a demoted user loses access immediately
	return &auth.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		VendorID: user.VendorID,
	}, nil
}

// Login implements the login method
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	log.Printf("[AUTH] Login attempt for user: %s", username)

	if username == "" || password == "" {
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.Validation("username and password are required")
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		if apperrors.IsNotFound(err) {
			log.Printf("[AUTH] Login failed: user '%s' not found", username)
			return nil, apperrors.Unauthorized()
		}
		log.Printf("[AUTH] Login failed: database error for user '%s': %v", username, err)
		return nil, err
	}

	if !util.CheckPasswordHash(password, user.HashedPassword) {
		log.Printf("[AUTH] Login failed: invalid password for user '%s'", username)
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.Unauthorized()
	}

	if !user.IsActive {
		log.Printf("[AUTH] Login failed: user '%s' is inactive", username)
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.Unauthorized()
	}

	if err := s.store.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		log.Printf("[AUTH] Warning: failed to record last login for '%s': %v", username, err)
	}

	token, err := util.GenerateToken(user, s.cfg)
	if err != nil {
		log.Printf("[AUTH] Login failed: token generation error for user '%s': %v", username, err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("[AUTH] Login successful for user '%s' (id=%d, role=%s)", username, user.ID, user.Role)
	metrics.RecordAuthAttempt(true)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// CreateUser creates an account. Used by vendorctl.
func (s *AuthService) CreateUser(ctx context.Context, p *CreateUserPayload) (*domain.User, error) {
	username := strings.TrimSpace(p.Username)
	email := strings.ToLower(strings.TrimSpace(p.Email))
	password := strings.TrimSpace(p.Password)

	log.Printf("[AUTH] CreateUser request: username=%s, email=%s, role=%s", username, email, p.Role)

	if username == "" {
		return nil, apperrors.Validation("username is required")
	}
	if !emailRegex.MatchString(email) {
		return nil, apperrors.Validation("invalid email address")
	}
	if len(password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	role := p.Role
	if role == "" {
		role = domain.RoleVendor
	}
	if role != domain.RoleAdmin && role != domain.RoleVendor {
		return nil, apperrors.Validation("invalid role %q", role)
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, apperrors.Validation("username already registered")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
		VendorID:       p.VendorID,
		IsActive:       true,
	}
	if p.FullName != nil {
		fullName := strings.TrimSpace(*p.FullName)
		user.FullName = &fullName
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		log.Printf("[AUTH] CreateUser failed: %v", err)
		return nil, err
	}

	log.Printf("[AUTH] CreateUser successful: username=%s, id=%d", username, user.ID)
	return user, nil
}
