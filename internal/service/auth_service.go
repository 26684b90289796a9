package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/pkg/keys"
	"github.com/angelahq/angela/internal/validator"
)

// UserRepository defines user and session repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateSession(ctx context.Context, session *domain.UserSession) error
	GetSessionByToken(ctx context.Context, token string) (*domain.UserSession, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteSessionsForUser(ctx context.Context, userID uuid.UUID) error
}

// APIKeyRepository defines API key repository operations
type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.APIKey, error)
	GetByPublicKey(ctx context.Context, publicKey string) (*domain.APIKey, error)
	List(ctx context.Context) ([]domain.APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthAuditor defines the audit hooks auth cares about
type AuthAuditor interface {
	LogLogin(ctx context.Context, userID uuid.UUID, email, ipAddress, userAgent string)
	LogLoginFailed(ctx context.Context, email, ipAddress, userAgent, reason string)
	LogLogout(ctx context.Context, userID uuid.UUID, email string)
	LogAPIKeyCreated(ctx context.Context, keyID uuid.UUID, keyName string)
	LogAPIKeyRevoked(ctx context.Context, keyID uuid.UUID, keyName string)
}

// AuthService handles dashboard authentication and API key management
type AuthService struct {
	cfg        *config.Config
	userRepo   UserRepository
	apiKeyRepo APIKeyRepository
	auditor    AuthAuditor
}

// NewAuthService creates a new auth service
func NewAuthService(cfg *config.Config, userRepo UserRepository, apiKeyRepo APIKeyRepository) *AuthService {
	return &AuthService{
		cfg:        cfg,
		userRepo:   userRepo,
		apiKeyRepo: apiKeyRepo,
	}
}

// SetAuditor sets the audit recorder. Audit logging is optional, not a
// required dependency.
func (s *AuthService) SetAuditor(auditor AuthAuditor) {
	s.auditor = auditor
}

// Register creates the dashboard account
func (s *AuthService) Register(ctx context.Context, input *domain.RegisterInput) (*domain.AuthResult, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, apperrors.Validation("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Name:         input.Name,
		Timezone:     input.Timezone,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Login authenticates with email and password
func (s *AuthService) Login(ctx context.Context, input *domain.LoginInput, ipAddress, userAgent string) (*domain.AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.auditLoginFailed(input.Email, ipAddress, userAgent, "unknown email")
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.auditLoginFailed(input.Email, ipAddress, userAgent, "invalid password")
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.auditor != nil {
		go s.auditor.LogLogin(context.Background(), user.ID, user.Email, ipAddress, userAgent)
	}

	return result, nil
}

// RefreshToken exchanges a valid refresh token for a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	session, err := s.userRepo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.ExpiresAt.Before(time.Now()) {
		_ = s.userRepo.DeleteSession(ctx, refreshToken)
		return nil, apperrors.Unauthorized("refresh token expired")
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.cfg.JWT.AccessExpiry),
	}, nil
}

// Logout invalidates a refresh token session
func (s *AuthService) Logout(ctx context.Context, refreshToken string, userID uuid.UUID, userEmail string) error {
	if s.auditor != nil && userID != uuid.Nil {
		go s.auditor.LogLogout(context.Background(), userID, userEmail)
	}

	return s.userRepo.DeleteSession(ctx, refreshToken)
}

// ValidateJWT validates an access token and returns its claims
func (s *AuthService) ValidateJWT(ctx context.Context, tokenString string) (*domain.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})

	if err != nil {
		return nil, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*domain.JWTClaims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile updates the account profile
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *domain.UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Timezone != nil {
		if _, err := time.LoadLocation(*input.Timezone); err != nil {
			return nil, apperrors.Validation("invalid timezone")
		}
		user.Timezone = *input.Timezone
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ValidateAPIKey validates a public/secret key pair and returns the key
func (s *AuthService) ValidateAPIKey(ctx context.Context, publicKey, secretKey string) (*domain.APIKey, error) {
	apiKey, err := s.apiKeyRepo.GetByPublicKey(ctx, publicKey)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid API key")
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	if apiKey.IsExpired() {
		return nil, apperrors.Unauthorized("API key expired")
	}

	if !keys.VerifySecret(secretKey, apiKey.SecretKeyHash) {
		return nil, apperrors.Unauthorized("invalid API key")
	}

	// Update last used async, never on the request path
	go func() {
		_ = s.apiKeyRepo.UpdateLastUsed(context.Background(), apiKey.ID)
	}()

	return apiKey, nil
}

// CreateAPIKey creates a new API key. The plaintext secret is returned
// once and only its hash is stored.
func (s *AuthService) CreateAPIKey(ctx context.Context, input *domain.APIKeyInput) (*domain.APIKeyCreateResult, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	publicKey := keys.NewPublicKey()
	secretKey := keys.NewSecretKey()

	now := time.Now()

	// Keys expire after a year unless the caller says otherwise, so a
	// leaked key does not stay valid forever
	expiresAt := input.ExpiresAt
	if expiresAt == nil {
		defaultExpiry := now.AddDate(1, 0, 0)
		expiresAt = &defaultExpiry
	}

	apiKey := &domain.APIKey{
		ID:               uuid.New(),
		Name:             input.Name,
		PublicKey:        publicKey,
		SecretKeyHash:    keys.HashSecret(secretKey),
		SecretKeyPreview: secretKey[len(secretKey)-4:],
		Scopes:           input.Scopes,
		ExpiresAt:        expiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if len(apiKey.Scopes) == 0 {
		apiKey.Scopes = domain.DefaultScopes()
	}

	if err := s.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}

	if s.auditor != nil {
		go s.auditor.LogAPIKeyCreated(context.Background(), apiKey.ID, apiKey.Name)
	}

	return &domain.APIKeyCreateResult{
		APIKey:    apiKey,
		SecretKey: secretKey,
	}, nil
}

// DeleteAPIKey revokes an API key
func (s *AuthService) DeleteAPIKey(ctx context.Context, id uuid.UUID) error {
	var keyName string
	if s.auditor != nil {
		if apiKey, err := s.apiKeyRepo.GetByID(ctx, id); err == nil {
			keyName = apiKey.Name
		}
	}

	if err := s.apiKeyRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.auditor != nil {
		go s.auditor.LogAPIKeyRevoked(context.Background(), id, keyName)
	}

	return nil
}

// ListAPIKeys lists all API keys
func (s *AuthService) ListAPIKeys(ctx context.Context) ([]domain.APIKey, error) {
	return s.apiKeyRepo.List(ctx)
}

// issueTokens generates an access/refresh pair and stores the refresh
// token as a session
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	session := &domain.UserSession{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.cfg.JWT.RefreshExpiry),
		CreatedAt:    now,
	}

	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.cfg.JWT.AccessExpiry),
	}, nil
}

// generateAccessToken signs a JWT for the user
func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	claims := &domain.JWTClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.JWT.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.cfg.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

// generateRefreshToken generates a random opaque refresh token
func generateRefreshToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func (s *AuthService) auditLoginFailed(email, ipAddress, userAgent, reason string) {
	if s.auditor == nil {
		return
	}
	go s.auditor.LogLoginFailed(context.Background(), email, ipAddress, userAgent, reason)
}
