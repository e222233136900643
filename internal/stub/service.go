package stub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/security"
	"github.com/jrjohn/arcana-auth-client/pkg/authclient"
	apperrors "github.com/jrjohn/arcana-auth-client/pkg/errors"
	"github.com/jrjohn/arcana-auth-client/pkg/logger"
)

const tokenType = "Bearer"

var (
	errInvalidCredentials  = apperrors.ErrUnauthorized.WithMessage("invalid credentials")
	errInvalidRefreshToken = apperrors.ErrUnauthorized.WithMessage("invalid or expired refresh token")
	errUnknownOrganization = apperrors.ErrNotFound.WithMessage("organization not found")
	errUserNotFound        = apperrors.ErrNotFound.WithMessage("user not found")
)

// Service implements the auth operations of the stub backend
type Service struct {
	store       *Store
	jwtProvider *security.JWTProvider
	hasher      *security.PasswordHasher
	logger      *zap.Logger

	mu            sync.RWMutex
	organizations []config.OrganizationConfig

	now func() time.Time
}

// NewService creates a new Service. cfg.Organizations must not be empty;
// new registrations join the first one.
func NewService(
	cfg *config.StubConfig,
	store *Store,
	jwtProvider *security.JWTProvider,
	hasher *security.PasswordHasher,
	log *zap.Logger,
) *Service {
	return &Service{
		store:         store,
		jwtProvider:   jwtProvider,
		hasher:        hasher,
		organizations: cfg.Organizations,
		logger:        logger.Component(log, "stub_service"),
		now:           time.Now,
	}
}

// Register creates an account and signs it in
func (s *Service) Register(ctx context.Context, req *authclient.RegistrationRequest) (*authclient.AuthResult, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:                 uuid.New().String(),
		Username:           req.Username,
		Email:              req.Email,
		FullName:           req.FullName,
		RegistrationNumber: req.RegistrationNumber,
		Area:               req.Area,
		PasswordHash:       hash,
		OrganizationID:     s.defaultOrganization(),
		CreatedAt:          s.now(),
	}

	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrDuplicateEmail) {
			return nil, apperrors.Wrap(err, apperrors.ErrConflict.WithMessage(err.Error()))
		}
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("organization_id", user.OrganizationID),
	)
	return s.issueTokens(user)
}

// Login authenticates by username or email inside an organization
func (s *Service) Login(ctx context.Context, req *authclient.LoginRequest) (*authclient.AuthResult, error) {
	if _, ok := s.organizationName(req.OrganizationID); !ok {
		return nil, errUnknownOrganization
	}

	user, ok := s.store.FindByLogin(req.OrganizationID, req.Login)
	if !ok || !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.logger.Warn("Login rejected",
			zap.String("login", req.Login),
			zap.String("organization_id", req.OrganizationID),
		)
		return nil, errInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh rotates a refresh token; the presented token cannot be reused
func (s *Service) Refresh(ctx context.Context, token string) (*authclient.AuthResult, error) {
	claims, err := s.jwtProvider.ValidateRefreshToken(token)
	if err != nil {
		return nil, apperrors.Wrap(err, errInvalidRefreshToken)
	}

	userID, err := s.store.ConsumeRefreshToken(token, s.now())
	if err != nil {
		return nil, apperrors.Wrap(err, errInvalidRefreshToken)
	}
	if userID != claims.Subject {
		return nil, errInvalidRefreshToken
	}

	user, ok := s.store.FindByID(userID)
	if !ok {
		return nil, errInvalidRefreshToken
	}

	return s.issueTokens(user)
}

// Logout revokes every refresh token of userID. Unknown users are not an error.
func (s *Service) Logout(ctx context.Context, userID string) error {
	revoked := s.store.RevokeUserTokens(userID)
	s.logger.Info("User logged out", zap.String("user_id", userID), zap.Int("revoked_tokens", revoked))
	return nil
}

// Me returns the summary of an authenticated user
func (s *Service) Me(ctx context.Context, userID string) (*authclient.UserSummary, error) {
	user, ok := s.store.FindByID(userID)
	if !ok {
		return nil, errUserNotFound
	}
	summary := s.summary(user)
	return &summary, nil
}

func (s *Service) issueTokens(user *User) (*authclient.AuthResult, error) {
	subject := security.Subject{
		UserID:         user.ID,
		Username:       user.Username,
		Email:          user.Email,
		OrganizationID: user.OrganizationID,
	}

	accessToken, err := s.jwtProvider.GenerateAccessToken(subject)
	if err != nil {
		return nil, err
	}
	refreshToken, expiresAt, err := s.jwtProvider.GenerateRefreshToken(subject)
	if err != nil {
		return nil, err
	}
	s.store.SaveRefreshToken(refreshToken, user.ID, expiresAt)

	return &authclient.AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresIn:    s.jwtProvider.AccessTokenTTL(),
		User:         s.summary(user),
	}, nil
}

func (s *Service) summary(user *User) authclient.UserSummary {
	name, _ := s.organizationName(user.OrganizationID)
	return authclient.UserSummary{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		FullName:         user.FullName,
		OrganizationID:   user.OrganizationID,
		OrganizationName: name,
	}
}

// SetOrganizations replaces the known organizations. Existing users keep
// their organization id.
func (s *Service) SetOrganizations(orgs []config.OrganizationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations = orgs
	s.logger.Info("Organizations updated", zap.Int("count", len(orgs)))
}

func (s *Service) defaultOrganization() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.organizations[0].ID
}

func (s *Service) organizationName(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, org := range s.organizations {
		if org.ID == id {
			return org.Name, true
		}
	}
	return "", false
}
