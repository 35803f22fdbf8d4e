package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/auth"
	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store"
	"b2b-commerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DateLayout is the wire format of a merchant's date of birth
const DateLayout = "2006-01-02"

// IdentityService handles sign up, login and token lifecycle
type IdentityService struct {
	store   Store
	tokens  *auth.JWTService
	hasher  *auth.PasswordHasher
	revoker TokenRevoker
	logger  *zap.Logger
	now     func() time.Time
}

// NewIdentityService creates a new identity service
func NewIdentityService(store Store, tokens *auth.JWTService, hasher *auth.PasswordHasher, revoker TokenRevoker) *IdentityService {
	if revoker == nil {
		revoker = NoopRevoker{}
	}
	return &IdentityService{
		store:   store,
		tokens:  tokens,
		hasher:  hasher,
		revoker: revoker,
		logger:  util.GetLogger(),
		now:     time.Now,
	}
}

// SignUpRequest represents a request to create a merchant account
type SignUpRequest struct {
	Email     string `json:"email" binding:"required" validate:"required,email,max=254"`
	Name      string `json:"name" binding:"required" validate:"required,max=100"`
	DOB       string `json:"dob" binding:"required" validate:"required,datetime=2006-01-02"`
	Password1 string `json:"password1" binding:"required" validate:"required,min=5"`
	Password2 string `json:"password2" binding:"required" validate:"required"`
}

// LoginResult is returned by LogIn
type LoginResult struct {
	Merchant *models.Merchant
	Tokens   *auth.TokenPair
}

// SignUp creates a merchant with a bcrypt hashed password
func (s *IdentityService) SignUp(ctx context.Context, req *SignUpRequest) (*models.Merchant, error) {
	ctx, span := util.StartSpan(ctx, "IdentityService.SignUp")
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := apperr.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Password1 != req.Password2 {
		return nil, apperr.FieldValidation(map[string]string{"password2": "passwords do not match"})
	}

	dob, err := time.Parse(DateLayout, req.DOB)
	if err != nil {
		return nil, apperr.FieldValidation(map[string]string{"dob": "must match the format " + DateLayout})
	}

	hash, err := s.hasher.Hash(req.Password1)
	if err != nil {
		return nil, err
	}

	merchant := &models.Merchant{
		UID:          uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		DOB:          dob,
		PasswordHash: hash,
	}
	if err := s.store.CreateMerchant(ctx, merchant); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("merchant with this email already exists").Wrap(err)
		}
		return nil, fmt.Errorf("failed to create merchant: %w", err)
	}

	util.SignupsTotal.Inc()
	s.logger.Info("Merchant signed up", zap.String("merchant_uid", merchant.UID.String()))
	return merchant, nil
}

// LogIn checks credentials and issues a token pair
func (s *IdentityService) LogIn(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := util.StartSpan(ctx, "IdentityService.LogIn")
	defer span.End()

	merchant, err := s.store.GetMerchantByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		util.LoginsTotal.WithLabelValues("unknown_email").Inc()
		return nil, apperr.InvalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}

	if err := s.hasher.Verify(merchant.PasswordHash, password); err != nil {
		util.LoginsTotal.WithLabelValues("bad_password").Inc()
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	pair, err := s.issue(merchant)
	if err != nil {
		return nil, err
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	return &LoginResult{Merchant: merchant, Tokens: pair}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "IdentityService.Refresh")
	defer span.End()

	claims, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	merchant, err := s.store.GetMerchantByID(ctx, claims.MerchantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthenticated("merchant no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}

	if err := s.revoker.RevokeToken(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return s.issue(merchant)
}

// LogOut revokes a refresh token
func (s *IdentityService) LogOut(ctx context.Context, refreshToken string) error {
	ctx, span := util.StartSpan(ctx, "IdentityService.LogOut")
	defer span.End()

	claims, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.logger.Info("Merchant logged out", zap.Int64("merchant_id", claims.MerchantID))
	return nil
}

// Authenticate validates an access token
func (s *IdentityService) Authenticate(accessToken string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, apperr.Unauthenticated("authentication required").Wrap(err)
	}
	return claims, nil
}

// ListMerchants retrieves every merchant
func (s *IdentityService) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	ctx, span := util.StartSpan(ctx, "IdentityService.ListMerchants")
	defer span.End()

	return s.store.ListMerchants(ctx)
}

func (s *IdentityService) checkRefresh(ctx context.Context, refreshToken string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid refresh token").Wrap(err)
	}

	revoked, err := s.revoker.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, apperr.Unauthenticated("refresh token has been revoked").Wrap(auth.ErrTokenRevoked)
	}
	return claims, nil
}

func (s *IdentityService) issue(m *models.Merchant) (*auth.TokenPair, error) {
	pair, err := s.tokens.GenerateTokenPair(auth.Subject{
		MerchantID:  m.ID,
		MerchantUID: m.UID,
		Email:       m.Email,
		IsStaff:     m.IsStaff,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return pair, nil
}
