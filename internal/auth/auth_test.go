package auth

import (
	"testing"
	"time"

	"b2b-commerce/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWT() *JWTService {
	return NewJWTService(config.AuthConfig{
		JWTSecret:     "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "b2b-test",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
}

func testSubject() Subject {
	return Subject{MerchantID: 7, MerchantUID: uuid.New(), Email: "m1@example.com", IsStaff: true}
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestJWT()
	sub := testSubject()

	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)

	access, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), access.MerchantID)
	assert.Equal(t, sub.MerchantUID.String(), access.MerchantUID)
	assert.True(t, access.IsStaff)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	svc := newTestJWT()
	pair, err := svc.GenerateTokenPair(testSubject())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is signed with another secret")

	shared := NewJWTService(config.AuthConfig{JWTSecret: "same", Issuer: "b2b-test", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	pair, err = shared.GenerateTokenPair(testSubject())
	require.NoError(t, err)
	_, err = shared.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestValidateExpired(t *testing.T) {
	svc := newTestJWT()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	pair, err := svc.GenerateTokenPair(testSubject())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateGarbage(t *testing.T) {
	_, err := newTestJWT().ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemainingTTL(t *testing.T) {
	svc := newTestJWT()
	pair, err := svc.GenerateTokenPair(testSubject())
	require.NoError(t, err)
	claims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	ttl := claims.RemainingTTL(time.Now())
	assert.Greater(t, ttl, 59*time.Minute)
	assert.Zero(t, claims.RemainingTTL(time.Now().Add(2*time.Hour)))
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, h.Verify(hash, "hunter22"))
	assert.ErrorIs(t, h.Verify(hash, "wrong"), ErrPasswordMismatch)
}
