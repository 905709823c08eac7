package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hostel/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "hostel-identity"})
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestJWTService()
	tenantID, userID := uuid.New(), uuid.New()

	token, err := svc.IssueToken(tenantID, userID, []string{PermissionRefundApprove}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	gotTenant, err := claims.TenantUUID()
	require.NoError(t, err)
	assert.Equal(t, tenantID, gotTenant)
	gotUser, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, "hostel-identity", claims.Issuer)
	assert.True(t, claims.HasPermission(PermissionRefundApprove))
	assert.False(t, claims.HasPermission(PermissionReminderAdmin))
}

func TestJWTService_Disabled(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{})
	assert.False(t, svc.Enabled())

	_, err := svc.IssueToken(uuid.New(), uuid.New(), nil, time.Hour)
	assert.ErrorIs(t, err, ErrAuthDisabled)
	_, err = svc.ValidateToken("anything")
	assert.ErrorIs(t, err, ErrAuthDisabled)
}

func TestJWTService_ValidateToken_Rejections(t *testing.T) {
	svc := newTestJWTService()
	tenantID, userID := uuid.New(), uuid.New()

	expired := newTestJWTService()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.IssueToken(tenantID, userID, nil, time.Hour)
	require.NoError(t, err)

	future := newTestJWTService()
	future.now = func() time.Time { return time.Now().Add(time.Hour) }
	futureToken, err := future.IssueToken(tenantID, userID, nil, 2*time.Hour)
	require.NoError(t, err)

	otherSecret := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "hostel-identity"})
	forged, err := otherSecret.IssueToken(tenantID, userID, nil, time.Hour)
	require.NoError(t, err)

	otherIssuer := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
	wrongIssuer, err := otherIssuer.IssueToken(tenantID, userID, nil, time.Hour)
	require.NoError(t, err)

	noTenant, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "hostel-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID.String(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "hostel-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: tenantID.String(),
		UserID:   "not-a-uuid",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		TenantID: tenantID.String(),
		UserID:   userID.String(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not.a.token", ErrInvalidToken},
		{"expired", expiredToken, ErrExpiredToken},
		{"not yet valid", futureToken, ErrTokenNotYetValid},
		{"wrong secret", forged, ErrInvalidToken},
		{"wrong issuer", wrongIssuer, ErrInvalidToken},
		{"alg none", unsigned, ErrInvalidToken},
		{"missing tenant", noTenant, ErrMissingTenantID},
		{"malformed user", noUser, ErrMissingUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClaims_WildcardPermission(t *testing.T) {
	claims := &Claims{Permissions: []string{"*"}}
	assert.True(t, claims.HasPermission(PermissionReminderAdmin))
	assert.False(t, (&Claims{}).HasPermission(PermissionRefundApprove))
}
