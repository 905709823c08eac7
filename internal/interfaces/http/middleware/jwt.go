package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hostel/backend/internal/infrastructure/auth"
	"github.com/hostel/backend/internal/infrastructure/logger"
	"github.com/hostel/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Actor context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	JWTPermissions = "jwt_permissions"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	TenantIDHeader = "X-Tenant-ID"
	UserIDHeader   = "X-User-ID"
)

// ErrMissingTenantHeader is returned in header mode when X-Tenant-ID is absent or malformed
var ErrMissingTenantHeader = errors.New("missing or malformed X-Tenant-ID header")

// JWTMiddlewareConfig holds configuration for the actor middleware
type JWTMiddlewareConfig struct {
	// JWTService validates bearer tokens. When it is nil or has no secret the
	// middleware trusts the X-Tenant-ID and X-User-ID headers instead.
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require an actor
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require an actor
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultJWTConfig returns default actor middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/system/info",
			"/api/v1/system/ping",
		},
		SkipPathPrefixes: []string{
			"/swagger",
		},
	}
}

// JWTAuthMiddleware creates actor middleware with the default skip paths
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig resolves the calling tenant and user, either from
// a verified bearer token or, with verification disabled, from actor headers.
// Every billing call needs a tenant; the user is optional.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	verify := cfg.JWTService != nil && cfg.JWTService.Enabled()

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		var (
			claims *auth.Claims
			err    error
		)
		if verify {
			claims, err = claimsFromBearer(c, cfg.JWTService)
		} else {
			claims, err = claimsFromHeaders(c)
		}
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTTenantIDKey, claims.TenantID)
		c.Set(JWTPermissions, claims.Permissions)

		ctx := logger.WithActor(c.Request.Context(), claims.TenantID, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("Actor resolved",
				zap.String("tenant_id", claims.TenantID),
				zap.String("user_id", claims.UserID),
				zap.Bool("verified", verify),
			)
		}

		c.Next()
	}
}

func claimsFromBearer(c *gin.Context, svc *auth.JWTService) (*auth.Claims, error) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return nil, auth.ErrInvalidToken
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
	if tokenString == "" {
		return nil, auth.ErrInvalidToken
	}
	return svc.ValidateToken(tokenString)
}

// claimsFromHeaders builds unverified claims for deployments behind a trusted
// gateway. Header actors hold every permission.
func claimsFromHeaders(c *gin.Context) (*auth.Claims, error) {
	tenantID, err := uuid.Parse(c.GetHeader(TenantIDHeader))
	if err != nil || tenantID == uuid.Nil {
		return nil, ErrMissingTenantHeader
	}
	claims := &auth.Claims{TenantID: tenantID.String(), Permissions: []string{"*"}}
	if raw := c.GetHeader(UserIDHeader); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, auth.ErrMissingUserID
		}
		claims.UserID = userID.String()
	}
	return claims, nil
}

// handleAuthError writes the 401 envelope for an actor resolution failure
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Authentication failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code := dto.ErrCodeUnauthorized
	message := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		message = "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		message = "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, ErrMissingTenantHeader):
		message = "Tenant is required"
	case errors.Is(err, auth.ErrMissingUserID):
		message = "User id is malformed"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		message = "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDKey)))
}

// GetJWTClaims retrieves the actor claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the user ID from the actor claims in context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTTenantID retrieves the tenant ID from the actor claims in context
func GetJWTTenantID(c *gin.Context) string {
	return c.GetString(JWTTenantIDKey)
}

// GetJWTPermissions retrieves the permissions from the actor claims in context
func GetJWTPermissions(c *gin.Context) []string {
	if permissions, exists := c.Get(JWTPermissions); exists {
		if perms, ok := permissions.([]string); ok {
			return perms
		}
	}
	return nil
}
