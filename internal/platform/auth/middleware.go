package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const principalKey contextKey = "principal"

// Claims carries the attributes this system consumes from the identity
// provider. Credential storage and verification live outside this service.
type Claims struct {
	jwt.RegisteredClaims
	Role                    string   `json:"role"`
	OrganizationID          string   `json:"organization_id"`
	AccessibleOrganizations []string `json:"accessible_organizations"`
	AccessibleStudies       []string `json:"accessible_studies"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	// SigningKey enables HMAC verification for development and testing.
	SigningKey []byte
}

// JWTMiddleware authenticates the bearer token and stores the resulting
// Principal on the request context. Missing or invalid tokens yield 401
// before any handler runs.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			opts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"RS256", "HS256"}),
			}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}

			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			role := Role(claims.Role)
			if !ValidRole(role) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown role")
			}

			principal := &Principal{
				UserID:                  claims.Subject,
				Role:                    role,
				OrganizationID:          claims.OrganizationID,
				AccessibleOrganizations: claims.AccessibleOrganizations,
				AccessibleStudies:       claims.AccessibleStudies,
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), principal)))
			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development: requests
// without credentials run as a super_admin principal.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := &Principal{
				UserID: "dev-user",
				Role:   RoleSuperAdmin,
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), principal)))
			return next(c)
		}
	}
}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated principal, or nil when the
// request was not authenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
