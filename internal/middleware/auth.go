package middleware

import (
	"net/http"
	"strings"

	"pharmacyos/internal/apierror"
	"pharmacyos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
	authKey   = "auth"
)

// JWTClaims are the custom claims embedded in every token.
type JWTClaims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	TokenType      string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer access token on every protected route and
// stores both the claims and the derived service.AuthContext.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.TokenType != service.TokenAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}

		orgID, orgErr := uuid.Parse(claims.OrganizationID)
		userID, userErr := uuid.Parse(claims.UserID)
		if orgErr != nil || userErr != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("malformed token"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(authKey, service.AuthContext{OrganizationID: orgID, UserID: userID, Role: claims.Role})
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetAuth returns the caller identity set by JWTAuth. Outside a protected
// route it is the zero AuthContext, which every service rejects.
func GetAuth(c *gin.Context) service.AuthContext {
	auth, _ := c.Get(authKey)
	a, _ := auth.(service.AuthContext)
	return a
}

// SetAuth stores an AuthContext directly; used by handler tests.
func SetAuth(c *gin.Context, auth service.AuthContext) {
	c.Set(authKey, auth)
}
