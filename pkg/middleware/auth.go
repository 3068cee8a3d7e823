package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/trainly/pkg/contextx"
)

// PrincipalClaims 请求主体的 JWT 声明
type PrincipalClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthRequired 校验 Bearer token，并将用户身份写入 request context
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing or malformed authorization header",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &PrincipalClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid or expired token",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		ctx := contextx.WithUser(c.Request.Context(), claims.UserID, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminRequired 仅允许 admin 角色访问，必须置于 AuthRequired 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if contextx.UserRole(c.Request.Context()) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "admin privileges required",
				"code":    "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}
