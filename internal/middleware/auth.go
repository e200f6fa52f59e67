package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	accountService "anoa.com/rewardshub/internal/modules/account/service"
	"anoa.com/rewardshub/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token issued by the identity provider. Subject carries the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	accounts accountService.AccountService
	secret   []byte
}

func NewAuthMiddleware(accounts accountService.AccountService, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		accounts: accounts,
		secret:   []byte(secret),
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperror.ErrNotAuthenticated.Error()})
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			unauthorized(c)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			unauthorized(c)
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil || userID == uuid.Nil {
			unauthorized(c)
			return
		}

		if _, err := m.accounts.EnsureAccount(c.Request.Context(), userID, claims.Email); err != nil {
			slog.Error("failed to resolve account", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
			return
		}

		c.Set("user_id", userID.String())
		c.Next()
	}
}

// RequireModerator must run after RequireAuth.
func (m *AuthMiddleware) RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetString("user_id")
		userID, err := uuid.Parse(raw)
		if err != nil {
			unauthorized(c)
			return
		}

		user, err := m.accounts.GetUser(c.Request.Context(), userID)
		if err != nil {
			unauthorized(c)
			return
		}

		if !user.CanModerate() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "moderator access required"})
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
