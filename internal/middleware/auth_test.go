package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/rewardshub/internal/entity"
	userRepo "anoa.com/rewardshub/internal/modules/account/repository"
	accountService "anoa.com/rewardshub/internal/modules/account/service"
	"anoa.com/rewardshub/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "test-secret"

func sign(t *testing.T, key string, subject, email string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	accounts := accountService.NewAccountService(userRepo.NewUserRepository(db), "https://rewards.example")
	auth := NewAuthMiddleware(accounts, secret)

	r := gin.New()
	authed := r.Group("/", auth.RequireAuth())
	authed.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	authed.GET("/admin", auth.RequireModerator(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, db
}

func TestRequireAuth(t *testing.T) {
	r, db := newRouter(t)
	userID := uuid.New()
	valid := sign(t, secret, userID.String(), "new@example.com", time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"bad scheme", "Token " + valid, "", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, "other", userID.String(), "", time.Now().Add(time.Hour)), "", http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, secret, userID.String(), "", time.Now().Add(-time.Hour)), "", http.StatusUnauthorized},
		{"subject not a uuid", "Bearer " + sign(t, secret, "alice", "", time.Now().Add(time.Hour)), "", http.StatusUnauthorized},
		{"bearer header", "Bearer " + valid, "", http.StatusOK},
		{"query token", "", valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"please sign in"}`, w.Body.String())
			} else {
				assert.Equal(t, userID.String(), w.Body.String())
			}
		})
	}

	var user entity.User
	require.NoError(t, db.Where("id = ?", userID).First(&user).Error)
	assert.Equal(t, "new@example.com", user.Email)
	require.NotNil(t, user.ReferralCode, "first sight provisions a referral code")
}

func TestRequireModerator(t *testing.T) {
	r, db := newRouter(t)
	member := testutil.CreateUser(t, db, entity.RoleMember, "")
	moderator := testutil.CreateUser(t, db, entity.RoleModerator, "")

	for _, tc := range []struct {
		user   *entity.User
		status int
	}{
		{member, http.StatusForbidden},
		{moderator, http.StatusNoContent},
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, secret, tc.user.ID.String(), tc.user.Email, time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.user.Role.Name)
	}
}
