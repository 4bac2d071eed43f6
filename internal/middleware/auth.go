package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/admiralorbiter/DataDeckv2/internal/models"
	"github.com/admiralorbiter/DataDeckv2/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware validates the JWT and puts the staff account into the
// context as "currentUser". Student tokens are refused here; student-facing
// routes do their own checks.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// 2) URL query ?token=xxx (for downloads where headers are awkward)
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		// 3) Cookie dd_token
		if tokenStr == "" {
			if cookie, err := c.Cookie("dd_token"); err == nil {
				tokenStr = cookie
			}
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "login expired, please sign in again")
			c.Abort()
			return
		}

		if claims.Role == models.RoleStudent {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "teacher account required")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account not found")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "load account failed")
			}
			c.Abort()
			return
		}

		c.Set("currentUser", &user)
		c.Next()
	}
}
