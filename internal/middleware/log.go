package middleware

import (
	"bytes"
	"io"

	"github.com/admiralorbiter/DataDeckv2/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// sensitiveBodyPaths lists routes whose request bodies carry secrets.
// Their bodies are never copied into the audit row.
var sensitiveBodyPaths = map[string]bool{
	"/api/profile/password": true,
}

// AuditMiddleware records each authenticated teacher action. Response bodies
// are not captured; plaintext PINs travel only in responses and must never
// reach the audit table. Request bodies of routes carrying passwords are
// dropped for the same reason.
func AuditMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uint
		if v, ok := c.Get("currentUser"); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		// only record actions of logged-in accounts
		if userID == 0 {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if !sensitiveBodyPaths[path] && len(bodyBytes) > 0 && len(bodyBytes) < 2000 {
			action += " " + string(bodyBytes)
		}

		entry := models.AuditLog{
			UserID:    &userID,
			Method:    c.Request.Method,
			Path:      path,
			Action:    action,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}

		_ = db.Create(&entry).Error
	}
}
