package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionKey    = "session_id"
	SessionHeader = "X-Session-ID"
	SessionCookie = "foodie_session"
)

// Session resolves the cart session from the X-Session-ID header or the
// session cookie. A request without one gets a fresh id, returned in both.
func Session(ttlSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(SessionHeader)
		if sid == "" {
			if ck, err := c.Cookie(SessionCookie); err == nil {
				sid = ck
			}
		}
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
		}
		c.Set(SessionKey, sid)
		c.Header(SessionHeader, sid)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sid, ttlSeconds, "/", "", false, true)
		c.Next()
	}
}

// GetSession returns the session id set by Session.
func GetSession(c *gin.Context) string {
	return c.GetString(SessionKey)
}
