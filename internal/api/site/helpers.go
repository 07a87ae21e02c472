package siteapi

import (
	"errors"

	"site-builder/database"
	"site-builder/internal/gateway"
	"site-builder/internal/intent"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func gw() *gateway.Gateway {
	return gateway.New(database.DB)
}

func mustUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		c.JSON(401, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	uid, ok := v.(uint)
	if !ok || uid == 0 {
		c.JSON(401, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return uid, true
}

// mustSite resolves :siteID against the caller. Sites of other users are
// reported as not found.
func mustSite(c *gin.Context) (gateway.Scope, bool) {
	userID, ok := mustUserID(c)
	if !ok {
		return gateway.Scope{}, false
	}

	sc, err := gw().ResolveSite(c.Request.Context(), c.Param("siteID"), userID)
	if err != nil {
		if errors.Is(err, gateway.ErrSiteNotFound) {
			c.JSON(404, gin.H{"error": "Site not found"})
			return gateway.Scope{}, false
		}
		logrus.WithError(err).Error("resolve site")
		c.JSON(500, gin.H{"error": "Failed to load site"})
		return gateway.Scope{}, false
	}
	return sc, true
}

// intentStatus maps a dispatch error to an HTTP status.
func intentStatus(err error) int {
	if errors.Is(err, intent.ErrUnknownIntent) || errors.Is(err, intent.ErrBadPayload) {
		return 400
	}
	return 500
}

// intentError is the message returned to the client. Storage errors are not
// passed through.
func intentError(err error) string {
	if intentStatus(err) == 400 {
		return err.Error()
	}
	return "Failed to apply intent"
}
