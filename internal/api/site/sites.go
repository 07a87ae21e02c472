package siteapi

import (
	"errors"
	"strings"

	"site-builder/config"
	"site-builder/internal/autosave"
	"site-builder/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GET /sites (auth)
func ListSites(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	sites, err := gw().ListSites(c.Request.Context(), userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to load sites"})
		return
	}

	out := ListSitesResponse{Sites: make([]SiteDTO, 0, len(sites))}
	for _, s := range sites {
		out.Sites = append(out.Sites, toSiteDTO(s))
	}
	c.JSON(200, out)
}

// POST /sites (auth, sanitized)
func CreateSite(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request"})
		return
	}
	name := strings.TrimSpace(req.Name)

	if req.Template != "" {
		copySite(c, userID, req.Template, name)
		return
	}

	st, err := gw().CreateSite(c.Request.Context(), userID, name)
	if err != nil {
		logrus.WithError(err).Error("create site")
		c.JSON(500, gin.H{"error": "Failed to create site"})
		return
	}
	c.JSON(201, GetSiteResponse{State: st, AutosaveDelayMS: autosaveDelayMS()})
}

// POST /templates/site/:slug/copy (auth)
func CopySiteFromTemplate(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	copySite(c, userID, c.Param("slug"), "")
}

func copySite(c *gin.Context, userID uint, slug, name string) {
	st, err := gw().CopySite(c.Request.Context(), userID, slug, name)
	if err != nil {
		if errors.Is(err, gateway.ErrTemplateNotFound) {
			c.JSON(404, gin.H{"error": "Template not found"})
			return
		}
		logrus.WithError(err).WithField("template", slug).Error("copy template")
		c.JSON(500, gin.H{"error": "Failed to copy template"})
		return
	}
	c.JSON(201, GetSiteResponse{State: st, AutosaveDelayMS: autosaveDelayMS()})
}

// GET /sites/:siteID (auth)
func GetSite(c *gin.Context) {
	sc, ok := mustSite(c)
	if !ok {
		return
	}

	st, err := gw().LoadTree(c.Request.Context(), sc)
	if err != nil {
		if errors.Is(err, gateway.ErrSiteNotFound) {
			c.JSON(404, gin.H{"error": "Site not found"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to load site"})
		return
	}
	c.JSON(200, GetSiteResponse{State: st, AutosaveDelayMS: autosaveDelayMS()})
}

func autosaveDelayMS() int64 {
	d := config.AUTOSAVE_DELAY
	if d <= 0 {
		d = autosave.DefaultDelay
	}
	return d.Milliseconds()
}
