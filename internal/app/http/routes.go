package routes

import (
	siteapi "site-builder/internal/api/site"
	"site-builder/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/templates/site", siteapi.ListSiteTemplates)
	r.GET("/templates/site/:slug", siteapi.GetSiteTemplate)

	r.GET("/public/:siteSlug", siteapi.PublicPage)
	r.GET("/public/:siteSlug/:pageSlug", siteapi.PublicPage)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())

	auth.GET("/sites", siteapi.ListSites)
	auth.POST("/sites", middleware.SanitizeAndCleanInputMiddleware(), siteapi.CreateSite)
	auth.POST("/templates/site/:slug/copy", siteapi.CopySiteFromTemplate)

	// Intent payloads are stored as sent; public renders clean them.
	auth.GET("/sites/:siteID", siteapi.GetSite)
	auth.POST("/sites/:siteID/intents", siteapi.PostIntent)
	auth.POST("/sites/:siteID/intents/batch", siteapi.PostIntentBatch)
	auth.GET("/sites/:siteID/ws", siteapi.IntentsWS)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.POST("/templates/site", siteapi.ImportSiteTemplate)
}
