package siteapi

import (
	"errors"

	"site-builder/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GET /templates/site
func ListSiteTemplates(c *gin.Context) {
	templates, err := gw().ListTemplates(c.Request.Context())
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to load templates"})
		return
	}

	out := GetTemplatesResponse{Templates: make([]TemplateDTO, 0, len(templates))}
	for _, t := range templates {
		out.Templates = append(out.Templates, TemplateDTO{ID: t.ID, Slug: t.Slug, Name: t.Name})
	}
	c.JSON(200, out)
}

// GET /templates/site/:slug
func GetSiteTemplate(c *gin.Context) {
	tmpl, st, err := gw().GetTemplate(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, gateway.ErrTemplateNotFound) {
			c.JSON(404, gin.H{"error": "Template not found"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to load template"})
		return
	}

	c.JSON(200, GetTemplateResponse{
		Template: TemplateDTO{ID: tmpl.ID, Slug: tmpl.Slug, Name: tmpl.Name},
		State:    st,
	})
}

// POST /admin/templates/site (admin), body is a YAML template file
func ImportSiteTemplate(c *gin.Context) {
	spec, err := gateway.ParseTemplate(c.Request.Body)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	tmpl, err := gw().ImportTemplate(c.Request.Context(), spec)
	if err != nil {
		if errors.Is(err, gateway.ErrTemplateExists) {
			c.JSON(409, gin.H{"error": "Template already exists"})
			return
		}
		logrus.WithError(err).WithField("template", spec.Slug).Error("import template")
		c.JSON(500, gin.H{"error": "Failed to import template"})
		return
	}
	c.JSON(201, TemplateDTO{ID: tmpl.ID, Slug: tmpl.Slug, Name: tmpl.Name})
}
