package siteapi

import (
	"errors"

	"site-builder/internal/domain/site"
	"site-builder/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

var ugc = bluemonday.UGCPolicy()

// GET /public/:siteSlug and /public/:siteSlug/:pageSlug
func PublicPage(c *gin.Context) {
	pg, err := gw().PublishedPage(c.Request.Context(), c.Param("siteSlug"), c.Param("pageSlug"))
	if err != nil {
		if errors.Is(err, gateway.ErrSiteNotFound) || errors.Is(err, gateway.ErrPageNotFound) {
			c.JSON(404, gin.H{"error": "Page not found"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to load page"})
		return
	}

	c.JSON(200, renderPublic(pg))
}

// renderPublic converts a page into its public form. Every string a visitor
// will see goes through the UGC policy; section content is decoded into its
// typed body after cleaning.
func renderPublic(pg gateway.PublicPage) PublicPageResponse {
	out := PublicPageResponse{
		Site:        toSiteDTO(pg.Site),
		Header:      cleanMap(pg.Site.Header),
		Footer:      cleanMap(pg.Site.Footer),
		Socials:     make([]site.Social, 0, len(pg.Site.Socials)),
		HeaderLinks: cleanLinks(pg.Site.HeaderLinks),
		Nav:         make([]PublicNavDTO, 0, len(pg.Pages)),
		Page:        PublicNavDTO{Name: ugc.Sanitize(pg.Page.Name), Slug: pg.Page.Slug, Home: pg.Page.Default},
		Sections:    make([]PublicSectionDTO, 0, len(pg.Sections)),
	}
	out.Site.Name = ugc.Sanitize(out.Site.Name)

	for _, so := range pg.Site.Socials {
		so.Platform = ugc.Sanitize(so.Platform)
		so.URL = ugc.Sanitize(so.URL)
		out.Socials = append(out.Socials, so)
	}
	for _, p := range pg.Pages {
		out.Nav = append(out.Nav, PublicNavDTO{Name: ugc.Sanitize(p.Name), Slug: p.Slug, Home: p.Default})
	}

	for _, s := range pg.Sections {
		body, err := site.DecodeBody(s.Type, cleanMap(s.Content))
		if err != nil {
			logrus.WithError(err).WithField("section", s.UUID).Warn("section content does not match its type")
			body = site.Unknown{Type: s.Type, Raw: cleanMap(s.Content)}
		}

		items := make([]site.SectionItem, 0, len(s.Items))
		for _, it := range s.Items {
			it.Content = cleanMap(it.Content)
			it.Settings = cleanMap(it.Settings)
			items = append(items, it)
		}

		out.Sections = append(out.Sections, PublicSectionDTO{
			UUID:            s.UUID,
			Type:            s.Type,
			Body:            body,
			Settings:        cleanMap(s.Settings),
			SectionSettings: s.SectionSettings.Data(),
			Items:           items,
		})
	}
	return out
}

func cleanMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cleanValue(v)
	}
	return out
}

func cleanValue(v any) any {
	switch t := v.(type) {
	case string:
		return ugc.Sanitize(t)
	case map[string]any:
		return cleanMap(t)
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cleanValue(inner)
		}
		return out
	default:
		return v
	}
}

func cleanLinks(links []site.HeaderLink) []site.HeaderLink {
	out := make([]site.HeaderLink, 0, len(links))
	for _, l := range links {
		l.Title = ugc.Sanitize(l.Title)
		l.URL = ugc.Sanitize(l.URL)
		l.Children = cleanLinks(l.Children)
		out = append(out, l)
	}
	return out
}
