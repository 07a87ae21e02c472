package gateway

import (
	"context"
	"errors"

	"site-builder/internal/domain/site"

	"gorm.io/gorm"
)

var ErrPageNotFound = errors.New("page not found")

// PublicPage is what a visitor sees: a published page of a published site
// with its published sections in order.
type PublicPage struct {
	Site     site.Site
	Page     site.Page
	Pages    []site.Page
	Sections []site.Section
}

// PublishedPage resolves siteSlug and pageSlug to a public page. An empty
// pageSlug selects the home page. Unpublished sites and pages are reported
// as not found.
func (g *Gateway) PublishedPage(ctx context.Context, siteSlug, pageSlug string) (PublicPage, error) {
	db := g.db.WithContext(ctx)
	var out PublicPage

	err := db.
		Preload("Socials", orderedItems).
		Preload("HeaderLinks", func(db *gorm.DB) *gorm.DB {
			return orderedItems(db.Where("parent_id IS NULL"))
		}).
		Preload("HeaderLinks.Children", orderedItems).
		First(&out.Site, "slug = ? AND published = ?", siteSlug, true).Error
	if missing(err) {
		return out, ErrSiteNotFound
	}
	if err != nil {
		return out, err
	}

	if err := sitePagesQuery(db, out.Site.ID).
		Where("published = ?", true).
		Order("position ASC").
		Find(&out.Pages).Error; err != nil {
		return out, err
	}

	found := false
	for _, p := range out.Pages {
		if (pageSlug == "" && p.Default) || (pageSlug != "" && p.Slug == pageSlug) {
			out.Page, found = p, true
			break
		}
	}
	if !found {
		return out, ErrPageNotFound
	}

	err = siteSectionsQuery(db, out.Site.ID).
		Where("page_id = ? AND published = ?", out.Page.ID, true).
		Preload("Items", orderedItems).
		Order("position ASC").Order("created_at ASC").
		Find(&out.Sections).Error
	return out, err
}
