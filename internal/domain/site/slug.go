package site

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

/*
	Slug helpers
	------------
	- Responsible ONLY for:
	  • generating slugs
	  • finding a free one within a site
	  • building public URLs
	- No ownership logic here
*/

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug generates a URL-safe slug from a display name.
// Example: "About Us!" -> "about-us"
func MakeSlug(name, fallback string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = fallback
	}
	return base
}

// UniquePageSlug returns base, or base-2, base-3, ... whichever is not yet
// used by another page of the site.
func UniquePageSlug(db *gorm.DB, siteID, base string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("db is nil")
	}

	var taken []string
	if err := db.Model(&Page{}).
		Where("site_id = ? AND (slug = ? OR slug LIKE ?)", siteID, base, base+"-%").
		Pluck("slug", &taken).Error; err != nil {
		return "", err
	}

	used := make(map[string]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}

	slug := base
	for n := 2; used[slug]; n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return slug, nil
}

// SiteSlug derives the public slug of a site from its name and id.
// Example: ("John's Studio", "...-5b1e9c3f0a12") -> "johns-studio-9c3f0a12"
func SiteSlug(name, id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[len(short)-8:]
	}
	return MakeSlug(name, "site") + "-" + short
}

// BuildPublicURL builds the public site URL from a slug.
// Example: "john-doe-32" -> "https://john-doe-32.yourplatform.com"
func BuildPublicURL(slug string) string {
	return "https://" + slug + ".yourplatform.com"
}
