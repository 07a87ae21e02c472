package gateway

import (
	"site-builder/internal/domain/site"

	"gorm.io/gorm"
)

func userSitesQuery(db *gorm.DB, ownerID uint) *gorm.DB {
	return db.Model(&site.Site{}).
		Where("owner_type = ? AND owner_id = ?", site.OwnerUser, ownerID)
}

func sitePagesQuery(db *gorm.DB, siteID string) *gorm.DB {
	return db.Model(&site.Page{}).
		Where("site_id = ?", siteID)
}

func siteSectionsQuery(db *gorm.DB, siteID string) *gorm.DB {
	return db.Model(&site.Section{}).
		Where("site_id = ?", siteID)
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}
