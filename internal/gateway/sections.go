package gateway

import (
	"context"

	"site-builder/internal/domain/site"
	"site-builder/internal/intent"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateSection stores a section created by the editor. Resubmitting a uuid
// that already exists in the caller's site overwrites that row with the new
// payload, so retries never produce a second row. A uuid that exists in
// another site, or a page outside the caller's site, is a no-op.
func (g *Gateway) CreateSection(ctx context.Context, sc Scope, s site.Section) error {
	if !validID(s.UUID) || !validID(s.PageID) {
		g.skip(intent.SectionCreate, s.UUID, "invalid uuid")
		return nil
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pages int64
		if err := sitePagesQuery(tx, sc.SiteID).Where("id = ?", s.PageID).Count(&pages).Error; err != nil {
			return err
		}
		if pages == 0 {
			g.skip(intent.SectionCreate, s.UUID, "page not in site")
			return nil
		}

		items := s.Items
		s.Items = nil
		s.SiteID = sc.SiteID

		var cur site.Section
		err := tx.Select("uuid", "site_id", "created_at").First(&cur, "uuid = ?", s.UUID).Error
		switch {
		case err == nil && cur.SiteID != sc.SiteID:
			g.skip(intent.SectionCreate, s.UUID, "uuid owned by another site")
			return nil
		case err == nil:
			s.CreatedAt = cur.CreatedAt
			if err := tx.Omit(clause.Associations).Save(&s).Error; err != nil {
				return err
			}
		case missing(err):
			if err := tx.Omit(clause.Associations).Create(&s).Error; err != nil {
				return err
			}
		default:
			return err
		}

		for _, it := range items {
			if err := g.putItem(tx, s.UUID, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSection merges p into the section it names.
func (g *Gateway) SaveSection(ctx context.Context, sc Scope, p site.SectionPatch) error {
	return g.SaveSectionWithItems(ctx, sc, p, nil)
}

// SaveSectionWithItems merges p into the section, then each item patch into
// the matching item of that section. Items that do not match are skipped,
// never created.
func (g *Gateway) SaveSectionWithItems(ctx context.Context, sc Scope, p site.SectionPatch, items []site.ItemPatch) error {
	name := intent.SectionSave
	if items != nil {
		name = intent.SectionSaveWithItems
	}
	if !validID(p.UUID) {
		g.skip(name, p.UUID, "invalid uuid")
		return nil
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur site.Section
		err := siteSectionsQuery(tx, sc.SiteID).First(&cur, "uuid = ?", p.UUID).Error
		if missing(err) {
			g.skip(name, p.UUID, "section not in site")
			return nil
		}
		if err != nil {
			return err
		}

		cur.Apply(p)
		if err := tx.Omit(clause.Associations).Save(&cur).Error; err != nil {
			return err
		}

		for _, ip := range items {
			if !validID(ip.UUID) {
				g.skip(name, ip.UUID, "invalid item uuid")
				continue
			}
			var it site.SectionItem
			err := tx.Where("section_id = ?", cur.UUID).First(&it, "uuid = ?", ip.UUID).Error
			if missing(err) {
				g.skip(name, ip.UUID, "item not in section")
				continue
			}
			if err != nil {
				return err
			}
			it.Apply(ip)
			if err := tx.Save(&it).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSection removes the section and its items.
func (g *Gateway) DeleteSection(ctx context.Context, sc Scope, uuid string) error {
	if !validID(uuid) {
		g.skip(intent.SectionDelete, uuid, "invalid uuid")
		return nil
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := siteSectionsQuery(tx, sc.SiteID).Where("uuid = ?", uuid).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			g.skip(intent.SectionDelete, uuid, "section not in site")
			return nil
		}

		if err := tx.Where("section_id = ?", uuid).Delete(&site.SectionItem{}).Error; err != nil {
			return err
		}
		return tx.Where("uuid = ? AND site_id = ?", uuid, sc.SiteID).Delete(&site.Section{}).Error
	})
}

// DeleteItem removes an item if its parent section belongs to the caller's
// site.
func (g *Gateway) DeleteItem(ctx context.Context, sc Scope, uuid string) error {
	if !validID(uuid) {
		g.skip(intent.SectionDeleteItem, uuid, "invalid uuid")
		return nil
	}

	owned := siteSectionsQuery(g.db, sc.SiteID).Select("uuid")
	res := g.db.WithContext(ctx).
		Where("uuid = ? AND section_id IN (?)", uuid, owned).
		Delete(&site.SectionItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		g.skip(intent.SectionDeleteItem, uuid, "item not in site")
	}
	return nil
}

// AddItem stores a new item under an owned section. Re-adding the same uuid
// overwrites it.
func (g *Gateway) AddItem(ctx context.Context, sc Scope, sectionUUID string, it site.SectionItem) error {
	if !validID(sectionUUID) || !validID(it.UUID) {
		g.skip(intent.SectionAddItem, it.UUID, "invalid uuid")
		return nil
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := siteSectionsQuery(tx, sc.SiteID).Where("uuid = ?", sectionUUID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			g.skip(intent.SectionAddItem, it.UUID, "section not in site")
			return nil
		}
		return g.putItem(tx, sectionUUID, it)
	})
}

// SortSections writes each position. Every pair is checked against the
// caller's site on its own; pairs that do not resolve are skipped.
func (g *Gateway) SortSections(ctx context.Context, sc Scope, order []site.Position) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range order {
			if !validID(p.UUID) {
				g.skip(intent.SectionsSort, p.UUID, "invalid uuid")
				continue
			}
			res := siteSectionsQuery(tx, sc.SiteID).
				Where("uuid = ?", p.UUID).
				Update("position", p.Position)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				g.skip(intent.SectionsSort, p.UUID, "section not in site")
			}
		}
		return nil
	})
}

// putItem inserts or overwrites an item of sectionUUID. An item uuid that
// already belongs to a different section is left alone.
func (g *Gateway) putItem(tx *gorm.DB, sectionUUID string, it site.SectionItem) error {
	if !validID(it.UUID) {
		g.skip(intent.SectionAddItem, it.UUID, "invalid item uuid")
		return nil
	}
	it.SectionID = sectionUUID

	var cur site.SectionItem
	err := tx.Select("uuid", "section_id", "created_at").First(&cur, "uuid = ?", it.UUID).Error
	switch {
	case err == nil && cur.SectionID != sectionUUID:
		g.skip(intent.SectionAddItem, it.UUID, "item owned by another section")
		return nil
	case err == nil:
		it.CreatedAt = cur.CreatedAt
		return tx.Save(&it).Error
	case missing(err):
		return tx.Create(&it).Error
	default:
		return err
	}
}
