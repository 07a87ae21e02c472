package gateway

import (
	"context"

	"site-builder/internal/domain/site"
	"site-builder/internal/intent"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePage adds a page at the end of the site. The slug is normalized and
// made unique within the site; the first page of a site becomes its home
// page and its current edit page. A uuid that already exists is a no-op.
func (g *Gateway) CreatePage(ctx context.Context, sc Scope, p site.Page) error {
	if !validID(p.ID) {
		g.skip(intent.PageCreate, p.ID, "invalid uuid")
		return nil
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&site.Page{}).Where("id = ?", p.ID).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			g.skip(intent.PageCreate, p.ID, "page exists")
			return nil
		}

		var count int64
		if err := sitePagesQuery(tx, sc.SiteID).Count(&count).Error; err != nil {
			return err
		}

		if p.Name == "" {
			p.Name = "Untitled"
		}
		slug, err := site.UniquePageSlug(tx, sc.SiteID, pageSlugBase(p.Slug, p.Name))
		if err != nil {
			return err
		}

		p.SiteID = sc.SiteID
		p.Slug = slug
		p.Position = int(count)
		p.Default = count == 0
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		if count == 0 {
			return tx.Model(&site.Site{}).
				Where("id = ? AND (current_edit_page = '' OR current_edit_page IS NULL)", sc.SiteID).
				Update("current_edit_page", p.ID).Error
		}
		return nil
	})
}

// SavePage merges p into the page. A changed slug is normalized and made
// unique within the site.
func (g *Gateway) SavePage(ctx context.Context, sc Scope, p site.PagePatch) error {
	if !validID(p.UUID) {
		g.skip(intent.PageSave, p.UUID, "invalid uuid")
		return nil
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur site.Page
		err := sitePagesQuery(tx, sc.SiteID).First(&cur, "id = ?", p.UUID).Error
		if missing(err) {
			g.skip(intent.PageSave, p.UUID, "page not in site")
			return nil
		}
		if err != nil {
			return err
		}

		oldSlug := cur.Slug
		cur.Apply(p)

		if p.Slug != nil {
			base := site.MakeSlug(*p.Slug, oldSlug)
			if base == oldSlug {
				cur.Slug = oldSlug
			} else {
				slug, err := site.UniquePageSlug(tx, sc.SiteID, base)
				if err != nil {
					return err
				}
				cur.Slug = slug
			}
		}

		return tx.Save(&cur).Error
	})
}

// DuplicatePage copies a page with all its sections and items. Copies get
// fresh uuids, a unique slug and go to the end of the site, unpublished.
func (g *Gateway) DuplicatePage(ctx context.Context, sc Scope, source, copyID, name string) error {
	if copyID == "" {
		copyID = newID()
	}
	if !validID(source) || !validID(copyID) {
		g.skip(intent.PageDuplicate, source, "invalid uuid")
		return nil
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var src site.Page
		err := sitePagesQuery(tx, sc.SiteID).First(&src, "id = ?", source).Error
		if missing(err) {
			g.skip(intent.PageDuplicate, source, "page not in site")
			return nil
		}
		if err != nil {
			return err
		}

		var exists int64
		if err := tx.Model(&site.Page{}).Where("id = ?", copyID).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			g.skip(intent.PageDuplicate, copyID, "page exists")
			return nil
		}

		var count int64
		if err := sitePagesQuery(tx, sc.SiteID).Count(&count).Error; err != nil {
			return err
		}
		if name == "" {
			name = src.Name + " (copy)"
		}
		slug, err := site.UniquePageSlug(tx, sc.SiteID, site.MakeSlug(name, "page"))
		if err != nil {
			return err
		}

		dup := site.Page{
			ID:       copyID,
			SiteID:   sc.SiteID,
			Name:     name,
			Slug:     slug,
			Position: int(count),
		}
		if err := tx.Create(&dup).Error; err != nil {
			return err
		}

		var sections []site.Section
		if err := siteSectionsQuery(tx, sc.SiteID).
			Where("page_id = ?", src.ID).
			Preload("Items", orderedItems).
			Order("position ASC").
			Find(&sections).Error; err != nil {
			return err
		}
		for _, s := range sections {
			if err := insertSection(tx, cloneSection(s, sc.SiteID, dup.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePage removes the page with its sections and items. If it was the
// home page, the first remaining page by position becomes home. The site's
// current edit page is cleared when it pointed at the deleted page.
func (g *Gateway) DeletePage(ctx context.Context, sc Scope, pageID string) error {
	if !validID(pageID) {
		g.skip(intent.PageDelete, pageID, "invalid uuid")
		return nil
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pg site.Page
		err := sitePagesQuery(tx, sc.SiteID).First(&pg, "id = ?", pageID).Error
		if missing(err) {
			g.skip(intent.PageDelete, pageID, "page not in site")
			return nil
		}
		if err != nil {
			return err
		}

		var sectionIDs []string
		if err := siteSectionsQuery(tx, sc.SiteID).
			Where("page_id = ?", pageID).
			Pluck("uuid", &sectionIDs).Error; err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			if err := tx.Where("section_id IN ?", sectionIDs).Delete(&site.SectionItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("uuid IN ?", sectionIDs).Delete(&site.Section{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&pg).Error; err != nil {
			return err
		}

		if pg.Default {
			var next site.Page
			err := sitePagesQuery(tx, sc.SiteID).
				Order("position ASC").Order("created_at ASC").
				First(&next).Error
			switch {
			case err == nil:
				if err := tx.Model(&next).Update("is_default", true).Error; err != nil {
					return err
				}
			case !missing(err):
				return err
			}
		}

		return tx.Model(&site.Site{}).
			Where("id = ? AND current_edit_page = ?", sc.SiteID, pageID).
			Update("current_edit_page", "").Error
	})
}

// SetHomePage makes pageID the only default page of the site. The flag is
// rewritten for every page of the site in one statement, guarded by the
// target being one of them.
func (g *Gateway) SetHomePage(ctx context.Context, sc Scope, pageID string) error {
	if !validID(pageID) {
		g.skip(intent.PageSetHome, pageID, "invalid uuid")
		return nil
	}

	db := g.db.WithContext(ctx)
	target := db.Model(&site.Page{}).Select("1").Where("id = ? AND site_id = ?", pageID, sc.SiteID)

	res := sitePagesQuery(db, sc.SiteID).
		Where("EXISTS (?)", target).
		Update("is_default", gorm.Expr("(id = ?)", pageID))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		g.skip(intent.PageSetHome, pageID, "page not in site")
	}
	return nil
}

func pageSlugBase(slug, name string) string {
	if s := site.MakeSlug(slug, ""); s != "" {
		return s
	}
	return site.MakeSlug(name, "page")
}

// cloneSection returns a copy of s with fresh uuids for the section and its
// items, placed on pageID of siteID.
func cloneSection(s site.Section, siteID, pageID string) site.Section {
	out := site.Section{
		UUID:            newID(),
		SiteID:          siteID,
		PageID:          pageID,
		Type:            s.Type,
		Position:        s.Position,
		Published:       s.Published,
		Content:         site.MergeMap(nil, s.Content),
		Settings:        site.MergeMap(nil, s.Settings),
		SectionSettings: s.SectionSettings,
		Form:            site.MergeMap(nil, s.Form),
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, site.SectionItem{
			UUID:      newID(),
			SectionID: out.UUID,
			Position:  it.Position,
			Content:   site.MergeMap(nil, it.Content),
			Settings:  site.MergeMap(nil, it.Settings),
		})
	}
	return out
}

func insertSection(tx *gorm.DB, s site.Section) error {
	items := s.Items
	s.Items = nil
	if err := tx.Omit(clause.Associations).Create(&s).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}
