package gateway

import (
	"context"
	"errors"
	"time"

	"site-builder/internal/domain/site"
	"site-builder/internal/intent"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSiteName = "My site"
	homePageName    = "Home"
	homePageSlug    = "home"
)

// SaveSite merges p into the caller's site. Socials are matched by uuid
// and only existing ones are updated. A current edit page that is not a
// page of the site is ignored.
func (g *Gateway) SaveSite(ctx context.Context, sc Scope, p site.SitePatch) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s site.Site
		err := tx.Preload("Socials").First(&s, "id = ?", sc.SiteID).Error
		if missing(err) {
			g.skip(intent.SiteSave, sc.SiteID, "site not found")
			return nil
		}
		if err != nil {
			return err
		}

		prevPage := s.CurrentEditPage
		s.Apply(p)

		if s.CurrentEditPage != prevPage && s.CurrentEditPage != "" {
			ok, err := g.pageInSite(tx, sc.SiteID, s.CurrentEditPage)
			if err != nil {
				return err
			}
			if !ok {
				g.skip(intent.SiteSave, s.CurrentEditPage, "current page not in site")
				s.CurrentEditPage = prevPage
			}
		}

		if err := tx.Omit(clause.Associations).Save(&s).Error; err != nil {
			return err
		}

		for _, sp := range p.Socials {
			found := false
			for i := range s.Socials {
				if s.Socials[i].UUID != sp.UUID {
					continue
				}
				found = true
				if err := tx.Save(&s.Socials[i]).Error; err != nil {
					return err
				}
				break
			}
			if !found {
				g.skip(intent.SiteSave, sp.UUID, "social not in site")
			}
		}
		return nil
	})
}

// SaveHeaderLinks merges each link patch into the matching link of the site
// and each child patch into the matching child of that link. Only one level
// of children is walked; unknown uuids are skipped.
func (g *Gateway) SaveHeaderLinks(ctx context.Context, sc Scope, links []site.HeaderLinkPatch) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, lp := range links {
			ok, err := g.saveHeaderLink(tx, sc.SiteID, nil, lp)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			parent := lp.UUID
			for _, cp := range lp.Children {
				if _, err := g.saveHeaderLink(tx, sc.SiteID, &parent, cp); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (g *Gateway) saveHeaderLink(tx *gorm.DB, siteID string, parent *string, p site.HeaderLinkPatch) (bool, error) {
	if !validID(p.UUID) {
		g.skip(intent.HeaderLinksSave, p.UUID, "invalid uuid")
		return false, nil
	}

	q := tx.Where("site_id = ?", siteID)
	if parent != nil {
		q = q.Where("parent_id = ?", *parent)
	}

	var cur site.HeaderLink
	err := q.First(&cur, "uuid = ?", p.UUID).Error
	if missing(err) {
		g.skip(intent.HeaderLinksSave, p.UUID, "link not in site")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	cur.Apply(p)
	if err := tx.Omit(clause.Associations).Save(&cur).Error; err != nil {
		return false, err
	}
	return true, nil
}

// LoadTree reads the full editable state of the site. This is the source of
// truth an editor reloads from.
func (g *Gateway) LoadTree(ctx context.Context, sc Scope) (site.State, error) {
	return loadState(g.db.WithContext(ctx), sc.SiteID)
}

func loadState(db *gorm.DB, siteID string) (site.State, error) {
	var st site.State

	err := db.
		Preload("Socials", orderedItems).
		Preload("HeaderLinks", func(db *gorm.DB) *gorm.DB {
			return orderedItems(db.Where("parent_id IS NULL"))
		}).
		Preload("HeaderLinks.Children", orderedItems).
		First(&st.Site, "id = ?", siteID).Error
	if missing(err) {
		return st, ErrSiteNotFound
	}
	if err != nil {
		return st, err
	}

	if err := sitePagesQuery(db, siteID).
		Order("position ASC").Order("created_at ASC").
		Find(&st.Pages).Error; err != nil {
		return st, err
	}

	if err := siteSectionsQuery(db, siteID).
		Preload("Items", orderedItems).
		Order("position ASC").Order("created_at ASC").
		Find(&st.Sections).Error; err != nil {
		return st, err
	}

	return st, nil
}

// ListSites returns the sites owned by ownerID, newest first.
func (g *Gateway) ListSites(ctx context.Context, ownerID uint) ([]site.Site, error) {
	var sites []site.Site
	err := userSitesQuery(g.db.WithContext(ctx), ownerID).
		Order("created_at DESC").
		Find(&sites).Error
	return sites, err
}

// CreateSite creates an empty site for ownerID with a single home page that
// is also the current edit page.
func (g *Gateway) CreateSite(ctx context.Context, ownerID uint, name string) (site.State, error) {
	if name == "" {
		name = defaultSiteName
	}

	siteID := newID()
	pageID := newID()
	uid := ownerID

	st := site.State{
		Site: site.Site{
			ID:              siteID,
			OwnerType:       site.OwnerUser,
			OwnerID:         &uid,
			Slug:            site.SiteSlug(name, siteID),
			Name:            name,
			CurrentEditPage: pageID,
		},
		Pages: []site.Page{{
			ID:      pageID,
			SiteID:  siteID,
			Name:    homePageName,
			Slug:    homePageSlug,
			Default: true,
		}},
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertState(tx, st)
	})
	if err != nil {
		return site.State{}, err
	}

	g.log.WithField("site", siteID).WithField("owner", ownerID).Info("site created")
	return st, nil
}

// CopySite creates a site for ownerID from the active template slug. Every
// entity of the template site is copied with a fresh uuid.
func (g *Gateway) CopySite(ctx context.Context, ownerID uint, templateSlug, name string) (site.State, error) {
	var out site.State

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tmpl site.Template
		if err := tx.First(&tmpl, "slug = ? AND active = ?", templateSlug, true).Error; err != nil {
			if missing(err) {
				return ErrTemplateNotFound
			}
			return err
		}

		src, err := loadState(tx, tmpl.SiteID)
		if err != nil {
			if errors.Is(err, ErrSiteNotFound) {
				return ErrTemplateNotFound
			}
			return err
		}

		if name == "" {
			name = tmpl.Name
		}
		uid := ownerID
		out = cloneState(src)
		out.Site.OwnerType = site.OwnerUser
		out.Site.OwnerID = &uid
		out.Site.Name = name
		out.Site.Slug = site.SiteSlug(name, out.Site.ID)
		out.Site.Published = false

		return insertState(tx, out)
	})
	if err != nil {
		return site.State{}, err
	}

	g.log.WithFields(logrus.Fields{
		"site":     out.Site.ID,
		"owner":    ownerID,
		"template": templateSlug,
	}).Info("site copied from template")
	return out, nil
}

func (g *Gateway) pageInSite(tx *gorm.DB, siteID, pageID string) (bool, error) {
	if !validID(pageID) {
		return false, nil
	}
	var n int64
	err := sitePagesQuery(tx, siteID).Where("id = ?", pageID).Count(&n).Error
	return n > 0, err
}

// cloneState copies st with fresh uuids for every entity and references
// rewritten to match.
func cloneState(st site.State) site.State {
	siteID := newID()

	pageIDs := make(map[string]string, len(st.Pages))
	out := site.State{Site: st.Site}
	out.Site.ID = siteID
	out.Site.CreatedAt, out.Site.UpdatedAt = time.Time{}, time.Time{}
	out.Site.Header = site.MergeMap(nil, st.Site.Header)
	out.Site.Footer = site.MergeMap(nil, st.Site.Footer)
	out.Site.Socials = nil
	out.Site.HeaderLinks = nil

	for _, p := range st.Pages {
		np := p
		np.ID = newID()
		np.SiteID = siteID
		np.CreatedAt, np.UpdatedAt = time.Time{}, time.Time{}
		pageIDs[p.ID] = np.ID
		out.Pages = append(out.Pages, np)
	}
	out.Site.CurrentEditPage = pageIDs[st.Site.CurrentEditPage]
	if out.Site.CurrentEditPage == "" {
		for _, p := range out.Pages {
			if p.Default {
				out.Site.CurrentEditPage = p.ID
			}
		}
	}

	for _, s := range st.Sections {
		pageID, ok := pageIDs[s.PageID]
		if !ok {
			continue
		}
		out.Sections = append(out.Sections, cloneSection(s, siteID, pageID))
	}

	for _, so := range st.Site.Socials {
		so.UUID = newID()
		so.SiteID = siteID
		so.CreatedAt, so.UpdatedAt = time.Time{}, time.Time{}
		out.Site.Socials = append(out.Site.Socials, so)
	}

	for _, l := range st.Site.HeaderLinks {
		nl := l
		nl.UUID = newID()
		nl.SiteID = siteID
		nl.ParentID = nil
		nl.Children = nil
		nl.CreatedAt, nl.UpdatedAt = time.Time{}, time.Time{}
		for _, c := range l.Children {
			c.UUID = newID()
			c.SiteID = siteID
			parent := nl.UUID
			c.ParentID = &parent
			c.Children = nil
			c.CreatedAt, c.UpdatedAt = time.Time{}, time.Time{}
			nl.Children = append(nl.Children, c)
		}
		out.Site.HeaderLinks = append(out.Site.HeaderLinks, nl)
	}

	return out
}

// insertState writes a complete site: the site row, its socials and header
// links, pages, sections and items.
func insertState(tx *gorm.DB, st site.State) error {
	s := st.Site
	socials, links := s.Socials, s.HeaderLinks
	s.Socials, s.HeaderLinks = nil, nil

	if err := tx.Omit(clause.Associations).Create(&s).Error; err != nil {
		return err
	}
	if len(socials) > 0 {
		if err := tx.Create(&socials).Error; err != nil {
			return err
		}
	}
	for _, l := range links {
		children := l.Children
		l.Children = nil
		if err := tx.Omit(clause.Associations).Create(&l).Error; err != nil {
			return err
		}
		for _, c := range children {
			if err := tx.Omit(clause.Associations).Create(&c).Error; err != nil {
				return err
			}
		}
	}
	if len(st.Pages) > 0 {
		if err := tx.Create(&st.Pages).Error; err != nil {
			return err
		}
	}
	for _, sec := range st.Sections {
		if err := insertSection(tx, sec); err != nil {
			return err
		}
	}
	return nil
}
