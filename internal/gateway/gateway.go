// Package gateway applies editor intents to durable storage, scoped to the
// site the caller owns.
//
// Handlers follow one policy: a uuid that does not resolve inside the
// caller's site is a silent no-op (logged at debug level, nil error). Only
// storage failures are returned. Writes are last-write-wins; there is no
// version check.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"site-builder/internal/domain/site"
	"site-builder/internal/intent"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrSiteNotFound = errors.New("site not found")

type Gateway struct {
	db  *gorm.DB
	log *logrus.Entry
}

func New(db *gorm.DB) *Gateway {
	return &Gateway{
		db:  db,
		log: logrus.WithField("component", "gateway"),
	}
}

// Scope identifies the site every intent of a request is applied to, after
// ownership has been checked by ResolveSite.
type Scope struct {
	SiteID  string
	OwnerID uint
}

// ResolveSite returns the scope for siteID if ownerID owns it.
func (g *Gateway) ResolveSite(ctx context.Context, siteID string, ownerID uint) (Scope, error) {
	if !validID(siteID) || ownerID == 0 {
		return Scope{}, ErrSiteNotFound
	}

	var s site.Site
	err := userSitesQuery(g.db.WithContext(ctx), ownerID).
		Select("id").
		First(&s, "id = ?", siteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Scope{}, ErrSiteNotFound
		}
		return Scope{}, err
	}
	return Scope{SiteID: s.ID, OwnerID: ownerID}, nil
}

// Dispatch decodes env and runs the matching handler.
func (g *Gateway) Dispatch(ctx context.Context, sc Scope, env intent.Envelope) error {
	switch env.Name {
	case intent.SectionCreate:
		var p site.Section
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.CreateSection(ctx, sc, p)

	case intent.SectionSave:
		var p site.SectionPatch
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.SaveSection(ctx, sc, p)

	case intent.SectionSaveWithItems:
		var p intent.SectionWithItems
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.SaveSectionWithItems(ctx, sc, p.SectionPatch, p.Items)

	case intent.SectionDelete:
		var p intent.UUIDRef
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.DeleteSection(ctx, sc, p.UUID)

	case intent.SectionDeleteItem:
		var p intent.UUIDRef
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.DeleteItem(ctx, sc, p.UUID)

	case intent.SectionAddItem:
		var p intent.AddItem
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.AddItem(ctx, sc, p.SectionID, p.Item)

	case intent.SectionsSort:
		var p []site.Position
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.SortSections(ctx, sc, p)

	case intent.PageCreate:
		var p site.Page
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.CreatePage(ctx, sc, p)

	case intent.PageSave:
		var p site.PagePatch
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.SavePage(ctx, sc, p)

	case intent.PageDuplicate:
		var p intent.DuplicatePage
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.DuplicatePage(ctx, sc, p.Source, p.UUID, p.Name)

	case intent.PageDelete:
		var p intent.UUIDRef
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.DeletePage(ctx, sc, p.UUID)

	case intent.PageSetHome:
		var p intent.UUIDRef
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.SetHomePage(ctx, sc, p.UUID)

	case intent.SiteSave:
		var p site.SitePatch
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.SaveSite(ctx, sc, p)

	case intent.HeaderLinksSave:
		var p []site.HeaderLinkPatch
		if err := env.Decode(&p); err != nil {
			return err
		}
		return g.SaveHeaderLinks(ctx, sc, p)
	}

	return fmt.Errorf("%w: %q", intent.ErrUnknownIntent, env.Name)
}

// LocalEmitter applies intents in-process, for editors running next to the
// gateway (CLI tools, tests).
type LocalEmitter struct {
	gw    *Gateway
	scope Scope
}

func (g *Gateway) Emitter(sc Scope) *LocalEmitter {
	return &LocalEmitter{gw: g, scope: sc}
}

func (e *LocalEmitter) Emit(ctx context.Context, env intent.Envelope) error {
	return e.gw.Dispatch(ctx, e.scope, env)
}

func (g *Gateway) skip(name intent.Name, id, reason string) {
	g.log.WithFields(logrus.Fields{"intent": name, "uuid": id}).Debug("no-op: " + reason)
}

// validID reports whether s is a well-formed uuid. Malformed ids can never
// resolve, and postgres rejects them in uuid comparisons.
func validID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// missing reports whether err is a not-found lookup, which handlers treat
// as a no-op.
func missing(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
