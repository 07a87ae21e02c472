package editor

import (
	"context"
	"time"

	"site-builder/internal/autosave"
	"site-builder/internal/clock"
	"site-builder/internal/domain/site"
	"site-builder/internal/intent"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Emitter delivers an intent to the server. Delivery is fire-and-forget
// from the tree's point of view: local state is never rolled back.
type Emitter interface {
	Emit(ctx context.Context, env intent.Envelope) error
}

type EmitterFunc func(ctx context.Context, env intent.Envelope) error

func (f EmitterFunc) Emit(ctx context.Context, env intent.Envelope) error { return f(ctx, env) }

type SessionOptions struct {
	Clock         clock.Clock
	AutosaveDelay time.Duration
}

// Session is one user's editing context for one site. Each method mutates
// the tree first and then emits the matching intent; site-level mutations
// are debounced through the autosave scheduler, which reads the site when
// the save goes out.
type Session struct {
	tree     *Tree
	emitter  Emitter
	autosave *autosave.Scheduler[struct{}]
	log      *logrus.Entry
}

func NewSession(snap site.State, emitter Emitter, opts SessionOptions) *Session {
	s := &Session{
		tree:    NewTree(snap),
		emitter: emitter,
		log:     logrus.WithFields(logrus.Fields{"component": "editor", "site": snap.Site.ID}),
	}
	s.autosave = autosave.New(opts.Clock, opts.AutosaveDelay, func(ctx context.Context, _ struct{}) error {
		return s.emit(ctx, intent.SiteSave, s.tree.Site().Snapshot())
	})
	return s
}

func (s *Session) Tree() *Tree { return s.tree }

// NewUUID returns a fresh client-side identifier.
func NewUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// InsertSectionAfter inserts sec after afterUUID and emits section.create
// for it plus sections.sort for the siblings that moved.
func (s *Session) InsertSectionAfter(ctx context.Context, afterUUID string, sec site.Section) (site.Section, error) {
	if sec.UUID == "" {
		sec.UUID = NewUUID()
	}
	before := s.positions(afterUUID)

	stored, ok := s.tree.InsertSectionAfter(afterUUID, sec)
	if !ok {
		return stored, nil
	}
	if err := s.emitCreate(ctx, stored.UUID); err != nil {
		return stored, err
	}

	var moved []site.Position
	for _, cur := range s.tree.SectionsForPage(stored.PageID) {
		if cur.UUID == stored.UUID {
			continue
		}
		if prev, ok := before[cur.UUID]; ok && prev != cur.Position {
			moved = append(moved, site.Position{UUID: cur.UUID, Position: cur.Position})
		}
	}
	if len(moved) == 0 {
		return stored, nil
	}
	return stored, s.emit(ctx, intent.SectionsSort, moved)
}

func (s *Session) AppendSection(ctx context.Context, sec site.Section) (site.Section, error) {
	if sec.UUID == "" {
		sec.UUID = NewUUID()
	}
	stored, ok := s.tree.AppendSection(sec)
	if !ok {
		return stored, nil
	}
	return stored, s.emitCreate(ctx, stored.UUID)
}

func (s *Session) Reorder(ctx context.Context, pageID string, uuids []string) error {
	changed := s.tree.Reorder(pageID, uuids)
	if len(changed) == 0 {
		return nil
	}
	return s.emit(ctx, intent.SectionsSort, changed)
}

func (s *Session) RemoveSection(ctx context.Context, uuid string) error {
	if !s.tree.RemoveSection(uuid) {
		return nil
	}
	return s.emit(ctx, intent.SectionDelete, intent.UUIDRef{UUID: uuid})
}

func (s *Session) UpdateSection(ctx context.Context, p site.SectionPatch) error {
	if !s.tree.UpdateSection(p.UUID, p) {
		return nil
	}
	return s.emit(ctx, intent.SectionSave, p)
}

// UpdateSectionWithItems merges p and the item patches, then emits
// section.saveWithItems. Items unknown to the tree are still sent; the
// server skips them.
func (s *Session) UpdateSectionWithItems(ctx context.Context, p site.SectionPatch, items []site.ItemPatch) error {
	if !s.tree.UpdateSection(p.UUID, p) {
		return nil
	}
	for _, ip := range items {
		s.tree.UpdateItem(ip)
	}
	return s.emit(ctx, intent.SectionSaveWithItems, intent.SectionWithItems{SectionPatch: p, Items: items})
}

func (s *Session) AddItem(ctx context.Context, sectionUUID string, it site.SectionItem) (site.SectionItem, error) {
	if it.UUID == "" {
		it.UUID = NewUUID()
	}
	stored, ok := s.tree.AddItem(sectionUUID, it)
	if !ok {
		return stored, nil
	}
	return stored, s.emit(ctx, intent.SectionAddItem, intent.AddItem{SectionID: sectionUUID, Item: stored})
}

func (s *Session) RemoveItem(ctx context.Context, uuid string) error {
	if !s.tree.RemoveItem(uuid) {
		return nil
	}
	return s.emit(ctx, intent.SectionDeleteItem, intent.UUIDRef{UUID: uuid})
}

func (s *Session) AddPage(ctx context.Context, p site.Page) (site.Page, error) {
	if p.ID == "" {
		p.ID = NewUUID()
	}
	stored := s.tree.AddPage(p)
	return stored, s.emit(ctx, intent.PageCreate, stored)
}

func (s *Session) UpdatePage(ctx context.Context, p site.PagePatch) error {
	if !s.tree.UpdatePage(p) {
		return nil
	}
	return s.emit(ctx, intent.PageSave, p)
}

func (s *Session) RemovePage(ctx context.Context, pageID string) error {
	if !s.tree.RemovePage(pageID) {
		return nil
	}
	return s.emit(ctx, intent.PageDelete, intent.UUIDRef{UUID: pageID})
}

func (s *Session) SetHome(ctx context.Context, pageID string) error {
	if !s.tree.SetHome(pageID) {
		return nil
	}
	return s.emit(ctx, intent.PageSetHome, intent.UUIDRef{UUID: pageID})
}

func (s *Session) SaveHeaderLinks(ctx context.Context, links []site.HeaderLinkPatch) error {
	return s.emit(ctx, intent.HeaderLinksSave, links)
}

// MutateSite merges p into the site and schedules an autosave of the whole
// site state.
func (s *Session) MutateSite(p site.SitePatch) {
	s.tree.MutateSite(p)
	s.autosave.Schedule(struct{}{})
}

// SetCurrentPage switches the page being edited. It is a site mutation and
// goes through autosave.
func (s *Session) SetCurrentPage(pageID string) {
	if s.tree.SetCurrentPage(pageID) {
		s.autosave.Schedule(struct{}{})
	}
}

// AutosavePending reports whether a site save is waiting.
func (s *Session) AutosavePending() bool { return s.autosave.Pending() }

// Close flushes a pending autosave.
func (s *Session) Close(ctx context.Context) error {
	return s.autosave.Flush(ctx)
}

func (s *Session) emitCreate(ctx context.Context, uuid string) error {
	full, _ := s.tree.Section(uuid)
	return s.emit(ctx, intent.SectionCreate, full)
}

func (s *Session) emit(ctx context.Context, name intent.Name, payload any) error {
	env, err := intent.New(name, payload)
	if err != nil {
		return err
	}
	if err := s.emitter.Emit(ctx, env); err != nil {
		s.log.WithError(err).WithField("intent", name).Warn("emit failed")
		return err
	}
	return nil
}

// positions returns the current position of every section on the page of
// sectionUUID.
func (s *Session) positions(sectionUUID string) map[string]int {
	sec, ok := s.tree.Section(sectionUUID)
	if !ok {
		return nil
	}
	out := map[string]int{}
	for _, cur := range s.tree.SectionsForPage(sec.PageID) {
		out[cur.UUID] = cur.Position
	}
	return out
}
