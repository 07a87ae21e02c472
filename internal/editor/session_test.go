package editor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"site-builder/database"
	"site-builder/internal/clock"
	"site-builder/internal/domain/site"
	"site-builder/internal/gateway"
	"site-builder/internal/intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type recorder struct {
	sent []intent.Envelope
	err  error
}

func (r *recorder) emitter() EmitterFunc {
	return func(_ context.Context, env intent.Envelope) error {
		r.sent = append(r.sent, env)
		return r.err
	}
}

func (r *recorder) names() []intent.Name {
	out := make([]intent.Name, len(r.sent))
	for i, env := range r.sent {
		out[i] = env.Name
	}
	return out
}

func newTestSession(t *testing.T, delay time.Duration, sections ...site.Section) (*Session, *recorder, *clock.Fake) {
	t.Helper()
	rec := &recorder{}
	fc := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	st := site.State{
		Site:     site.Site{ID: "site-1", Name: "Studio", CurrentEditPage: "p1"},
		Pages:    []site.Page{{ID: "p1", Name: "Home", Slug: "home", Default: true}, {ID: "p2", Name: "About", Slug: "about", Position: 1}},
		Sections: sections,
	}
	return NewSession(st, rec.emitter(), SessionOptions{Clock: fc, AutosaveDelay: delay}), rec, fc
}

func TestSessionInsertEmitsCreateThenSort(t *testing.T) {
	s, rec, _ := newTestSession(t, time.Second, sec("a", "p1", 0), sec("b", "p1", 1), sec("c", "p1", 2))
	ctx := context.Background()

	got, err := s.InsertSectionAfter(ctx, "a", site.Section{Type: site.KindHero})
	require.NoError(t, err)
	assert.NotEmpty(t, got.UUID)
	assert.Equal(t, 1, got.Position)

	require.Equal(t, []intent.Name{intent.SectionCreate, intent.SectionsSort}, rec.names())

	var created site.Section
	require.NoError(t, rec.sent[0].Decode(&created))
	assert.Equal(t, got.UUID, created.UUID)
	assert.Equal(t, "p1", created.PageID)
	assert.Equal(t, 1, created.Position)

	var moved []site.Position
	require.NoError(t, rec.sent[1].Decode(&moved))
	assert.Equal(t, []site.Position{{UUID: "b", Position: 2}, {UUID: "c", Position: 3}}, moved)
}

func TestSessionInsertAtEndSkipsSort(t *testing.T) {
	s, rec, _ := newTestSession(t, time.Second, sec("a", "p1", 0))

	_, err := s.InsertSectionAfter(context.Background(), "a", site.Section{UUID: "b"})
	require.NoError(t, err)
	assert.Equal(t, []intent.Name{intent.SectionCreate}, rec.names())
}

func TestSessionMissingTargetsEmitNothing(t *testing.T) {
	s, rec, _ := newTestSession(t, time.Second, sec("a", "p1", 0))
	ctx := context.Background()

	_, err := s.InsertSectionAfter(ctx, "ghost", site.Section{})
	require.NoError(t, err)
	require.NoError(t, s.RemoveSection(ctx, "ghost"))
	require.NoError(t, s.UpdateSection(ctx, site.SectionPatch{UUID: "ghost"}))
	_, err = s.AddItem(ctx, "ghost", site.SectionItem{})
	require.NoError(t, err)
	require.NoError(t, s.RemovePage(ctx, "ghost"))
	require.NoError(t, s.SetHome(ctx, "ghost"))
	require.NoError(t, s.Reorder(ctx, "p1", []string{"a"}))

	assert.Empty(t, rec.sent)
}

func TestSessionKeepsLocalStateOnEmitError(t *testing.T) {
	s, rec, _ := newTestSession(t, time.Second, sec("a", "p1", 0))
	rec.err = errors.New("offline")

	err := s.RemoveSection(context.Background(), "a")
	assert.EqualError(t, err, "offline")

	_, ok := s.Tree().Section("a")
	assert.False(t, ok)
}

func TestSessionAutosaveDebouncesSiteMutations(t *testing.T) {
	s, rec, fc := newTestSession(t, 2*time.Second)

	title := func(v string) site.SitePatch { return site.SitePatch{Name: &v} }
	s.MutateSite(title("One"))
	fc.Advance(time.Second)
	s.MutateSite(title("Two"))
	s.SetCurrentPage("p2")
	assert.True(t, s.AutosavePending())

	fc.Advance(1999 * time.Millisecond)
	assert.Empty(t, rec.sent)

	fc.Advance(time.Millisecond)
	require.Equal(t, []intent.Name{intent.SiteSave}, rec.names())
	assert.False(t, s.AutosavePending())

	var saved site.SitePatch
	require.NoError(t, rec.sent[0].Decode(&saved))
	require.NotNil(t, saved.Name)
	assert.Equal(t, "Two", *saved.Name)
	require.NotNil(t, saved.CurrentEditPage)
	assert.Equal(t, "p2", *saved.CurrentEditPage)
}

func TestSessionAutosaveCarriesStateAtFireTime(t *testing.T) {
	s, rec, fc := newTestSession(t, 500*time.Millisecond)
	ctx := context.Background()

	name := "Renamed"
	s.MutateSite(site.SitePatch{Name: &name})
	fc.Advance(100 * time.Millisecond)
	require.NoError(t, s.RemovePage(ctx, "p1"))
	require.Equal(t, []intent.Name{intent.PageDelete}, rec.names())

	fc.Advance(time.Second)
	require.Equal(t, []intent.Name{intent.PageDelete, intent.SiteSave}, rec.names())

	var saved site.SitePatch
	require.NoError(t, rec.sent[1].Decode(&saved))
	require.NotNil(t, saved.Name)
	assert.Equal(t, "Renamed", *saved.Name)
	require.NotNil(t, saved.CurrentEditPage)
	assert.Empty(t, *saved.CurrentEditPage)
}

func TestSessionCloseFlushesAutosave(t *testing.T) {
	s, rec, fc := newTestSession(t, 2*time.Second)

	s.MutateSite(site.SitePatch{Header: map[string]any{"logo": "a.png"}})
	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, []intent.Name{intent.SiteSave}, rec.names())

	fc.Advance(time.Minute)
	assert.Len(t, rec.sent, 1, "flushed save does not fire again")

	require.NoError(t, s.Close(context.Background()))
	assert.Len(t, rec.sent, 1)
}

func TestSessionAgainstGateway(t *testing.T) {
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "editor.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ctx := context.Background()
	gw := gateway.New(db)
	st, err := gw.CreateSite(ctx, 7, "Portfolio")
	require.NoError(t, err)
	sc, err := gw.ResolveSite(ctx, st.Site.ID, 7)
	require.NoError(t, err)

	fc := clock.NewFake(time.Now())
	s := NewSession(st, gw.Emitter(sc), SessionOptions{Clock: fc, AutosaveDelay: time.Second})
	home := st.Site.CurrentEditPage
	require.NotEmpty(t, home)

	hero, err := s.AppendSection(ctx, site.Section{Type: site.KindHero, Content: datatypes.JSONMap{"title": "Hi"}})
	require.NoError(t, err)
	text, err := s.AppendSection(ctx, site.Section{Type: site.KindText})
	require.NoError(t, err)
	gallery, err := s.InsertSectionAfter(ctx, hero.UUID, site.Section{Type: site.KindGallery})
	require.NoError(t, err)

	_, err = s.AddItem(ctx, gallery.UUID, site.SectionItem{Content: datatypes.JSONMap{"src": "1.jpg"}})
	require.NoError(t, err)
	require.NoError(t, s.UpdateSection(ctx, site.SectionPatch{UUID: hero.UUID, Content: map[string]any{"subtitle": "there"}}))
	require.NoError(t, s.Reorder(ctx, home, []string{text.UUID, hero.UUID, gallery.UUID}))

	about, err := s.AddPage(ctx, site.Page{Name: "About"})
	require.NoError(t, err)
	require.NoError(t, s.SetHome(ctx, about.ID))

	name := "Renamed"
	s.MutateSite(site.SitePatch{Name: &name})
	require.NoError(t, s.Close(ctx))

	loaded, err := gw.LoadTree(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Site.Name)

	server := NewTree(loaded)
	assert.Equal(t, uuids(s.Tree().SectionsForPage(home)), uuids(server.SectionsForPage(home)))
	assert.Equal(t, positions(s.Tree().SectionsForPage(home)), positions(server.SectionsForPage(home)))

	h, _ := server.Section(hero.UUID)
	assert.Equal(t, datatypes.JSONMap{"title": "Hi", "subtitle": "there"}, h.Content)
	g, _ := server.Section(gallery.UUID)
	require.Len(t, g.Items, 1)
	assert.Equal(t, "1.jpg", g.Items[0].Content["src"])

	for _, p := range server.Pages() {
		assert.Equal(t, p.ID == about.ID, p.Default, p.Name)
	}
}
