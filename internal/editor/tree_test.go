package editor

import (
	"testing"

	"site-builder/internal/domain/site"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func sec(uuid, page string, pos int) site.Section {
	return site.Section{UUID: uuid, PageID: page, Type: site.KindText, Position: pos}
}

func newTestTree(sections ...site.Section) *Tree {
	return NewTree(site.State{
		Site: site.Site{ID: "site-1", Name: "Studio", CurrentEditPage: "p1"},
		Pages: []site.Page{
			{ID: "p1", SiteID: "site-1", Name: "Home", Slug: "home", Default: true, Position: 0},
			{ID: "p2", SiteID: "site-1", Name: "About", Slug: "about", Position: 1},
		},
		Sections: sections,
	})
}

func uuids(sections []site.Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.UUID
	}
	return out
}

func positions(sections []site.Section) []int {
	out := make([]int, len(sections))
	for i, s := range sections {
		out[i] = s.Position
	}
	return out
}

func TestSectionsForPageStableSort(t *testing.T) {
	tree := newTestTree(
		sec("c", "p1", 2),
		sec("x", "p2", 0),
		sec("a", "p1", 1),
		sec("b", "p1", 1),
		sec("z", "p1", 0),
	)

	assert.Equal(t, []string{"z", "a", "b", "c"}, uuids(tree.SectionsForPage("p1")))
	assert.Equal(t, []string{"x"}, uuids(tree.SectionsForPage("p2")))
	assert.Empty(t, tree.SectionsForPage("nope"))
}

func TestInsertSectionAfterRenumbersPage(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p1", 1), sec("c", "p1", 2), sec("other", "p2", 7))

	got, ok := tree.InsertSectionAfter("a", site.Section{UUID: "new", Type: site.KindHero})
	require.True(t, ok)
	assert.Equal(t, 1, got.Position)
	assert.Equal(t, "p1", got.PageID)
	assert.Equal(t, "site-1", got.SiteID)

	view := tree.SectionsForPage("p1")
	assert.Equal(t, []string{"a", "new", "b", "c"}, uuids(view))
	assert.Equal(t, []int{0, 1, 2, 3}, positions(view))

	other, _ := tree.Section("other")
	assert.Equal(t, 7, other.Position)
}

func TestInsertSectionAfterCompactsGapsAndTies(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p1", 0), sec("c", "p1", 9))

	got, ok := tree.InsertSectionAfter("c", sec("d", "", 0))
	require.True(t, ok)
	assert.Equal(t, 3, got.Position)

	view := tree.SectionsForPage("p1")
	assert.Equal(t, []string{"a", "b", "c", "d"}, uuids(view))
	assert.Equal(t, []int{0, 1, 2, 3}, positions(view))
}

func TestInsertSectionAfterMissingAnchor(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0))

	_, ok := tree.InsertSectionAfter("ghost", sec("new", "p1", 0))
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, uuids(tree.SectionsForPage("p1")))
}

func TestInsertSectionAfterKeepsItems(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0))

	s := sec("gallery", "", 0)
	s.Items = []site.SectionItem{{UUID: "i1"}, {UUID: "i2", Position: 1}}
	_, ok := tree.InsertSectionAfter("a", s)
	require.True(t, ok)

	items := tree.Items("gallery")
	require.Len(t, items, 2)
	assert.Equal(t, "gallery", items[0].SectionID)

	full, _ := tree.Section("gallery")
	assert.Len(t, full.Items, 2)
}

func TestAppendSection(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p1", 1), sec("x", "p2", 0))

	got, ok := tree.AppendSection(site.Section{UUID: "c"})
	require.True(t, ok)
	assert.Equal(t, "p1", got.PageID, "defaults to the current edit page")
	assert.Equal(t, 2, got.Position)

	got, ok = tree.AppendSection(site.Section{UUID: "y", PageID: "p2"})
	require.True(t, ok)
	assert.Equal(t, 1, got.Position)

	_, ok = tree.AppendSection(site.Section{UUID: "z", PageID: "ghost"})
	assert.False(t, ok)
}

func TestReorderReturnsChangedPairs(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p1", 1), sec("c", "p1", 2), sec("x", "p2", 0))

	changed := tree.Reorder("p1", []string{"a", "c", "b", "x", "ghost"})
	assert.Equal(t, []site.Position{{UUID: "c", Position: 1}, {UUID: "b", Position: 2}}, changed)
	assert.Equal(t, []string{"a", "c", "b"}, uuids(tree.SectionsForPage("p1")))

	x, _ := tree.Section("x")
	assert.Equal(t, 0, x.Position, "sections of other pages are untouched")

	assert.Empty(t, tree.Reorder("p1", []string{"a", "c", "b"}))
}

func TestRemoveSectionLeavesGap(t *testing.T) {
	a := sec("a", "p1", 0)
	b := sec("b", "p1", 1)
	b.Items = []site.SectionItem{{UUID: "i1"}, {UUID: "i2", Position: 1}}
	c := sec("c", "p1", 2)
	c.Items = []site.SectionItem{{UUID: "i3"}}
	tree := newTestTree(a, b, c)

	assert.True(t, tree.RemoveSection("b"))
	view := tree.SectionsForPage("p1")
	assert.Equal(t, []string{"a", "c"}, uuids(view))
	assert.Equal(t, []int{0, 2}, positions(view))
	assert.Empty(t, tree.Items("b"))
	assert.Len(t, tree.Items("c"), 1)

	assert.False(t, tree.RemoveSection("b"))
}

func TestUpdateSectionShallowMerge(t *testing.T) {
	s := sec("a", "p1", 0)
	s.Content = datatypes.JSONMap{"title": "Old", "style": map[string]any{"color": "red", "size": "l"}}
	s.Settings = datatypes.JSONMap{"bg": "white"}
	tree := newTestTree(s)

	ok := tree.UpdateSection("a", site.SectionPatch{
		UUID:    "a",
		Content: map[string]any{"style": map[string]any{"color": "blue"}},
	})
	require.True(t, ok)

	got, _ := tree.Section("a")
	assert.Equal(t, datatypes.JSONMap{"title": "Old", "style": map[string]any{"color": "blue"}}, got.Content)
	assert.Equal(t, datatypes.JSONMap{"bg": "white"}, got.Settings)

	assert.False(t, tree.UpdateSection("ghost", site.SectionPatch{UUID: "ghost", Content: map[string]any{"x": 1}}))
}

func TestMutateSite(t *testing.T) {
	tree := newTestTree()
	name := "Renamed"

	tree.MutateSite(site.SitePatch{Name: &name, Header: map[string]any{"logo": "a.png"}})
	tree.MutateSite(site.SitePatch{Header: map[string]any{"tagline": "hi"}})

	s := tree.Site()
	assert.Equal(t, "Renamed", s.Name)
	assert.Equal(t, datatypes.JSONMap{"logo": "a.png", "tagline": "hi"}, s.Header)
}

func TestAddAndRemoveItem(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0))

	it, ok := tree.AddItem("a", site.SectionItem{UUID: "i1"})
	require.True(t, ok)
	assert.Equal(t, 0, it.Position)
	assert.Equal(t, "a", it.SectionID)

	it, ok = tree.AddItem("a", site.SectionItem{UUID: "i2", SectionID: "spoofed"})
	require.True(t, ok)
	assert.Equal(t, 1, it.Position)
	assert.Equal(t, "a", it.SectionID)

	_, ok = tree.AddItem("ghost", site.SectionItem{UUID: "i3"})
	assert.False(t, ok)

	assert.True(t, tree.UpdateItem(site.ItemPatch{UUID: "i1", Content: map[string]any{"caption": "hi"}}))
	assert.Equal(t, datatypes.JSONMap{"caption": "hi"}, tree.Items("a")[0].Content)

	assert.True(t, tree.RemoveItem("i1"))
	assert.False(t, tree.RemoveItem("i1"))
	assert.Equal(t, "i2", tree.Items("a")[0].UUID)
}

func TestPages(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p2", 0))

	p := tree.AddPage(site.Page{ID: "p3", Name: "Contact", Slug: "contact"})
	assert.Equal(t, 2, p.Position)
	assert.False(t, p.Default)

	assert.True(t, tree.SetHome("p2"))
	assert.False(t, tree.SetHome("ghost"))
	var defaults []string
	for _, pg := range tree.Pages() {
		if pg.Default {
			defaults = append(defaults, pg.ID)
		}
	}
	assert.Equal(t, []string{"p2"}, defaults)

	name := "About us"
	assert.True(t, tree.UpdatePage(site.PagePatch{UUID: "p2", Name: &name}))
	assert.False(t, tree.UpdatePage(site.PagePatch{UUID: "ghost", Name: &name}))
}

func TestRemovePagePromotesNextHome(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p2", 0))
	tree.AddPage(site.Page{ID: "p3", Name: "Contact", Slug: "contact"})

	assert.True(t, tree.RemovePage("p1"))

	pages := tree.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, "p2", pages[0].ID)
	assert.True(t, pages[0].Default)
	assert.False(t, pages[1].Default)

	_, ok := tree.Section("a")
	assert.False(t, ok, "sections of the page go with it")
	assert.Empty(t, tree.Site().CurrentEditPage)

	assert.False(t, tree.RemovePage("p1"))
}

func TestNewTreeEmptyAddPageBecomesHome(t *testing.T) {
	tree := NewTree(site.State{Site: site.Site{ID: "s"}})
	p := tree.AddPage(site.Page{ID: "p1"})
	assert.True(t, p.Default)
	assert.Equal(t, 0, p.Position)
}

func TestBody(t *testing.T) {
	s := sec("a", "p1", 0)
	s.Type = site.KindHero
	s.Content = datatypes.JSONMap{"title": "Welcome"}
	tree := newTestTree(s)

	b, ok, err := tree.Body("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, site.Hero{Title: "Welcome"}, b)

	_, ok, err = tree.Body("ghost")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEditingScenario(t *testing.T) {
	tree := newTestTree(sec("hero", "p1", 0), sec("text", "p1", 1), sec("footer", "p1", 2))

	// add a gallery under the hero
	_, ok := tree.InsertSectionAfter("hero", site.Section{UUID: "gallery", Type: site.KindGallery})
	require.True(t, ok)
	assert.Equal(t, []string{"hero", "gallery", "text", "footer"}, uuids(tree.SectionsForPage("p1")))

	// drag the footer to the top
	changed := tree.Reorder("p1", []string{"footer", "hero", "gallery", "text"})
	assert.Len(t, changed, 4)

	// delete the text block
	require.True(t, tree.RemoveSection("text"))
	view := tree.SectionsForPage("p1")
	assert.Equal(t, []string{"footer", "hero", "gallery"}, uuids(view))
	assert.Equal(t, []int{0, 1, 2}, positions(view))

	// append at the end
	got, ok := tree.AppendSection(site.Section{UUID: "cta", Type: site.KindCTA})
	require.True(t, ok)
	assert.Equal(t, 3, got.Position)
}

func TestInsertAfterMiddleSection(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p1", 1), sec("c", "p1", 2))

	got, ok := tree.InsertSectionAfter("b", sec("new", "", 0))
	require.True(t, ok)
	assert.Equal(t, 2, got.Position)

	c, _ := tree.Section("c")
	assert.Equal(t, 3, c.Position)
	assert.Equal(t, []int{0, 1, 2, 3}, positions(tree.SectionsForPage("p1")))
}

func TestReorderIsIdempotent(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p1", 1), sec("c", "p1", 2))

	tree.Reorder("p1", []string{"c", "a", "b"})
	first := tree.SectionsForPage("p1")
	assert.Equal(t, []string{"c", "a", "b"}, uuids(first))
	assert.Equal(t, []int{0, 1, 2}, positions(first))

	assert.Empty(t, tree.Reorder("p1", []string{"c", "a", "b"}))
	assert.Equal(t, first, tree.SectionsForPage("p1"))
}

func TestPositionsStayDense(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0))

	tree.AppendSection(sec("b", "p1", 0))
	tree.InsertSectionAfter("a", sec("c", "", 0))
	tree.AppendSection(sec("d", "", 0))
	tree.InsertSectionAfter("d", sec("e", "", 0))
	tree.Reorder("p1", []string{"e", "d", "c", "b", "a"})
	tree.InsertSectionAfter("c", sec("f", "", 0))

	view := tree.SectionsForPage("p1")
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, positions(view))
	assert.Equal(t, []string{"e", "d", "c", "f", "b", "a"}, uuids(view))
}

func TestInsertThenRemoveScenario(t *testing.T) {
	tree := newTestTree(sec("A", "p1", 0), sec("B", "p1", 1))

	_, ok := tree.InsertSectionAfter("A", sec("C", "", 0))
	require.True(t, ok)
	view := tree.SectionsForPage("p1")
	assert.Equal(t, []string{"A", "C", "B"}, uuids(view))
	assert.Equal(t, []int{0, 1, 2}, positions(view))

	require.True(t, tree.RemoveSection("C"))
	view = tree.SectionsForPage("p1")
	assert.Equal(t, []string{"A", "B"}, uuids(view))
	assert.Equal(t, []int{0, 2}, positions(view))
}

func TestInsertRejectsEmptyOrTakenUUID(t *testing.T) {
	tree := newTestTree(sec("a", "p1", 0), sec("b", "p1", 1), sec("x", "p2", 0))

	cases := []struct {
		name string
		run  func() bool
	}{
		{"insert empty", func() bool { _, ok := tree.InsertSectionAfter("a", sec("", "", 0)); return ok }},
		{"insert taken", func() bool { _, ok := tree.InsertSectionAfter("a", sec("b", "", 0)); return ok }},
		{"insert taken on other page", func() bool { _, ok := tree.InsertSectionAfter("a", sec("x", "", 0)); return ok }},
		{"append empty", func() bool { _, ok := tree.AppendSection(sec("", "p1", 0)); return ok }},
		{"append taken", func() bool { _, ok := tree.AppendSection(sec("a", "p1", 0)); return ok }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, tc.run())
		})
	}

	view := tree.SectionsForPage("p1")
	assert.Equal(t, []string{"a", "b"}, uuids(view))
	assert.Equal(t, []int{0, 1}, positions(view))
	assert.Equal(t, []string{"x"}, uuids(tree.SectionsForPage("p2")))
}

func TestSiteReturnsDetachedCopy(t *testing.T) {
	tree := NewTree(site.State{
		Site: site.Site{
			ID:      "site-1",
			Socials: []site.Social{{UUID: "so1", Platform: "x", URL: "https://example.com/old"}},
		},
	})

	before := tree.Site()
	next := "https://example.com/new"
	tree.MutateSite(site.SitePatch{Socials: []site.SocialPatch{{UUID: "so1", URL: &next}}})

	assert.Equal(t, "https://example.com/old", before.Socials[0].URL)
	assert.Equal(t, next, tree.Site().Socials[0].URL)

	before.Socials[0].URL = "https://example.com/local"
	assert.Equal(t, next, tree.Site().Socials[0].URL)
}
