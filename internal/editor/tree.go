// Package editor holds the editing-side model of a site: an in-memory tree
// of pages, sections and items that is mutated optimistically and mirrored
// to the server through named intents.
package editor

import (
	"slices"
	"sort"
	"sync"

	"site-builder/internal/domain/site"
)

// Tree is the denormalized collection of one site's pages, sections and
// items. Sections are kept in a single flat slice; page views are derived
// by filtering on page_id and stable-sorting by position.
//
// Operations on uuids that are not in the tree do nothing and report false.
// Returned sections are copies; their maps are shared with the tree and
// must be treated as read-only.
type Tree struct {
	mu       sync.RWMutex
	site     site.Site
	pages    []site.Page
	sections []site.Section
	items    []site.SectionItem
}

// NewTree builds a tree from a loaded site state. Items nested in the
// state's sections are moved into the tree's flat item collection.
func NewTree(snap site.State) *Tree {
	t := &Tree{
		site:     snap.Site,
		pages:    slices.Clone(snap.Pages),
		sections: make([]site.Section, 0, len(snap.Sections)),
	}
	for _, s := range snap.Sections {
		t.addSectionItemsLocked(&s)
		t.sections = append(t.sections, s)
	}
	return t
}

// Site returns a copy of the site. Socials and header links are copied so
// later mutations do not show through.
func (t *Tree) Site() site.Site {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.site
	out.Socials = slices.Clone(t.site.Socials)
	out.HeaderLinks = slices.Clone(t.site.HeaderLinks)
	return out
}

func (t *Tree) Pages() []site.Page {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := slices.Clone(t.pages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Section returns the section with the given uuid including its items.
func (t *Tree) Section(uuid string) (site.Section, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := t.sectionIndexLocked(uuid)
	if i < 0 {
		return site.Section{}, false
	}
	s := t.sections[i]
	s.Items = t.itemsLocked(uuid)
	return s, true
}

// Items returns the items of a section in position order.
func (t *Tree) Items(sectionUUID string) []site.SectionItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.itemsLocked(sectionUUID)
}

// SectionsForPage returns the page's sections ordered by position. Equal
// positions keep their order in the underlying collection.
func (t *Tree) SectionsForPage(pageID string) []site.Section {
	t.mu.RLock()
	defer t.mu.RUnlock()

	view := t.pageViewLocked(pageID)
	out := make([]site.Section, 0, len(view))
	for _, i := range view {
		out = append(out, t.sections[i])
	}
	return out
}

// InsertSectionAfter places s directly after the section afterUUID on the
// same page and renumbers that page to positions 0..n-1. It returns s as
// stored, with its final page and position. s needs a uuid not yet in the
// tree.
func (t *Tree) InsertSectionAfter(afterUUID string, s site.Section) (site.Section, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ai := t.sectionIndexLocked(afterUUID)
	if ai < 0 || !t.newSectionIDLocked(s.UUID) {
		return s, false
	}
	pageID := t.sections[ai].PageID

	order := t.pageOrderLocked(pageID)
	target := slices.Index(order, afterUUID) + 1

	s.PageID = pageID
	s.SiteID = t.site.ID
	t.addSectionItemsLocked(&s)
	t.sections = slices.Insert(t.sections, ai+1, s)

	order = slices.Insert(order, target, s.UUID)
	t.renumberLocked(order)

	return t.sections[ai+1], true
}

// AppendSection adds s at the end of its page. A section without a page_id
// goes to the site's current edit page. s needs a uuid not yet in the tree.
func (t *Tree) AppendSection(s site.Section) (site.Section, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.PageID == "" {
		s.PageID = t.site.CurrentEditPage
	}
	if s.PageID == "" || t.pageIndexLocked(s.PageID) < 0 || !t.newSectionIDLocked(s.UUID) {
		return s, false
	}

	order := t.pageOrderLocked(s.PageID)
	s.SiteID = t.site.ID
	s.Position = len(order)
	t.addSectionItemsLocked(&s)
	t.sections = append(t.sections, s)

	return s, true
}

// Reorder assigns position = index in uuids to every listed section of the
// page and returns the pairs whose position actually changed. Uuids that
// are unknown or belong to another page are skipped.
func (t *Tree) Reorder(pageID string, uuids []string) []site.Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	var changed []site.Position
	for pos, uuid := range uuids {
		i := t.sectionIndexLocked(uuid)
		if i < 0 || t.sections[i].PageID != pageID {
			continue
		}
		if t.sections[i].Position != pos {
			t.sections[i].Position = pos
			changed = append(changed, site.Position{UUID: uuid, Position: pos})
		}
	}
	return changed
}

// RemoveSection deletes the section and its items. Sibling positions are
// left as they are, so a gap remains.
func (t *Tree) RemoveSection(uuid string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.sectionIndexLocked(uuid)
	if i < 0 {
		return false
	}
	t.sections = slices.Delete(t.sections, i, i+1)
	t.items = slices.DeleteFunc(t.items, func(it site.SectionItem) bool {
		return it.SectionID == uuid
	})
	return true
}

// UpdateSection merges p into the section. Content, settings and form are
// merged per top-level key.
func (t *Tree) UpdateSection(uuid string, p site.SectionPatch) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.sectionIndexLocked(uuid)
	if i < 0 {
		return false
	}
	t.sections[i].Apply(p)
	return true
}

// MutateSite merges p into the site.
func (t *Tree) MutateSite(p site.SitePatch) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.site.Apply(p)
	return true
}

// AddItem appends an item to a section. The item's section_id is set to
// the section's uuid.
func (t *Tree) AddItem(sectionUUID string, it site.SectionItem) (site.SectionItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sectionIndexLocked(sectionUUID) < 0 {
		return it, false
	}
	it.SectionID = sectionUUID
	it.Position = len(t.itemsLocked(sectionUUID))
	t.items = append(t.items, it)
	return it, true
}

func (t *Tree) UpdateItem(p site.ItemPatch) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.items {
		if t.items[i].UUID == p.UUID {
			t.items[i].Apply(p)
			return true
		}
	}
	return false
}

func (t *Tree) RemoveItem(uuid string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.items)
	t.items = slices.DeleteFunc(t.items, func(it site.SectionItem) bool { return it.UUID == uuid })
	return len(t.items) != n
}

// AddPage appends a page. The first page of a site becomes its home page.
func (t *Tree) AddPage(p site.Page) site.Page {
	t.mu.Lock()
	defer t.mu.Unlock()

	p.SiteID = t.site.ID
	p.Position = len(t.pages)
	p.Default = len(t.pages) == 0
	t.pages = append(t.pages, p)
	return p
}

func (t *Tree) UpdatePage(p site.PagePatch) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.pageIndexLocked(p.UUID)
	if i < 0 {
		return false
	}
	t.pages[i].Apply(p)
	return true
}

// RemovePage drops the page and everything on it. If it was the home page
// the first remaining page by position takes over.
func (t *Tree) RemovePage(pageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.pageIndexLocked(pageID)
	if i < 0 {
		return false
	}
	wasDefault := t.pages[i].Default
	t.pages = slices.Delete(t.pages, i, i+1)

	gone := map[string]bool{}
	t.sections = slices.DeleteFunc(t.sections, func(s site.Section) bool {
		if s.PageID == pageID {
			gone[s.UUID] = true
			return true
		}
		return false
	})
	t.items = slices.DeleteFunc(t.items, func(it site.SectionItem) bool { return gone[it.SectionID] })

	if wasDefault && len(t.pages) > 0 {
		first := 0
		for j := range t.pages {
			if t.pages[j].Position < t.pages[first].Position {
				first = j
			}
		}
		t.pages[first].Default = true
	}
	if t.site.CurrentEditPage == pageID {
		t.site.CurrentEditPage = ""
	}
	return true
}

// SetHome marks pageID as the only default page.
func (t *Tree) SetHome(pageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pageIndexLocked(pageID) < 0 {
		return false
	}
	for i := range t.pages {
		t.pages[i].Default = t.pages[i].ID == pageID
	}
	return true
}

func (t *Tree) SetCurrentPage(pageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pageIndexLocked(pageID) < 0 {
		return false
	}
	t.site.CurrentEditPage = pageID
	return true
}

// Body returns the typed content of a section.
func (t *Tree) Body(uuid string) (site.Body, bool, error) {
	s, ok := t.Section(uuid)
	if !ok {
		return nil, false, nil
	}
	b, err := s.Body()
	return b, true, err
}

// pageViewLocked returns indexes into t.sections for pageID, stable-sorted
// by position.
func (t *Tree) pageViewLocked(pageID string) []int {
	var view []int
	for i := range t.sections {
		if t.sections[i].PageID == pageID {
			view = append(view, i)
		}
	}
	sort.SliceStable(view, func(a, b int) bool {
		return t.sections[view[a]].Position < t.sections[view[b]].Position
	})
	return view
}

func (t *Tree) pageOrderLocked(pageID string) []string {
	view := t.pageViewLocked(pageID)
	order := make([]string, len(view))
	for k, i := range view {
		order[k] = t.sections[i].UUID
	}
	return order
}

func (t *Tree) renumberLocked(order []string) {
	index := make(map[string]int, len(t.sections))
	for i := range t.sections {
		index[t.sections[i].UUID] = i
	}
	for pos, uuid := range order {
		t.sections[index[uuid]].Position = pos
	}
}

func (t *Tree) sectionIndexLocked(uuid string) int {
	return slices.IndexFunc(t.sections, func(s site.Section) bool { return s.UUID == uuid })
}

func (t *Tree) newSectionIDLocked(uuid string) bool {
	return uuid != "" && t.sectionIndexLocked(uuid) < 0
}

func (t *Tree) pageIndexLocked(pageID string) int {
	return slices.IndexFunc(t.pages, func(p site.Page) bool { return p.ID == pageID })
}

func (t *Tree) itemsLocked(sectionUUID string) []site.SectionItem {
	var out []site.SectionItem
	for _, it := range t.items {
		if it.SectionID == sectionUUID {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// addSectionItemsLocked moves s.Items into the flat item collection.
func (t *Tree) addSectionItemsLocked(s *site.Section) {
	for _, it := range s.Items {
		it.SectionID = s.UUID
		t.items = append(t.items, it)
	}
	s.Items = nil
}
