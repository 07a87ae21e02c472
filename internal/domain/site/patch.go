package site

import "gorm.io/datatypes"

// Patches carry partial updates. A nil pointer or nil map means "field absent";
// maps are merged one level deep (see MergeMap).

type SectionPatch struct {
	UUID            string         `json:"uuid"`
	Type            *string        `json:"section,omitempty"`
	Position        *int           `json:"position,omitempty"`
	Published       *bool          `json:"published,omitempty"`
	Content         map[string]any `json:"content,omitempty"`
	Settings        map[string]any `json:"settings,omitempty"`
	SectionSettings *Layout        `json:"section_settings,omitempty"`
	Form            map[string]any `json:"form,omitempty"`
}

type ItemPatch struct {
	UUID     string         `json:"uuid"`
	Position *int           `json:"position,omitempty"`
	Content  map[string]any `json:"content,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// PagePatch deliberately has no Default field: the home page only changes
// through SetHome so that exactly one page stays default.
type PagePatch struct {
	UUID      string  `json:"uuid"`
	Name      *string `json:"name,omitempty"`
	Slug      *string `json:"slug,omitempty"`
	Published *bool   `json:"published,omitempty"`
	Position  *int    `json:"position,omitempty"`
}

type SocialPatch struct {
	UUID     string  `json:"uuid"`
	Platform *string `json:"platform,omitempty"`
	URL      *string `json:"url,omitempty"`
	Position *int    `json:"position,omitempty"`
}

type SitePatch struct {
	Name            *string        `json:"name,omitempty"`
	CurrentEditPage *string        `json:"current_edit_page,omitempty"`
	Published       *bool          `json:"published,omitempty"`
	Header          map[string]any `json:"header,omitempty"`
	Footer          map[string]any `json:"footer,omitempty"`
	Socials         []SocialPatch  `json:"socials,omitempty"`
}

type HeaderLinkPatch struct {
	UUID     string            `json:"uuid"`
	Title    *string           `json:"title,omitempty"`
	URL      *string           `json:"url,omitempty"`
	Position *int              `json:"position,omitempty"`
	Children []HeaderLinkPatch `json:"children,omitempty"`
}

// MergeMap returns a copy of base with every top-level key of patch written
// over it. Nested maps are replaced, not merged. A nil patch returns base as is.
func MergeMap(base datatypes.JSONMap, patch map[string]any) datatypes.JSONMap {
	if patch == nil {
		return base
	}
	out := make(datatypes.JSONMap, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func (s *Section) Apply(p SectionPatch) {
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.Published != nil {
		s.Published = *p.Published
	}
	if p.SectionSettings != nil {
		s.SectionSettings = datatypes.NewJSONType(*p.SectionSettings)
	}
	s.Content = MergeMap(s.Content, p.Content)
	s.Settings = MergeMap(s.Settings, p.Settings)
	s.Form = MergeMap(s.Form, p.Form)
}

func (it *SectionItem) Apply(p ItemPatch) {
	if p.Position != nil {
		it.Position = *p.Position
	}
	it.Content = MergeMap(it.Content, p.Content)
	it.Settings = MergeMap(it.Settings, p.Settings)
}

func (pg *Page) Apply(p PagePatch) {
	if p.Name != nil {
		pg.Name = *p.Name
	}
	if p.Slug != nil {
		pg.Slug = *p.Slug
	}
	if p.Published != nil {
		pg.Published = *p.Published
	}
	if p.Position != nil {
		pg.Position = *p.Position
	}
}

func (so *Social) Apply(p SocialPatch) {
	if p.Platform != nil {
		so.Platform = *p.Platform
	}
	if p.URL != nil {
		so.URL = *p.URL
	}
	if p.Position != nil {
		so.Position = *p.Position
	}
}

func (l *HeaderLink) Apply(p HeaderLinkPatch) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.URL != nil {
		l.URL = *p.URL
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
}

// Apply merges the site-level fields of p. Socials are matched by uuid and
// only existing ones are updated; unknown uuids are ignored.
func (s *Site) Apply(p SitePatch) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.CurrentEditPage != nil {
		s.CurrentEditPage = *p.CurrentEditPage
	}
	if p.Published != nil {
		s.Published = *p.Published
	}
	s.Header = MergeMap(s.Header, p.Header)
	s.Footer = MergeMap(s.Footer, p.Footer)

	for _, sp := range p.Socials {
		for i := range s.Socials {
			if s.Socials[i].UUID == sp.UUID {
				s.Socials[i].Apply(sp)
				break
			}
		}
	}
}

// Snapshot returns a patch that carries the full current state of the site,
// which is what autosave sends.
func (s Site) Snapshot() SitePatch {
	name := s.Name
	current := s.CurrentEditPage
	published := s.Published

	p := SitePatch{
		Name:            &name,
		CurrentEditPage: &current,
		Published:       &published,
		Header:          copyMap(s.Header),
		Footer:          copyMap(s.Footer),
		Socials:         make([]SocialPatch, 0, len(s.Socials)),
	}
	for _, so := range s.Socials {
		platform, url, pos := so.Platform, so.URL, so.Position
		p.Socials = append(p.Socials, SocialPatch{
			UUID:     so.UUID,
			Platform: &platform,
			URL:      &url,
			Position: &pos,
		})
	}
	return p
}

func copyMap(m datatypes.JSONMap) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
