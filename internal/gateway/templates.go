package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"

	"site-builder/internal/domain/site"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExists   = errors.New("template already exists")
)

// TemplateSpec is the file format of a site template.
//
//	slug: portfolio
//	name: Portfolio
//	pages:
//	  - name: Home
//	    home: true
//	    sections:
//	      - type: hero
//	        content: {title: Hello}
type TemplateSpec struct {
	Slug        string           `yaml:"slug"`
	Name        string           `yaml:"name"`
	Header      map[string]any   `yaml:"header"`
	Footer      map[string]any   `yaml:"footer"`
	Socials     []SocialSpec     `yaml:"socials"`
	HeaderLinks []HeaderLinkSpec `yaml:"header_links"`
	Pages       []PageSpec       `yaml:"pages"`
}

type SocialSpec struct {
	Platform string `yaml:"platform"`
	URL      string `yaml:"url"`
}

type HeaderLinkSpec struct {
	Title    string           `yaml:"title"`
	URL      string           `yaml:"url"`
	Children []HeaderLinkSpec `yaml:"children"`
}

type PageSpec struct {
	Name      string        `yaml:"name"`
	Slug      string        `yaml:"slug"`
	Home      bool          `yaml:"home"`
	Published bool          `yaml:"published"`
	Sections  []SectionSpec `yaml:"sections"`
}

type SectionSpec struct {
	Type            string         `yaml:"type"`
	Published       bool           `yaml:"published"`
	Content         map[string]any `yaml:"content"`
	Settings        map[string]any `yaml:"settings"`
	SectionSettings site.Layout    `yaml:"section_settings"`
	Form            map[string]any `yaml:"form"`
	Items           []ItemSpec     `yaml:"items"`
}

type ItemSpec struct {
	Content  map[string]any `yaml:"content"`
	Settings map[string]any `yaml:"settings"`
}

// ParseTemplate decodes a template file.
func ParseTemplate(r io.Reader) (TemplateSpec, error) {
	var spec TemplateSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return TemplateSpec{}, fmt.Errorf("parse template: %w", err)
	}
	if spec.Slug == "" {
		return TemplateSpec{}, errors.New("parse template: slug is required")
	}
	if spec.Name == "" {
		spec.Name = spec.Slug
	}
	if len(spec.Pages) == 0 {
		return TemplateSpec{}, errors.New("parse template: at least one page is required")
	}
	return spec, nil
}

// ImportTemplate stores spec as a system-owned site and registers it under
// spec.Slug.
func (g *Gateway) ImportTemplate(ctx context.Context, spec TemplateSpec) (site.Template, error) {
	st := spec.state()
	tmpl := site.Template{
		ID:     newID(),
		Slug:   spec.Slug,
		Name:   spec.Name,
		Active: true,
		SiteID: st.Site.ID,
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&site.Template{}).Where("slug = ?", spec.Slug).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrTemplateExists
		}
		if err := insertState(tx, st); err != nil {
			return err
		}
		return tx.Create(&tmpl).Error
	})
	if err != nil {
		return site.Template{}, err
	}

	g.log.WithField("template", tmpl.Slug).WithField("pages", len(st.Pages)).Info("template imported")
	return tmpl, nil
}

// ListTemplates returns the active templates by name.
func (g *Gateway) ListTemplates(ctx context.Context) ([]site.Template, error) {
	var templates []site.Template
	err := g.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&templates).Error
	return templates, err
}

// GetTemplate returns an active template with the state of its site.
func (g *Gateway) GetTemplate(ctx context.Context, slug string) (site.Template, site.State, error) {
	db := g.db.WithContext(ctx)

	var tmpl site.Template
	if err := db.First(&tmpl, "slug = ? AND active = ?", slug, true).Error; err != nil {
		if missing(err) {
			return tmpl, site.State{}, ErrTemplateNotFound
		}
		return tmpl, site.State{}, err
	}

	st, err := loadState(db, tmpl.SiteID)
	if errors.Is(err, ErrSiteNotFound) {
		return tmpl, st, ErrTemplateNotFound
	}
	return tmpl, st, err
}

// state builds the system-owned site described by spec. The first page
// marked home, or else the first page, becomes the default page.
func (spec TemplateSpec) state() site.State {
	siteID := newID()
	st := site.State{
		Site: site.Site{
			ID:        siteID,
			OwnerType: site.OwnerSystem,
			Slug:      site.SiteSlug("template-"+spec.Slug, siteID),
			Name:      spec.Name,
			Header:    site.MergeMap(nil, spec.Header),
			Footer:    site.MergeMap(nil, spec.Footer),
		},
	}

	for i, so := range spec.Socials {
		st.Site.Socials = append(st.Site.Socials, site.Social{
			UUID:     newID(),
			SiteID:   siteID,
			Platform: so.Platform,
			URL:      so.URL,
			Position: i,
		})
	}

	for i, l := range spec.HeaderLinks {
		link := site.HeaderLink{UUID: newID(), SiteID: siteID, Title: l.Title, URL: l.URL, Position: i}
		for j, c := range l.Children {
			parent := link.UUID
			link.Children = append(link.Children, site.HeaderLink{
				UUID:     newID(),
				SiteID:   siteID,
				ParentID: &parent,
				Title:    c.Title,
				URL:      c.URL,
				Position: j,
			})
		}
		st.Site.HeaderLinks = append(st.Site.HeaderLinks, link)
	}

	home := 0
	for i, p := range spec.Pages {
		if p.Home {
			home = i
			break
		}
	}

	used := map[string]bool{}
	for i, p := range spec.Pages {
		slug := pageSlugBase(p.Slug, p.Name)
		for n := 2; used[slug]; n++ {
			slug = fmt.Sprintf("%s-%d", pageSlugBase(p.Slug, p.Name), n)
		}
		used[slug] = true

		page := site.Page{
			ID:        newID(),
			SiteID:    siteID,
			Name:      p.Name,
			Slug:      slug,
			Default:   i == home,
			Published: p.Published,
			Position:  i,
		}
		st.Pages = append(st.Pages, page)
		if page.Default {
			st.Site.CurrentEditPage = page.ID
		}

		for pos, s := range p.Sections {
			sec := site.Section{
				UUID:      newID(),
				SiteID:    siteID,
				PageID:    page.ID,
				Type:      s.Type,
				Position:  pos,
				Published: s.Published,
				Content:   site.MergeMap(nil, s.Content),
				Settings:  site.MergeMap(nil, s.Settings),
				Form:      site.MergeMap(nil, s.Form),

				SectionSettings: datatypes.NewJSONType(s.SectionSettings),
			}
			for ip, it := range s.Items {
				sec.Items = append(sec.Items, site.SectionItem{
					UUID:      newID(),
					SectionID: sec.UUID,
					Position:  ip,
					Content:   site.MergeMap(nil, it.Content),
					Settings:  site.MergeMap(nil, it.Settings),
				})
			}
			st.Sections = append(st.Sections, sec)
		}
	}

	return st
}
