package siteapi

import "site-builder/internal/domain/site"

type TemplateDTO struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type SiteDTO struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Published bool   `json:"published"`
	PublicURL string `json:"public_url"`
}

type CreateSiteRequest struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

type GetTemplatesResponse struct {
	Templates []TemplateDTO `json:"templates"`
}

type GetTemplateResponse struct {
	Template TemplateDTO `json:"template"`
	State    site.State  `json:"state"`
}

type ListSitesResponse struct {
	Sites []SiteDTO `json:"sites"`
}

// GetSiteResponse is what an editor loads: the full state plus the autosave
// delay it should debounce site saves with.
type GetSiteResponse struct {
	State           site.State `json:"state"`
	AutosaveDelayMS int64      `json:"autosave_delay_ms"`
}

type BatchResponse struct {
	Applied int    `json:"applied"`
	Error   string `json:"error,omitempty"`
	Intent  string `json:"intent,omitempty"`
}

// WSError is sent on the intent socket when an intent fails.
type WSError struct {
	Error  string `json:"error"`
	Intent string `json:"intent,omitempty"`
}

type PublicSectionDTO struct {
	UUID            string             `json:"uuid"`
	Type            string             `json:"section"`
	Body            site.Body          `json:"body"`
	Settings        map[string]any     `json:"settings"`
	SectionSettings site.Layout        `json:"section_settings"`
	Items           []site.SectionItem `json:"items"`
}

type PublicNavDTO struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Home bool   `json:"home"`
}

type PublicPageResponse struct {
	Site        SiteDTO            `json:"site"`
	Header      map[string]any     `json:"header"`
	Footer      map[string]any     `json:"footer"`
	Socials     []site.Social      `json:"socials"`
	HeaderLinks []site.HeaderLink  `json:"header_links"`
	Nav         []PublicNavDTO     `json:"nav"`
	Page        PublicNavDTO       `json:"page"`
	Sections    []PublicSectionDTO `json:"sections"`
}

func toSiteDTO(s site.Site) SiteDTO {
	return SiteDTO{
		ID:        s.ID,
		Slug:      s.Slug,
		Name:      s.Name,
		Published: s.Published,
		PublicURL: site.BuildPublicURL(s.Slug),
	}
}
