package site

import (
	"time"

	"gorm.io/datatypes"
)

const (
	OwnerUser   = "user"
	OwnerSystem = "system"
)

// Layout holds the section_settings knobs shared by every section type.
type Layout struct {
	Height  string `json:"height,omitempty" yaml:"height"`
	Width   string `json:"width,omitempty" yaml:"width"`
	Spacing string `json:"spacing,omitempty" yaml:"spacing"`
	Align   string `json:"align,omitempty" yaml:"align"`
}

type Site struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	OwnerType string `gorm:"not null;default:'user';index" json:"-"`
	OwnerID   *uint  `gorm:"index" json:"-"`

	Slug string `gorm:"not null;uniqueIndex" json:"slug"`
	Name string `gorm:"not null" json:"name"`

	CurrentEditPage string            `json:"current_edit_page"`
	Published       bool              `gorm:"not null;default:false" json:"published"`
	Header          datatypes.JSONMap `json:"header"`
	Footer          datatypes.JSONMap `json:"footer"`

	Socials     []Social     `gorm:"foreignKey:SiteID;references:ID;constraint:OnDelete:CASCADE;" json:"socials"`
	HeaderLinks []HeaderLink `gorm:"foreignKey:SiteID;references:ID;constraint:OnDelete:CASCADE;" json:"header_links,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Page struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"uuid"`
	SiteID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_pages_site_slug,priority:1" json:"site_id,omitempty"`

	Name      string `gorm:"not null" json:"name"`
	Slug      string `gorm:"not null;uniqueIndex:idx_pages_site_slug,priority:2" json:"slug"`
	Default   bool   `gorm:"column:is_default;not null;default:false" json:"default"`
	Published bool   `gorm:"not null;default:false" json:"published"`
	Position  int    `gorm:"not null;default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Section struct {
	UUID   string `gorm:"column:uuid;type:uuid;primaryKey" json:"uuid"`
	SiteID string `gorm:"type:uuid;not null;index" json:"site_id,omitempty"`
	PageID string `gorm:"type:uuid;not null;index:idx_sections_page_position,priority:1" json:"page_id"`

	// Type selects the renderer and the expected content schema.
	Type     string `gorm:"column:section;not null;index" json:"section"`
	Position int    `gorm:"not null;default:0;index:idx_sections_page_position,priority:2" json:"position"`

	Published       bool                       `gorm:"not null;default:false" json:"published"`
	Content         datatypes.JSONMap          `json:"content"`
	Settings        datatypes.JSONMap          `json:"settings"`
	SectionSettings datatypes.JSONType[Layout] `json:"section_settings"`
	Form            datatypes.JSONMap          `json:"form"`

	Items []SectionItem `gorm:"foreignKey:SectionID;references:UUID" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SectionItem struct {
	UUID      string `gorm:"column:uuid;type:uuid;primaryKey" json:"uuid"`
	SectionID string `gorm:"type:uuid;not null;index" json:"section_id"`

	Position int               `gorm:"not null;default:0" json:"position"`
	Content  datatypes.JSONMap `json:"content"`
	Settings datatypes.JSONMap `json:"settings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Social struct {
	UUID   string `gorm:"column:uuid;type:uuid;primaryKey" json:"uuid"`
	SiteID string `gorm:"type:uuid;not null;index" json:"site_id,omitempty"`

	Platform string `gorm:"not null" json:"platform"`
	URL      string `gorm:"column:url" json:"url"`
	Position int    `gorm:"not null;default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HeaderLink struct {
	UUID     string  `gorm:"column:uuid;type:uuid;primaryKey" json:"uuid"`
	SiteID   string  `gorm:"type:uuid;not null;index" json:"site_id,omitempty"`
	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	Title    string `json:"title"`
	URL      string `gorm:"column:url" json:"url"`
	Position int    `gorm:"not null;default:0" json:"position"`

	Children []HeaderLink `gorm:"foreignKey:ParentID;references:UUID" json:"children,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Template names a system-owned site that users can copy as a starting point.
type Template struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	Slug   string `gorm:"not null;uniqueIndex" json:"slug"`
	Name   string `gorm:"not null" json:"name"`
	Active bool   `gorm:"not null;default:true" json:"active"`
	SiteID string `gorm:"type:uuid;not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Position is a persisted ordering change for one section.
type Position struct {
	UUID     string `json:"uuid"`
	Position int    `json:"position"`
}

// State is the full editable state of one site: what the editor loads and
// what the server treats as the source of truth on reload.
type State struct {
	Site     Site      `json:"site"`
	Pages    []Page    `json:"pages"`
	Sections []Section `json:"sections"`
}
