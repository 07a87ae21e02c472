// Package intent defines the named mutation messages the editor sends to
// the server. An Envelope pairs a Name with a JSON payload whose shape is
// fixed per name.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"

	"site-builder/internal/domain/site"
)

type Name string

const (
	SectionCreate        Name = "section.create"
	SectionSave          Name = "section.save"
	SectionSaveWithItems Name = "section.saveWithItems"
	SectionDelete        Name = "section.delete"
	SectionDeleteItem    Name = "section.deleteItem"
	SectionAddItem       Name = "section.addItem"
	SectionsSort         Name = "sections.sort"
	PageCreate           Name = "page.create"
	PageSave             Name = "page.save"
	PageDuplicate        Name = "page.duplicate"
	PageDelete           Name = "page.delete"
	PageSetHome          Name = "page.setHome"
	SiteSave             Name = "site.save"
	HeaderLinksSave      Name = "headerLinks.save"
)

var (
	ErrUnknownIntent = errors.New("unknown intent")
	ErrBadPayload    = errors.New("malformed intent payload")
)

type Envelope struct {
	Name    Name            `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// UUIDRef is the payload of intents that address a single entity.
type UUIDRef struct {
	UUID string `json:"uuid"`
}

type SectionWithItems struct {
	site.SectionPatch
	Items []site.ItemPatch `json:"items"`
}

type AddItem struct {
	SectionID string           `json:"section_id"`
	Item      site.SectionItem `json:"item"`
}

type DuplicatePage struct {
	Source string `json:"source"`
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
}

// New encodes payload under name.
func New(name Name, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Envelope{Name: name, Payload: raw}, nil
}

// Decode unmarshals the envelope payload into dst.
func (e Envelope) Decode(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", ErrBadPayload, e.Name)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, e.Name, err)
	}
	return nil
}

// Known reports whether n is a name the server handles.
func Known(n Name) bool {
	switch n {
	case SectionCreate, SectionSave, SectionSaveWithItems, SectionDelete,
		SectionDeleteItem, SectionAddItem, SectionsSort,
		PageCreate, PageSave, PageDuplicate, PageDelete, PageSetHome,
		SiteSave, HeaderLinksSave:
		return true
	}
	return false
}
