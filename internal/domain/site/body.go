package site

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Section type tags with a typed content schema.
const (
	KindHero    = "hero"
	KindText    = "text"
	KindGallery = "gallery"
	KindCTA     = "cta"
	KindContact = "contact"
)

// Body is the typed view of a section's content, selected by the section
// type tag. Types without a registered schema decode to Unknown.
type Body interface {
	Kind() string
}

type Hero struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Image      string `json:"image"`
	ButtonText string `json:"button_text"`
	ButtonLink string `json:"button_link"`
}

func (Hero) Kind() string { return KindHero }

type Text struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (Text) Kind() string { return KindText }

type Gallery struct {
	Title   string `json:"title"`
	Columns int    `json:"columns"`
	Style   string `json:"style"`
}

func (Gallery) Kind() string { return KindGallery }

type CTA struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	ButtonText string `json:"button_text"`
	ButtonLink string `json:"button_link"`
}

func (CTA) Kind() string { return KindCTA }

type Contact struct {
	Title   string `json:"title"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (Contact) Kind() string { return KindContact }

// Unknown keeps the raw content of a section type this build does not know,
// so newer clients can round-trip it untouched.
type Unknown struct {
	Type string         `json:"type"`
	Raw  map[string]any `json:"raw"`
}

func (u Unknown) Kind() string { return u.Type }

var bodyKinds = map[string]func() Body{
	KindHero:    func() Body { return &Hero{} },
	KindText:    func() Body { return &Text{} },
	KindGallery: func() Body { return &Gallery{} },
	KindCTA:     func() Body { return &CTA{} },
	KindContact: func() Body { return &Contact{} },
}

// DecodeBody maps free-form content onto the schema registered for kind.
// Unregistered kinds yield Unknown and never fail.
func DecodeBody(kind string, content map[string]any) (Body, error) {
	ctor, ok := bodyKinds[kind]
	if !ok {
		return Unknown{Type: kind, Raw: content}, nil
	}

	out := ctor()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(content); err != nil {
		return nil, fmt.Errorf("decode %s section: %w", kind, err)
	}
	return deref(out), nil
}

// Body returns the typed content of the section.
func (s Section) Body() (Body, error) {
	return DecodeBody(s.Type, s.Content)
}

func deref(b Body) Body {
	switch v := b.(type) {
	case *Hero:
		return *v
	case *Text:
		return *v
	case *Gallery:
		return *v
	case *CTA:
		return *v
	case *Contact:
		return *v
	}
	return b
}
