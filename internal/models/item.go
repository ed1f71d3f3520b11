package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// EntityType is the discriminant of a webset item's properties
type EntityType string

const (
	EntityPerson        EntityType = "person"
	EntityCompany       EntityType = "company"
	EntityArticle       EntityType = "article"
	EntityResearchPaper EntityType = "research_paper"
	EntityCustom        EntityType = "custom"
)

// Field is one variant-specific column of an entity
type Field struct {
	Key   string
	Value string
}

// Entity is the variant payload of an item.
// Items whose type is not recognised carry a nil Entity.
type Entity interface {
	EntityType() EntityType
	DisplayName() string
	Fields() []Field
}

// Properties holds the fields common to every variant plus the variant payload
type Properties struct {
	Type        EntityType
	URL         string
	Description string
	Content     string
	Entity      Entity
}

// Name returns the entity's display name, or empty if the variant has none
func (p Properties) Name() string {
	if p.Entity == nil {
		return ""
	}
	return p.Entity.DisplayName()
}

type propertiesWire struct {
	Type          EntityType      `json:"type"`
	URL           string          `json:"url"`
	Description   string          `json:"description,omitempty"`
	Content       string          `json:"content,omitempty"`
	Person        json.RawMessage `json:"person,omitempty"`
	Company       json.RawMessage `json:"company,omitempty"`
	Article       json.RawMessage `json:"article,omitempty"`
	ResearchPaper json.RawMessage `json:"researchPaper,omitempty"`
	Custom        json.RawMessage `json:"custom,omitempty"`
}

// UnmarshalJSON decodes the tagged union. Unknown types and malformed
// variant payloads degrade to the common fields.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw propertiesWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Properties{
		Type:        raw.Type,
		URL:         raw.URL,
		Description: raw.Description,
		Content:     raw.Content,
	}

	var entity Entity
	var payload json.RawMessage
	switch raw.Type {
	case EntityPerson:
		entity, payload = &Person{}, raw.Person
	case EntityCompany:
		entity, payload = &Company{}, raw.Company
	case EntityArticle:
		entity, payload = &Article{}, raw.Article
	case EntityResearchPaper:
		entity, payload = &ResearchPaper{}, raw.ResearchPaper
	case EntityCustom:
		entity, payload = &Custom{}, raw.Custom
	default:
		return nil
	}

	if len(payload) > 0 && !bytes.Equal(payload, []byte("null")) {
		if err := json.Unmarshal(payload, entity); err != nil {
			return nil
		}
	}
	p.Entity = entity
	return nil
}

// MarshalJSON encodes the properties back into the provider's shape
func (p Properties) MarshalJSON() ([]byte, error) {
	out := struct {
		Type          EntityType     `json:"type"`
		URL           string         `json:"url"`
		Description   string         `json:"description,omitempty"`
		Content       string         `json:"content,omitempty"`
		Person        *Person        `json:"person,omitempty"`
		Company       *Company       `json:"company,omitempty"`
		Article       *Article       `json:"article,omitempty"`
		ResearchPaper *ResearchPaper `json:"researchPaper,omitempty"`
		Custom        *Custom        `json:"custom,omitempty"`
	}{
		Type:        p.Type,
		URL:         p.URL,
		Description: p.Description,
		Content:     p.Content,
	}

	switch e := p.Entity.(type) {
	case *Person:
		out.Person = e
	case *Company:
		out.Company = e
	case *Article:
		out.Article = e
	case *ResearchPaper:
		out.ResearchPaper = e
	case *Custom:
		out.Custom = e
	}
	return json.Marshal(out)
}

// Person is the person variant
type Person struct {
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"`
	Position   string `json:"position,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty"`
}

func (p *Person) EntityType() EntityType { return EntityPerson }
func (p *Person) DisplayName() string    { return p.Name }
func (p *Person) Fields() []Field {
	return []Field{
		{Key: "location", Value: p.Location},
		{Key: "position", Value: p.Position},
	}
}

// Company is the company variant
type Company struct {
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Employees *int   `json:"employees,omitempty"`
	Industry  string `json:"industry,omitempty"`
	About     string `json:"about,omitempty"`
	LogoURL   string `json:"logoUrl,omitempty"`
}

func (c *Company) EntityType() EntityType { return EntityCompany }
func (c *Company) DisplayName() string    { return c.Name }
func (c *Company) Fields() []Field {
	employees := ""
	if c.Employees != nil {
		employees = strconv.Itoa(*c.Employees)
	}
	return []Field{
		{Key: "location", Value: c.Location},
		{Key: "employees", Value: employees},
		{Key: "industry", Value: c.Industry},
	}
}

// Article is the article variant
type Article struct {
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

func (a *Article) EntityType() EntityType { return EntityArticle }
func (a *Article) DisplayName() string    { return "" }
func (a *Article) Fields() []Field        { return publicationFields(a.Author, a.PublishedAt) }

// ResearchPaper is the research paper variant
type ResearchPaper struct {
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

func (r *ResearchPaper) EntityType() EntityType { return EntityResearchPaper }
func (r *ResearchPaper) DisplayName() string    { return "" }
func (r *ResearchPaper) Fields() []Field        { return publicationFields(r.Author, r.PublishedAt) }

// Custom is the free-form variant
type Custom struct {
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

func (c *Custom) EntityType() EntityType { return EntityCustom }
func (c *Custom) DisplayName() string    { return "" }
func (c *Custom) Fields() []Field        { return publicationFields(c.Author, c.PublishedAt) }

func publicationFields(author, publishedAt string) []Field {
	return []Field{
		{Key: "author", Value: author},
		{Key: "published_at", Value: publishedAt},
	}
}

// Values is an enrichment result list. The provider sends a list of
// strings or null; older payloads send a bare string.
type Values []string

// UnmarshalJSON accepts null, a scalar, or a list of scalars. Anything
// else decodes to no values and never fails the surrounding item.
func (v *Values) UnmarshalJSON(data []byte) error {
	*v = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if data[0] != '[' {
		if s, ok := scalarText(data); ok {
			*v = Values{s}
		}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(Values, 0, len(raw))
	for _, r := range raw {
		if s, ok := scalarText(r); ok {
			out = append(out, s)
		}
	}
	*v = out
	return nil
}

// scalarText renders a JSON string, number or bool as text
func scalarText(raw []byte) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case 'n', '{', '[':
		return "", false
	default:
		return string(raw), true
	}
}

// Join returns the non-blank values joined by sep
func (v Values) Join(sep string) string {
	parts := make([]string, 0, len(v))
	for _, s := range v {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

type itemWire Item

// UnmarshalJSON decodes the item and keeps the provider's bytes so the
// raw item can be written back unchanged.
func (i *Item) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	w.Raw = append(json.RawMessage(nil), data...)
	*i = Item(w)
	return nil
}

// MarshalJSON writes the provider's bytes when the item was decoded from
// them, otherwise the typed fields.
func (i Item) MarshalJSON() ([]byte, error) {
	if len(i.Raw) > 0 {
		return i.Raw, nil
	}
	return json.Marshal(itemWire(i))
}
