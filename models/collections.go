package models

import (
	"database/sql/driver"
	"encoding/json"
	"log"
	"strings"
)

// The JSON columns on a memorial have been written by several frontend
// revisions and can come back from the database as a real array, a
// JSON-encoded string (sometimes double-encoded), a bare object, or NULL.
// NormalizeArrayJSON recovers a valid JSON array document from any of
// these shapes and never fails: unparseable input yields "[]".
func NormalizeArrayJSON(value interface{}) []byte {
	var raw string
	switch v := value.(type) {
	case nil:
		return []byte("[]")
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			log.Printf("normalize: cannot marshal %T, defaulting to empty array: %v", value, err)
			return []byte("[]")
		}
		raw = string(encoded)
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return []byte("[]")
	}

	// strip one layer of wrapping quotes (a stringified column value)
	if strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) && len(trimmed) >= 2 {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
			trimmed = strings.TrimSpace(inner)
		} else {
			trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		}
	}

	switch {
	case strings.HasPrefix(trimmed, "["):
		if json.Valid([]byte(trimmed)) {
			return []byte(trimmed)
		}
		log.Printf("normalize: malformed JSON array value, defaulting to empty array")
		return []byte("[]")
	case strings.HasPrefix(trimmed, "{"):
		// a write path once stored a single object; wrap it
		if json.Valid([]byte(trimmed)) {
			return []byte("[" + trimmed + "]")
		}
		log.Printf("normalize: malformed JSON object value, defaulting to empty array")
		return []byte("[]")
	default:
		log.Printf("normalize: unexpected JSON column value %q, defaulting to empty array", truncateForLog(trimmed))
		return []byte("[]")
	}
}

func truncateForLog(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}

// scanLooseList decodes a JSON column into dst (a pointer to a slice)
// through NormalizeArrayJSON. It never returns an error: recovery to an
// empty slice is the contract every consumer relies on.
func scanLooseList(value interface{}, dst interface{}) error {
	doc := NormalizeArrayJSON(value)
	if err := json.Unmarshal(doc, dst); err != nil {
		log.Printf("normalize: array elements do not match target type, defaulting to empty array: %v", err)
	}
	return nil
}

func marshalList(v interface{}) (driver.Value, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// TimelineEvent is one entry of a memorial's life journey.
type TimelineEvent struct {
	ID          string `json:"id,omitempty"`
	Year        string `json:"year"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Image       string `json:"image,omitempty"`
}

type TimelineEvents []TimelineEvent

func (t *TimelineEvents) Scan(value interface{}) error {
	*t = TimelineEvents{}
	return scanLooseList(value, t)
}

func (t TimelineEvents) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return marshalList(t)
}

// Favorite is a category plus free-text answer ("favorite food", etc).
// Older clients sent the answer under "item"; both are accepted.
type Favorite struct {
	ID       string `json:"id,omitempty"`
	Category string `json:"category"`
	Answer   string `json:"answer,omitempty"`
	Item     string `json:"item,omitempty"`
}

// Text returns whichever of answer/item is populated.
func (f Favorite) Text() string {
	if f.Answer != "" {
		return f.Answer
	}
	return f.Item
}

type Favorites []Favorite

func (f *Favorites) Scan(value interface{}) error {
	*f = Favorites{}
	return scanLooseList(value, f)
}

func (f Favorites) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	return marshalList(f)
}

// FamilyMember is one node of the family tree.
type FamilyMember struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Image    string `json:"image,omitempty"`
}

// Initials returns the upper-cased first letters of the member's name,
// used as the placeholder when no photo is set.
func (m FamilyMember) Initials() string {
	name := m.Name
	if name == "" {
		name = "Unknown"
	}
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		runes := []rune(part)
		b.WriteString(strings.ToUpper(string(runes[0])))
	}
	return b.String()
}

type FamilyMembers []FamilyMember

func (f *FamilyMembers) Scan(value interface{}) error {
	*f = FamilyMembers{}
	return scanLooseList(value, f)
}

func (f FamilyMembers) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	return marshalList(f)
}

// GalleryImage is one photo in the memorial gallery. caption/description/
// alt/title all alias the same concept across frontend revisions.
type GalleryImage struct {
	ID          string `json:"id,omitempty"`
	URL         string `json:"url"`
	Category    string `json:"category,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
	Alt         string `json:"alt,omitempty"`
	Title       string `json:"title,omitempty"`
	UploadedAt  string `json:"uploadedAt,omitempty"`
}

// DisplayCaption resolves the caption aliases in a fixed priority order.
func (g GalleryImage) DisplayCaption() string {
	for _, s := range []string{g.Caption, g.Description, g.Alt, g.Title} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

type GalleryImages []GalleryImage

func (g *GalleryImages) Scan(value interface{}) error {
	*g = GalleryImages{}
	return scanLooseList(value, g)
}

func (g GalleryImages) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	return marshalList(g)
}

// Tribute is one memory-wall entry. SessionID is the opaque client-held
// token that authorizes later edit/delete of the entry; it is the only
// ownership marker an anonymous visitor has.
type Tribute struct {
	ID             string `json:"id"`
	AuthorName     string `json:"authorName"`
	AuthorLocation string `json:"authorLocation,omitempty"`
	Message        string `json:"message"`
	AuthorImage    string `json:"authorImage,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
	IsPublic       bool   `json:"isPublic"`
	SessionID      string `json:"sessionId,omitempty"`
	IsAnonymous    bool   `json:"isAnonymous"`
}

type Tributes []Tribute

func (t *Tributes) Scan(value interface{}) error {
	*t = Tributes{}
	return scanLooseList(value, t)
}

func (t Tributes) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return marshalList(t)
}

// StringList is a JSON-encoded list of strings (memory image URLs).
type StringList []string

func (s *StringList) Scan(value interface{}) error {
	*s = StringList{}
	return scanLooseList(value, s)
}

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return marshalList(s)
}

// Guest is one entry of an RSVP's guest list.
type Guest struct {
	Name string `json:"name"`
}

type GuestList []Guest

func (g *GuestList) Scan(value interface{}) error {
	*g = GuestList{}
	return scanLooseList(value, g)
}

func (g GuestList) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	return marshalList(g)
}

// DefaultVirtualPlatform is used when service info omits a platform.
const DefaultVirtualPlatform = "zoom"

// DefaultGalleryCategory labels gallery images uploaded without one.
const DefaultGalleryCategory = "Other Memories"

// ServiceInfo is the nested service-details object on a memorial. It is
// stored as a single JSON column and is never an array.
type ServiceInfo struct {
	Venue           string `json:"venue"`
	Address         string `json:"address"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	VirtualLink     string `json:"virtualLink"`
	VirtualPlatform string `json:"virtualPlatform"`
}

func (s *ServiceInfo) Scan(value interface{}) error {
	*s = ServiceInfo{}
	var raw string
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
			trimmed = strings.TrimSpace(inner)
		}
	}
	if err := json.Unmarshal([]byte(trimmed), s); err != nil {
		log.Printf("normalize: malformed service info column, defaulting to empty: %v", err)
		*s = ServiceInfo{}
	}
	return nil
}

func (s ServiceInfo) Value() (driver.Value, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// WithDefaults fills every unset sub-field so the view model always
// carries all six keys.
func (s ServiceInfo) WithDefaults() ServiceInfo {
	if s.VirtualPlatform == "" {
		s.VirtualPlatform = DefaultVirtualPlatform
	}
	return s
}

// HasContent reports whether any row of the service section would render.
func (s ServiceInfo) HasContent() bool {
	return s.Venue != "" || s.Date != "" || s.VirtualLink != ""
}
