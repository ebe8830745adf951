package models

import (
	"time"

	"github.com/wings-of-memory/memorialbackend/utils"
)

// TributeView is a tribute plus its derived display-only relative time.
type TributeView struct {
	Tribute
	RelativeTime string `json:"relativeTime,omitempty"`
}

// MemorialView is the normalized, fully-defaulted shape of a memorial
// used uniformly by the JSON API and the PDF template. Every collection
// is a non-nil slice, service carries all six sub-fields, tributes
// aliases the memory wall, and the separately-stored memories rows are
// attached. This is the only shape the template renderer consumes.
type MemorialView struct {
	ID           string         `json:"id"`
	UserID       *string        `json:"userId,omitempty"`
	Name         string         `json:"name"`
	ProfileImage string         `json:"profileImage"`
	BirthDate    string         `json:"birthDate"`
	DeathDate    string         `json:"deathDate"`
	Location     string         `json:"location"`
	Obituary     string         `json:"obituary"`
	Timeline     TimelineEvents `json:"timeline"`
	Favorites    Favorites      `json:"favorites"`
	FamilyTree   FamilyMembers  `json:"familyTree"`
	Gallery      GalleryImages  `json:"gallery"`
	MemoryWall   []TributeView  `json:"memoryWall"`
	Tributes     []TributeView  `json:"tributes"`
	Service      ServiceInfo    `json:"service"`
	ServiceInfo  ServiceInfo    `json:"serviceInfo"`
	Memories     []Memory       `json:"memories"`
	IsPublished  bool           `json:"isPublished"`
	CustomURL    string         `json:"customUrl"`
	Theme        string         `json:"theme"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ViewOptions controls derived fields of a MemorialView.
type ViewOptions struct {
	// WithRelativeTime stamps each tribute with its age. Public reads
	// want it; the owner dashboard and PDF data path do not.
	WithRelativeTime bool
	// Now is the reference time for relative stamping; zero means
	// time.Now().
	Now time.Time
}

// NewMemorialView assembles the view model from a memorial row and its
// related memory rows. The collection columns have already been
// normalized to arrays by their Scan implementations; this fills the
// remaining defaults in one place so no call site merges shapes ad hoc.
func NewMemorialView(m *Memorial, memories []Memory, opts ViewOptions) MemorialView {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	name := m.Name
	if name == "" {
		name = "Unnamed Memorial"
	}
	theme := m.Theme
	if theme == "" {
		theme = "default"
	}

	wall := make([]TributeView, 0, len(m.MemoryWall))
	for _, tribute := range m.MemoryWall {
		wall = append(wall, NewTributeView(tribute, opts.WithRelativeTime, now))
	}

	if memories == nil {
		memories = []Memory{}
	}

	service := m.ServiceInfo.WithDefaults()

	return MemorialView{
		ID:           m.ID,
		UserID:       m.UserID,
		Name:         name,
		ProfileImage: m.ProfileImage,
		BirthDate:    m.BirthDate,
		DeathDate:    m.DeathDate,
		Location:     m.Location,
		Obituary:     m.Obituary,
		Timeline:     emptyIfNil(m.Timeline),
		Favorites:    emptyIfNilFavorites(m.Favorites),
		FamilyTree:   emptyIfNilFamily(m.FamilyTree),
		Gallery:      emptyIfNilGallery(m.Gallery),
		MemoryWall:   wall,
		Tributes:     wall,
		Service:      service,
		ServiceInfo:  service,
		Memories:     memories,
		IsPublished:  m.IsPublished,
		CustomURL:    m.CustomURLValue(),
		Theme:        theme,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// NewTributeView wraps a tribute, optionally stamping its age relative
// to now.
func NewTributeView(t Tribute, withRelativeTime bool, now time.Time) TributeView {
	view := TributeView{Tribute: t}
	if withRelativeTime {
		view.RelativeTime = utils.RelativeTime(tributeCreationTime(t, now), now)
	}
	return view
}

// tributeCreationTime parses the stored RFC3339 creation stamp, falling
// back to now when missing or malformed (so a bad stamp reads "just now"
// instead of breaking the page).
func tributeCreationTime(t Tribute, now time.Time) time.Time {
	if t.CreatedAt == "" {
		return now
	}
	parsed, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return now
	}
	return parsed
}

func emptyIfNil(v TimelineEvents) TimelineEvents {
	if v == nil {
		return TimelineEvents{}
	}
	return v
}

func emptyIfNilFavorites(v Favorites) Favorites {
	if v == nil {
		return Favorites{}
	}
	return v
}

func emptyIfNilFamily(v FamilyMembers) FamilyMembers {
	if v == nil {
		return FamilyMembers{}
	}
	return v
}

func emptyIfNilGallery(v GalleryImages) GalleryImages {
	if v == nil {
		return GalleryImages{}
	}
	return v
}
