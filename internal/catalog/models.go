package catalog

import (
	"context"
	"slices"
	"strings"
	"time"
)

// AssetStatus is the local publication status of an asset.
type AssetStatus int

const (
	StatusPrototype AssetStatus = -2
	StatusNew       AssetStatus = -1
	StatusPublished AssetStatus = 0
	StatusBlocked   AssetStatus = 1
	StatusHidden    AssetStatus = 2
)

func (s AssetStatus) String() string {
	switch s {
	case StatusPrototype:
		return "prototype"
	case StatusNew:
		return "new"
	case StatusPublished:
		return "published"
	case StatusBlocked:
		return "blocked"
	case StatusHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// BroadcastPublic is the only embedded broadcast type eligible for publication.
const BroadcastPublic = "public"

// LegacyProperty flags assets migrated from the first catalog generation.
const LegacyProperty = "pumukit1id"

// LoginProperty marks a tag as a remote account reference.
const LoginProperty = "login"

// Series groups assets; hidden series are omitted from descriptions.
type Series struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Track is a media file attached to an asset.
type Track struct {
	ID        string   `json:"id"`
	Path      string   `json:"path"`
	Tags      []string `json:"tags,omitempty"`
	Format    string   `json:"format,omitempty"`
	OnlyAudio bool     `json:"only_audio,omitempty"`
	Language  string   `json:"language,omitempty"`
}

// HasTag reports whether the track carries tag.
func (t Track) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Extension returns the container format, falling back to the file extension.
func (t Track) Extension() string {
	if format := strings.TrimSpace(t.Format); format != "" {
		return strings.ToLower(format)
	}
	idx := strings.LastIndex(t.Path, ".")
	if idx < 0 || idx == len(t.Path)-1 {
		return ""
	}
	return strings.ToLower(t.Path[idx+1:])
}

// Material is a non-video attachment; caption files are materials.
type Material struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Path     string `json:"path"`
	Hidden   bool   `json:"hidden,omitempty"`
}

// Person is a participant credited in the description.
type Person struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// Asset is a local media object eligible for remote publication.
type Asset struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle,omitempty"`
	Description string            `json:"description,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	Series      Series            `json:"series"`
	RecordDate  time.Time         `json:"record_date,omitzero"`
	Status      AssetStatus       `json:"status"`
	Broadcast   string            `json:"broadcast"`
	Tags        []string          `json:"tags,omitempty"`
	Tracks      []Track           `json:"tracks,omitempty"`
	Materials   []Material        `json:"materials,omitempty"`
	People      []Person          `json:"people,omitempty"`
	PendingJobs int               `json:"pending_jobs,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Locale      string            `json:"locale,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at,omitzero"`
}

// HasTag reports whether the asset carries the tag code.
func (a *Asset) HasTag(code string) bool {
	return slices.Contains(a.Tags, code)
}

// AddTag attaches code and reports whether the asset changed.
func (a *Asset) AddTag(code string) bool {
	if code == "" || a.HasTag(code) {
		return false
	}
	a.Tags = append(a.Tags, code)
	return true
}

// RemoveTag detaches code and reports whether the asset changed.
func (a *Asset) RemoveTag(code string) bool {
	idx := slices.Index(a.Tags, code)
	if idx < 0 {
		return false
	}
	a.Tags = slices.Delete(a.Tags, idx, idx+1)
	return true
}

// Property returns a trimmed property value.
func (a *Asset) Property(key string) string {
	if a.Properties == nil {
		return ""
	}
	return strings.TrimSpace(a.Properties[key])
}

// IsLegacy reports whether the asset was migrated from the first catalog generation.
func (a *Asset) IsLegacy() bool {
	return a.Property(LegacyProperty) != ""
}

// Material returns the material with the given id.
func (a *Asset) Material(id string) (Material, bool) {
	for _, m := range a.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return Material{}, false
}

// Tag is a node in the catalog tag tree.
type Tag struct {
	Code       string            `json:"code"`
	ParentCode string            `json:"parent_code,omitempty"`
	Title      string            `json:"title"`
	RemoteID   string            `json:"remote_id,omitempty"`
	IsPlaylist bool              `json:"is_playlist,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Login returns the remote account login for account reference tags.
func (t *Tag) Login() string {
	if t == nil || t.Properties == nil {
		return ""
	}
	return strings.TrimSpace(t.Properties[LoginProperty])
}

// Repository is the read/write surface the bridge needs from the catalog.
// AssetByID returns nil, nil when the asset does not exist.
type Repository interface {
	FindAssets(ctx context.Context, predicate func(*Asset) bool) ([]*Asset, error)
	AssetByID(ctx context.Context, id string) (*Asset, error)
	SaveAsset(ctx context.Context, asset *Asset) error
	Tags(ctx context.Context) ([]*Tag, error)
	SaveTag(ctx context.Context, tag *Tag) error
	DeleteTag(ctx context.Context, code string) error
}
