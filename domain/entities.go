package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Each entity family lives in its own dedicated database. Fields named *ID
// that point at another family are cross-shard references: no shard enforces
// them as foreign keys, and they are never resolved implicitly. Fetching the
// referenced row always goes through that family's repository.
//
// All identity columns are stored as 36-character canonical UUID text.
// created_at is stamped client-side at insert; updated_at is set on mutation.

// User is the one entity that is not organization-scoped.
type User struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Password  string // bcrypt hash; placeholder for the default service user
	CreatedAt time.Time
	UpdatedAt sql.NullTime
}

// Organization is the tenant root. Every other row carries its OrganizationID.
type Organization struct {
	OrganizationID uuid.UUID
	Name           string
	Timezone       string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// OrganizationUser links a user (users shard) into an organization.
type OrganizationUser struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Status         string
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// Collection is a named, colored grouping of resources within an organization.
type Collection struct {
	OrganizationID uuid.UUID
	CollectionID   uuid.UUID
	Name           string
	ColorCode      string
	Description    sql.NullString
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// CollectionResource associates a resource (resources shard) with a collection.
type CollectionResource struct {
	OrganizationID uuid.UUID
	CollectionID   uuid.UUID
	ResourceID     uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// Resource is the polymorphic pointer that unifies files, meetings and
// websites under one status/summary lifecycle. SourceEntityID always equals
// the primary key of the concrete entity in its own shard; the concrete
// entity is created with that id, so the invariant holds by construction.
type Resource struct {
	OrganizationID   uuid.UUID
	ResourceID       uuid.UUID
	SourceEntityType ResourceType
	SourceEntityID   uuid.UUID
	Status           ResourceStatus
	Name             string
	AISummary        sql.NullString
	CreatedAt        time.Time
	UpdatedAt        sql.NullTime
}

// File is an uploaded document. FileID equals the owning resource's
// SourceEntityID. Files are never physically deleted, only flagged.
type File struct {
	OrganizationID uuid.UUID
	FileID         uuid.UUID
	ResourceID     uuid.UUID
	Name           string
	Path           string
	MimeType       string
	UserID         uuid.UUID
	Deleted        sql.NullBool
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// Meeting is a recorded meeting. MeetingID equals the owning resource's
// SourceEntityID.
type Meeting struct {
	OrganizationID          uuid.UUID
	MeetingID               uuid.UUID
	ResourceID              uuid.UUID
	ProviderMeetingID       sql.NullString
	ProviderMeetingPassword sql.NullString
	ProviderMeetingURL      sql.NullString
	Provider                string
	Status                  string
	StatusUpdatedAt         time.Time
	Transcriptions          sql.NullString
	UserID                  uuid.UUID
	CreatedAt               time.Time
	UpdatedAt               sql.NullTime
}

// MeetingParticipant is a person who joined a meeting.
type MeetingParticipant struct {
	OrganizationID uuid.UUID
	MeetingID      uuid.UUID
	ParticipantID  uuid.UUID
	Name           string
	JoinedAt       sql.NullTime
	LeftAt         sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// MeetingRecording is one media track of a meeting. FileID points at the
// files shard; ParticipantID is set only for per-participant tracks.
type MeetingRecording struct {
	OrganizationID uuid.UUID
	MeetingID      uuid.UUID
	RecordingID    uuid.UUID
	ParticipantID  uuid.NullUUID
	FileID         uuid.UUID
	Type           string // "audio" or "video"
	Subtype        string // "mixed", "one-way", "share", "interpreter"
	Transcriptions sql.NullString
	StartedAt      sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// Website is a crawled site. WebsiteID equals the owning resource's
// SourceEntityID.
type Website struct {
	OrganizationID uuid.UUID
	WebsiteID      uuid.UUID
	ResourceID     uuid.UUID
	Name           string
	URL            string
	ParsedURLs     sql.NullString
	UserID         uuid.NullUUID
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// Chat is a conversation owned by one user.
type Chat struct {
	OrganizationID uuid.UUID
	ChatID         uuid.UUID
	OwnerUserID    uuid.UUID
	Type           string
	Summary        sql.NullString
	Name           string
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// ChatCollection attaches a collection (collections shard) to a chat.
type ChatCollection struct {
	OrganizationID uuid.UUID
	ChatID         uuid.UUID
	CollectionID   uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// ChatUser attaches a user (users shard) to a chat.
type ChatUser struct {
	OrganizationID uuid.UUID
	ChatID         uuid.UUID
	UserID         uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// ChatResource attaches a resource (resources shard) to a chat.
type ChatResource struct {
	OrganizationID uuid.UUID
	ChatID         uuid.UUID
	ResourceID     uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// ChatMessage is an append-only log entry in a chat, ordered by CreatedAt.
type ChatMessage struct {
	OrganizationID uuid.UUID
	ChatID         uuid.UUID
	MessageID      uuid.UUID
	UserID         uuid.NullUUID
	Type           string
	Content        string
	Arguments      Arguments
	IsSummarized   bool
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}
