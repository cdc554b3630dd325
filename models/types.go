// ABOUTME: Data models for CRM entities returned by the CRM REST API
// ABOUTME: Defines Contact, Organization, Interaction, Tag, Settings and paging shapes
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ContactSource string

const (
	SourceManual   ContactSource = "manual"
	SourceImport   ContactSource = "import"
	SourceReferral ContactSource = "referral"
	SourceInbound  ContactSource = "inbound"
	SourceOther    ContactSource = "other"
)

type OrganizationType string

const (
	OrgCustomer OrganizationType = "customer"
	OrgProspect OrganizationType = "prospect"
	OrgPartner  OrganizationType = "partner"
	OrgVendor   OrganizationType = "vendor"
	OrgOther    OrganizationType = "other"
)

type InteractionType string

const (
	InteractionNote    InteractionType = "note"
	InteractionCall    InteractionType = "call"
	InteractionEmail   InteractionType = "email"
	InteractionMeeting InteractionType = "meeting"
	InteractionEvent   InteractionType = "event"
)

type AttendeeRole string

const (
	RoleOrganizer AttendeeRole = "organizer"
	RoleAttendee  AttendeeRole = "attendee"
)

type EntityType string

const (
	EntityContact      EntityType = "contact"
	EntityOrganization EntityType = "organization"
	EntityInteraction  EntityType = "interaction"
	EntityTag          EntityType = "tag"
)

type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Contact struct {
	ID             uuid.UUID     `json:"id"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name,omitempty"`
	FullName       string        `json:"full_name,omitempty"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Title          string        `json:"title,omitempty"`
	OrganizationID *uuid.UUID    `json:"organization_id,omitempty"`
	OwnerIDs       []uuid.UUID   `json:"owner_ids"`
	Source         ContactSource `json:"source,omitempty"`
	Status         string        `json:"status"`
	Category       string        `json:"category,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	LinkedInURL    string        `json:"linkedin_url,omitempty"`
	Location       string        `json:"location,omitempty"`
	CreatedBy      *uuid.UUID    `json:"created_by,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Tags           []Tag         `json:"tags"`
}

// DisplayName prefers the server-computed full name.
func (c Contact) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	return c.Email
}

type Organization struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Website   string           `json:"website,omitempty"`
	Type      OrganizationType `json:"type,omitempty"`
	Sector    string           `json:"sector,omitempty"`
	Location  string           `json:"location,omitempty"`
	Size      string           `json:"size,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	CreatedBy *uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Tags      []Tag            `json:"tags"`
}

type Attendee struct {
	ID          int          `json:"id"`
	UserID      *uuid.UUID   `json:"user_id,omitempty"`
	ContactID   *uuid.UUID   `json:"contact_id,omitempty"`
	Role        AttendeeRole `json:"role"`
	DisplayName string       `json:"display_name,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Interaction struct {
	ID             uuid.UUID       `json:"id"`
	ContactID      *uuid.UUID      `json:"contact_id,omitempty"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty"`
	LoggedBy       *uuid.UUID      `json:"logged_by,omitempty"`
	Type           InteractionType `json:"type"`
	Title          string          `json:"title,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	OccurredAt     *time.Time      `json:"occurred_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Attendees      []Attendee      `json:"attendees"`
}

type SearchResultItem struct {
	EntityType    EntityType `json:"entity_type"`
	EntityID      uuid.UUID  `json:"entity_id"`
	PrimaryText   string     `json:"primary_text"`
	SecondaryText string     `json:"secondary_text,omitempty"`
	Rank          float64    `json:"rank"`
	SortAt        *time.Time `json:"sort_at,omitempty"`
}

// Page is the envelope every list endpoint returns.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalItems int `json:"total_items"`
}

// HasTag reports whether tags already contains id.
func HasTag(tags []Tag, id uuid.UUID) bool {
	for _, t := range tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// MergeTags appends tags from extra that are not already present, keeping order.
func MergeTags(tags []Tag, extra ...Tag) []Tag {
	out := make([]Tag, 0, len(tags)+len(extra))
	seen := make(map[uuid.UUID]bool, len(tags)+len(extra))
	for _, t := range append(append([]Tag{}, tags...), extra...) {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
