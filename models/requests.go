// ABOUTME: Request payloads sent to the CRM API for create and patch operations
// ABOUTME: Patch types use pointer fields so only changed keys are serialized
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type ContactCreate struct {
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name,omitempty"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Title          string        `json:"title,omitempty"`
	OrganizationID *uuid.UUID    `json:"organization_id,omitempty"`
	OwnerIDs       []uuid.UUID   `json:"owner_ids,omitempty"`
	Source         ContactSource `json:"source,omitempty"`
	Status         string        `json:"status,omitempty"`
	Category       string        `json:"category,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	LinkedInURL    string        `json:"linkedin_url,omitempty"`
	Location       string        `json:"location,omitempty"`
}

type ContactPatch struct {
	FirstName      *string        `json:"first_name,omitempty"`
	LastName       *string        `json:"last_name,omitempty"`
	Email          *string        `json:"email,omitempty"`
	Phone          *string        `json:"phone,omitempty"`
	Title          *string        `json:"title,omitempty"`
	OrganizationID *NullUUID      `json:"organization_id,omitempty"`
	OwnerIDs       *[]uuid.UUID   `json:"owner_ids,omitempty"`
	Source         *ContactSource `json:"source,omitempty"`
	Status         *string        `json:"status,omitempty"`
	Category       *string        `json:"category,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	LinkedInURL    *string        `json:"linkedin_url,omitempty"`
	Location       *string        `json:"location,omitempty"`
}

func (p ContactPatch) IsEmpty() bool {
	return p == ContactPatch{}
}

// NullUUID is a patch value that can also clear a reference: an invalid
// NullUUID encodes as JSON null. Leave the patch field nil to omit the key.
type NullUUID struct {
	UUID  uuid.UUID
	Valid bool
}

// NullUUIDFrom sets the reference to id, or clears it when id is nil.
func NullUUIDFrom(id *uuid.UUID) *NullUUID {
	if id == nil {
		return &NullUUID{}
	}
	return &NullUUID{UUID: *id, Valid: true}
}

// Ptr returns the referenced id, or nil for a cleared reference.
func (n NullUUID) Ptr() *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func (n NullUUID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.UUID)
}

func (n *NullUUID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullUUID{}
		return nil
	}
	if err := json.Unmarshal(data, &n.UUID); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

type OrganizationCreate struct {
	Name     string           `json:"name"`
	Website  string           `json:"website,omitempty"`
	Type     OrganizationType `json:"type,omitempty"`
	Sector   string           `json:"sector,omitempty"`
	Location string           `json:"location,omitempty"`
	Size     string           `json:"size,omitempty"`
	Notes    string           `json:"notes,omitempty"`
}

type OrganizationPatch struct {
	Name     *string           `json:"name,omitempty"`
	Website  *string           `json:"website,omitempty"`
	Type     *OrganizationType `json:"type,omitempty"`
	Sector   *string           `json:"sector,omitempty"`
	Location *string           `json:"location,omitempty"`
	Size     *string           `json:"size,omitempty"`
	Notes    *string           `json:"notes,omitempty"`
}

func (p OrganizationPatch) IsEmpty() bool {
	return p == OrganizationPatch{}
}

// AttendeeInput names exactly one of a user or a contact.
type AttendeeInput struct {
	UserID    *uuid.UUID   `json:"user_id,omitempty"`
	ContactID *uuid.UUID   `json:"contact_id,omitempty"`
	Role      AttendeeRole `json:"role,omitempty"`
}

var ErrAttendeeTarget = errors.New("attendee must reference exactly one of user_id or contact_id")

func (a AttendeeInput) Validate() error {
	if (a.UserID == nil) == (a.ContactID == nil) {
		return ErrAttendeeTarget
	}
	return nil
}

type InteractionCreate struct {
	ContactID      *uuid.UUID      `json:"contact_id,omitempty"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty"`
	Type           InteractionType `json:"type"`
	Title          string          `json:"title"`
	Summary        string          `json:"summary,omitempty"`
	OccurredAt     *time.Time      `json:"occurred_at,omitempty"`
	Attendees      []AttendeeInput `json:"attendees,omitempty"`
}

type TagCreate struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type SettingsPatch struct {
	Enabled                    *bool     `json:"enabled,omitempty"`
	Tier2Enabled               *bool     `json:"tier2_enabled,omitempty"`
	Tier3Deals                 *bool     `json:"tier3_deals,omitempty"`
	Tier3CustomFields          *bool     `json:"tier3_custom_fields,omitempty"`
	ContactStageOptions        *[]string `json:"contact_stage_options,omitempty"`
	ContactCategorySuggestions *[]string `json:"contact_category_suggestions,omitempty"`
}

func (p SettingsPatch) IsEmpty() bool {
	return p == SettingsPatch{}
}

// Apply returns s with every set field of p written over it. s is not modified.
func (p SettingsPatch) Apply(s Settings) Settings {
	out := s.Clone()
	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	if p.Tier2Enabled != nil {
		out.Tier2Enabled = *p.Tier2Enabled
	}
	if p.Tier3Deals != nil {
		out.Tier3Deals = *p.Tier3Deals
	}
	if p.Tier3CustomFields != nil {
		out.Tier3CustomFields = *p.Tier3CustomFields
	}
	if p.ContactStageOptions != nil {
		out.ContactStageOptions = NormalizeStages(*p.ContactStageOptions)
	}
	if p.ContactCategorySuggestions != nil {
		out.ContactCategorySuggestions = NormalizeCategories(*p.ContactCategorySuggestions)
	}
	return out
}
