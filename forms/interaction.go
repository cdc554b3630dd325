// ABOUTME: Form for logging an interaction against a contact or organization
// ABOUTME: Parses the occurred-at time and checks attendee references before posting
package forms

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
)

type InteractionService interface {
	CreateInteraction(ctx context.Context, req models.InteractionCreate) (*models.Interaction, error)
}

type InteractionValues struct {
	ContactID      *uuid.UUID
	OrganizationID *uuid.UUID
	Type           models.InteractionType
	Title          string
	Summary        string
	// OccurredAt accepts RFC 3339 or a bare 2006-01-02 date; empty means now on the server.
	OccurredAt string
	Attendees  []models.AttendeeInput
}

var interactionTypes = []string{
	string(models.InteractionNote),
	string(models.InteractionCall),
	string(models.InteractionEmail),
	string(models.InteractionMeeting),
	string(models.InteractionEvent),
}

type InteractionForm struct {
	Values InteractionValues
	Errors FieldErrors
	Status string

	Cache     *cache.Manager
	OnSuccess func(*models.Interaction)

	svc   InteractionService
	guard submitGuard
}

func NewInteractionForm(svc InteractionService, contactID, orgID *uuid.UUID) *InteractionForm {
	return &InteractionForm{
		Values: InteractionValues{ContactID: contactID, OrganizationID: orgID, Type: models.InteractionNote},
		Errors: FieldErrors{},
		svc:    svc,
	}
}

func parseOccurredAt(v string) (*time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	return nil, false
}

func (f *InteractionForm) Validate() FieldErrors {
	fe := FieldErrors{}
	v := f.Values
	if v.ContactID == nil && v.OrganizationID == nil {
		fe.add("contact_id", "a contact or organization is required")
	}
	required(fe, "type", string(v.Type))
	oneOf(fe, "type", string(v.Type), interactionTypes)
	required(fe, "title", v.Title)
	maxLen(fe, "title", v.Title, 300)
	if _, ok := parseOccurredAt(v.OccurredAt); !ok {
		fe.add("occurred_at", "must be a date (2006-01-02) or RFC 3339 time")
	}
	for _, a := range v.Attendees {
		if err := a.Validate(); err != nil {
			fe.add("attendees", err.Error())
		}
	}
	f.Errors = fe
	return fe
}

func (f *InteractionForm) Submit(ctx context.Context) (*models.Interaction, error) {
	if !f.guard.begin() {
		return nil, ErrPending
	}
	defer f.guard.end()

	if err := f.Validate().Err(); err != nil {
		f.Status = ""
		return nil, err
	}
	v := f.Values
	occurred, _ := parseOccurredAt(v.OccurredAt)

	saved, err := f.svc.CreateInteraction(ctx, models.InteractionCreate{
		ContactID:      v.ContactID,
		OrganizationID: v.OrganizationID,
		Type:           v.Type,
		Title:          strings.TrimSpace(v.Title),
		Summary:        strings.TrimSpace(v.Summary),
		OccurredAt:     occurred,
		Attendees:      dedupeAttendees(v.Attendees),
	})
	if err != nil {
		f.Status = err.Error()
		return nil, err
	}

	f.Status = "Logged " + string(saved.Type)
	if f.Cache != nil {
		query.InteractionsChanged(f.Cache)
	}
	if f.OnSuccess != nil {
		f.OnSuccess(saved)
	}
	return saved, nil
}

// dedupeAttendees merges repeated references; an organizer role wins over attendee.
func dedupeAttendees(in []models.AttendeeInput) []models.AttendeeInput {
	if len(in) == 0 {
		return nil
	}
	var out []models.AttendeeInput
	index := map[string]int{}
	for _, a := range in {
		var key string
		if a.UserID != nil {
			key = "u:" + a.UserID.String()
		} else {
			key = "c:" + a.ContactID.String()
		}
		if i, ok := index[key]; ok {
			if a.Role == models.RoleOrganizer {
				out[i].Role = models.RoleOrganizer
			}
			continue
		}
		index[key] = len(out)
		out = append(out, a)
	}
	return out
}
