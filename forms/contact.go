// ABOUTME: Create and edit form for contacts
// ABOUTME: Validates stage against tenant settings and sends only changed fields on edit
package forms

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
)

type ContactService interface {
	CreateContact(ctx context.Context, req models.ContactCreate) (*models.Contact, error)
	PatchContact(ctx context.Context, id uuid.UUID, patch models.ContactPatch) (*models.Contact, error)
}

type ContactValues struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Title          string
	OrganizationID *uuid.UUID
	Source         models.ContactSource
	Status         string
	Category       string
	Notes          string
	LinkedInURL    string
	Location       string
}

func contactValues(c *models.Contact) ContactValues {
	return ContactValues{
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		Phone:          c.Phone,
		Title:          c.Title,
		OrganizationID: c.OrganizationID,
		Source:         c.Source,
		Status:         c.Status,
		Category:       c.Category,
		Notes:          c.Notes,
		LinkedInURL:    c.LinkedInURL,
		Location:       c.Location,
	}
}

var contactSources = []string{
	string(models.SourceManual),
	string(models.SourceImport),
	string(models.SourceReferral),
	string(models.SourceInbound),
	string(models.SourceOther),
}

type ContactForm struct {
	Values     ContactValues
	Errors     FieldErrors
	Status     string
	Stages     []string
	Categories []string

	// Cache, when set, is refreshed after a successful save.
	Cache     *cache.Manager
	OnSuccess func(*models.Contact)

	svc      ContactService
	original *models.Contact
	guard    submitGuard
}

// NewContactForm starts a create form with the tenant's first stage preselected.
func NewContactForm(svc ContactService, settings *models.Settings) *ContactForm {
	return &ContactForm{
		Values:     ContactValues{Status: models.DefaultStage(settings), Source: models.SourceManual},
		Errors:     FieldErrors{},
		Stages:     models.AllowedStages(settings),
		Categories: models.CategorySuggestions(settings),
		svc:        svc,
	}
}

func EditContactForm(svc ContactService, c *models.Contact, settings *models.Settings) *ContactForm {
	f := NewContactForm(svc, settings)
	f.Values = contactValues(c)
	f.original = c
	return f
}

func (f *ContactForm) Editing() bool {
	return f.original != nil
}

func (f *ContactForm) Submitting() bool {
	return f.guard.active()
}

func (f *ContactForm) Validate() FieldErrors {
	fe := FieldErrors{}
	v := f.Values
	required(fe, "first_name", v.FirstName)
	maxLen(fe, "first_name", v.FirstName, 200)
	maxLen(fe, "last_name", v.LastName, 200)
	email(fe, "email", v.Email)
	webURL(fe, "linkedin_url", v.LinkedInURL)
	oneOf(fe, "source", string(v.Source), contactSources)
	unchanged := f.original != nil && v.Status == f.original.Status
	if strings.TrimSpace(v.Status) != "" && !unchanged {
		if _, err := models.ValidateStage(v.Status, f.Stages); err != nil {
			fe.add("status", "must be one of "+strings.Join(f.Stages, ", "))
		}
	}
	f.Errors = fe
	return fe
}

// Submit validates, then creates or patches. Values are kept on failure.
func (f *ContactForm) Submit(ctx context.Context) (*models.Contact, error) {
	if !f.guard.begin() {
		return nil, ErrPending
	}
	defer f.guard.end()

	if err := f.Validate().Err(); err != nil {
		f.Status = ""
		return nil, err
	}

	var (
		saved *models.Contact
		err   error
	)
	if f.Editing() {
		patch := f.patch()
		if patch.IsEmpty() {
			f.Status = "No changes"
			return f.original, nil
		}
		saved, err = f.svc.PatchContact(ctx, f.original.ID, patch)
	} else {
		saved, err = f.svc.CreateContact(ctx, f.create())
	}
	if err != nil {
		f.Status = err.Error()
		return nil, err
	}

	f.Status = "Saved " + saved.DisplayName()
	if f.Cache != nil {
		f.Cache.Mutate(api.ContactKey(saved.ID), saved)
		query.ContactsChanged(f.Cache)
	}
	if f.OnSuccess != nil {
		f.OnSuccess(saved)
	}
	return saved, nil
}

func (f *ContactForm) create() models.ContactCreate {
	v := f.Values
	status := ""
	if s, err := models.ValidateStage(v.Status, f.Stages); err == nil {
		status = s
	}
	return models.ContactCreate{
		FirstName:      strings.TrimSpace(v.FirstName),
		LastName:       strings.TrimSpace(v.LastName),
		Email:          strings.TrimSpace(v.Email),
		Phone:          strings.TrimSpace(v.Phone),
		Title:          strings.TrimSpace(v.Title),
		OrganizationID: v.OrganizationID,
		Source:         v.Source,
		Status:         status,
		Category:       strings.TrimSpace(v.Category),
		Notes:          strings.TrimSpace(v.Notes),
		LinkedInURL:    strings.TrimSpace(v.LinkedInURL),
		Location:       strings.TrimSpace(v.Location),
	}
}

func (f *ContactForm) patch() models.ContactPatch {
	o, v := f.original, f.Values
	p := models.ContactPatch{
		FirstName:   changed(o.FirstName, v.FirstName),
		LastName:    changed(o.LastName, v.LastName),
		Email:       changed(o.Email, v.Email),
		Phone:       changed(o.Phone, v.Phone),
		Title:       changed(o.Title, v.Title),
		Category:    changed(o.Category, v.Category),
		Notes:       changed(o.Notes, v.Notes),
		LinkedInURL: changed(o.LinkedInURL, v.LinkedInURL),
		Location:    changed(o.Location, v.Location),
	}
	if s, err := models.ValidateStage(v.Status, f.Stages); err == nil && s != o.Status {
		p.Status = &s
	}
	if v.Source != o.Source && v.Source != "" {
		src := v.Source
		p.Source = &src
	}
	if !sameID(o.OrganizationID, v.OrganizationID) {
		p.OrganizationID = models.NullUUIDFrom(v.OrganizationID)
	}
	return p
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
