// ABOUTME: Create and edit form for organizations
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

type OrganizationService interface {
	CreateOrganization(ctx context.Context, req models.OrganizationCreate) (*models.Organization, error)
	PatchOrganization(ctx context.Context, id uuid.UUID, patch models.OrganizationPatch) (*models.Organization, error)
}

type OrganizationValues struct {
	Name     string
	Website  string
	Type     models.OrganizationType
	Sector   string
	Location string
	Size     string
	Notes    string
}

var organizationTypes = []string{
	string(models.OrgCustomer),
	string(models.OrgProspect),
	string(models.OrgPartner),
	string(models.OrgVendor),
	string(models.OrgOther),
}

type OrganizationForm struct {
	Values OrganizationValues
	Errors FieldErrors
	Status string

	Cache     *cache.Manager
	OnSuccess func(*models.Organization)

	svc      OrganizationService
	original *models.Organization
	guard    submitGuard
}

func NewOrganizationForm(svc OrganizationService) *OrganizationForm {
	return &OrganizationForm{Errors: FieldErrors{}, svc: svc}
}

func EditOrganizationForm(svc OrganizationService, o *models.Organization) *OrganizationForm {
	f := NewOrganizationForm(svc)
	f.original = o
	f.Values = OrganizationValues{
		Name:     o.Name,
		Website:  o.Website,
		Type:     o.Type,
		Sector:   o.Sector,
		Location: o.Location,
		Size:     o.Size,
		Notes:    o.Notes,
	}
	return f
}

func (f *OrganizationForm) Editing() bool {
	return f.original != nil
}

func (f *OrganizationForm) Validate() FieldErrors {
	fe := FieldErrors{}
	required(fe, "name", f.Values.Name)
	maxLen(fe, "name", f.Values.Name, 200)
	webURL(fe, "website", f.Values.Website)
	oneOf(fe, "type", string(f.Values.Type), organizationTypes)
	f.Errors = fe
	return fe
}

func (f *OrganizationForm) Submit(ctx context.Context) (*models.Organization, error) {
	if !f.guard.begin() {
		return nil, ErrPending
	}
	defer f.guard.end()

	if err := f.Validate().Err(); err != nil {
		f.Status = ""
		return nil, err
	}

	var (
		saved *models.Organization
		err   error
	)
	v := f.Values
	if f.Editing() {
		o := f.original
		patch := models.OrganizationPatch{
			Name:     changed(o.Name, v.Name),
			Website:  changed(o.Website, v.Website),
			Sector:   changed(o.Sector, v.Sector),
			Location: changed(o.Location, v.Location),
			Size:     changed(o.Size, v.Size),
			Notes:    changed(o.Notes, v.Notes),
		}
		if v.Type != "" && v.Type != o.Type {
			t := v.Type
			patch.Type = &t
		}
		if patch.IsEmpty() {
			f.Status = "No changes"
			return o, nil
		}
		saved, err = f.svc.PatchOrganization(ctx, o.ID, patch)
	} else {
		saved, err = f.svc.CreateOrganization(ctx, models.OrganizationCreate{
			Name:     strings.TrimSpace(v.Name),
			Website:  strings.TrimSpace(v.Website),
			Type:     v.Type,
			Sector:   strings.TrimSpace(v.Sector),
			Location: strings.TrimSpace(v.Location),
			Size:     strings.TrimSpace(v.Size),
			Notes:    strings.TrimSpace(v.Notes),
		})
	}
	if err != nil {
		f.Status = err.Error()
		return nil, err
	}

	f.Status = "Saved " + saved.Name
	if f.Cache != nil {
		f.Cache.Mutate(api.OrganizationKey(saved.ID), saved)
		query.OrganizationsChanged(f.Cache)
	}
	if f.OnSuccess != nil {
		f.OnSuccess(saved)
	}
	return saved, nil
}
