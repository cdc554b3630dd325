// ABOUTME: Route handlers of the fake CRM API
// ABOUTME: Implements filtering, paging, stage validation and tag toggles in memory
package crmtest

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/models"
)

// AddContact stores c as-is, filling id, status and timestamps when missing.
func (s *Server) AddContact(c models.Contact) models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = models.DefaultStage(&s.settings)
	}
	if c.FullName == "" {
		c.FullName = strings.TrimSpace(c.FirstName + " " + c.LastName)
	}
	if c.Tags == nil {
		c.Tags = []models.Tag{}
	}
	if c.OwnerIDs == nil {
		c.OwnerIDs = []uuid.UUID{}
	}
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.contacts = append(s.contacts, &c)
	return c
}

func (s *Server) AddOrganization(o models.Organization) models.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Tags == nil {
		o.Tags = []models.Tag{}
	}
	o.CreatedAt, o.UpdatedAt = s.now(), s.now()
	s.orgs = append(s.orgs, &o)
	return o
}

func (s *Server) AddTag(name string) models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Tag{ID: uuid.New(), Name: name, CreatedAt: s.now()}
	s.tags = append(s.tags, &t)
	return t
}

func (s *Server) AddInteraction(i models.Interaction) models.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Attendees == nil {
		i.Attendees = []models.Attendee{}
	}
	i.CreatedAt, i.UpdatedAt = s.now(), s.now()
	s.interactions = append(s.interactions, &i)
	return i
}

func (s *Server) SetSettings(settings models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.Clone()
}

func (s *Server) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// Contact returns the stored contact with id.
func (s *Server) Contact(id uuid.UUID) (models.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.findContact(id); c != nil {
		return *c, true
	}
	return models.Contact{}, false
}

func (s *Server) Tags() []models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, *t)
	}
	return out
}

func (s *Server) findContact(id uuid.UUID) *models.Contact {
	for _, c := range s.contacts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// emailTaken reports whether a contact other than self already uses email.
func (s *Server) emailTaken(email string, self uuid.UUID) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, c := range s.contacts {
		if c.ID != self && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

func (s *Server) findOrg(id uuid.UUID) *models.Organization {
	for _, o := range s.orgs {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (s *Server) findTag(id uuid.UUID) *models.Tag {
	for _, t := range s.tags {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Settings())
}

func (s *Server) patchSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if patch.ContactStageOptions != nil && len(models.NormalizeStages(*patch.ContactStageOptions)) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "contact_stage_options must not be empty")
		return
	}

	s.mu.Lock()
	s.settings = patch.Apply(s.settings)
	now := s.now()
	uid := UserID
	s.settings.UpdatedAt = &now
	s.settings.UpdatedBy = &uid
	out := s.settings.Clone()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	p, ok := readPaging(w, r)
	if !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusUnprocessableEntity, "q is required")
		return
	}
	want := map[models.EntityType]bool{}
	for _, t := range r.URL.Query()["entity_types"] {
		want[models.EntityType(t)] = true
	}
	include := func(t models.EntityType) bool { return len(want) == 0 || want[t] }

	s.mu.Lock()
	var items []models.SearchResultItem
	if include(models.EntityContact) {
		for _, c := range s.contacts {
			if containsFold(c.FullName, q) || containsFold(c.Email, q) {
				items = append(items, models.SearchResultItem{EntityType: models.EntityContact, EntityID: c.ID, PrimaryText: c.FullName, SecondaryText: c.Email, Rank: 1})
			}
		}
	}
	if include(models.EntityOrganization) {
		for _, o := range s.orgs {
			if containsFold(o.Name, q) {
				items = append(items, models.SearchResultItem{EntityType: models.EntityOrganization, EntityID: o.ID, PrimaryText: o.Name, SecondaryText: o.Website, Rank: 1})
			}
		}
	}
	if include(models.EntityInteraction) {
		for _, i := range s.interactions {
			if containsFold(i.Title, q) || containsFold(i.Summary, q) {
				items = append(items, models.SearchResultItem{EntityType: models.EntityInteraction, EntityID: i.ID, PrimaryText: i.Title, SecondaryText: string(i.Type), Rank: 0.5})
			}
		}
	}
	if include(models.EntityTag) {
		for _, t := range s.tags {
			if containsFold(t.Name, q) {
				items = append(items, models.SearchResultItem{EntityType: models.EntityTag, EntityID: t.ID, PrimaryText: t.Name, Rank: 0.25})
			}
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, pageOf(items, p))
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	p, ok := readPaging(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	tagIDs := parseIDs(q["tag_ids"])

	s.mu.Lock()
	var items []models.Contact
	for _, c := range s.contacts {
		if query != "" && !containsFold(c.FullName, query) && !containsFold(c.Email, query) {
			continue
		}
		if v := q.Get("status"); v != "" && c.Status != v {
			continue
		}
		if v := q.Get("category"); v != "" && c.Category != v {
			continue
		}
		if v := q.Get("organization_id"); v != "" && (c.OrganizationID == nil || c.OrganizationID.String() != v) {
			continue
		}
		if len(tagIDs) > 0 && !hasAnyTag(c.Tags, tagIDs) {
			continue
		}
		items = append(items, *c)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, pageOf(items, p))
}

const duplicateEmail = "A CRM contact with this email already exists."

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if strings.TrimSpace(req.FirstName) == "" {
		writeError(w, http.StatusUnprocessableEntity, "first_name is required")
		return
	}

	settings := s.Settings()
	status := models.DefaultStage(&settings)
	if req.Status != "" {
		v, err := models.ValidateStage(req.Status, models.AllowedStages(&settings))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		status = v
	}
	source := req.Source
	if source == "" {
		source = models.SourceManual
	}
	s.mu.Lock()
	taken := s.emailTaken(req.Email, uuid.Nil)
	s.mu.Unlock()
	if taken {
		writeError(w, http.StatusConflict, duplicateEmail)
		return
	}
	uid := UserID

	c := s.AddContact(models.Contact{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Title:          req.Title,
		OrganizationID: req.OrganizationID,
		OwnerIDs:       req.OwnerIDs,
		Source:         source,
		Status:         status,
		Category:       req.Category,
		Notes:          req.Notes,
		LinkedInURL:    req.LinkedInURL,
		Location:       req.Location,
		CreatedBy:      &uid,
	})
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}
	c, found := s.Contact(id)
	if !found {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) patchContact(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	var patch models.ContactPatch
	keys, err := decodePatch(r, &patch)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	settings := s.Settings()

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findContact(id)
	if c == nil {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}
	if patch.Email != nil && s.emailTaken(*patch.Email, c.ID) {
		writeError(w, http.StatusConflict, duplicateEmail)
		return
	}
	if patch.Status != nil {
		v, err := models.ValidateStage(*patch.Status, models.AllowedStages(&settings))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		c.Status = v
	}
	setString(&c.FirstName, patch.FirstName)
	setString(&c.LastName, patch.LastName)
	setString(&c.Email, patch.Email)
	setString(&c.Phone, patch.Phone)
	setString(&c.Title, patch.Title)
	setString(&c.Category, patch.Category)
	setString(&c.Notes, patch.Notes)
	setString(&c.LinkedInURL, patch.LinkedInURL)
	setString(&c.Location, patch.Location)
	if _, ok := keys["organization_id"]; ok {
		c.OrganizationID = nil
		if patch.OrganizationID != nil {
			c.OrganizationID = patch.OrganizationID.Ptr()
		}
	}
	if patch.OwnerIDs != nil {
		c.OwnerIDs = *patch.OwnerIDs
	}
	if patch.Source != nil {
		c.Source = *patch.Source
	}
	c.FullName = strings.TrimSpace(c.FirstName + " " + c.LastName)
	c.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, *c)
}

func (s *Server) toggleContactTag(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	tagID, _ := pathID(r, "tagID")

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findContact(id)
	if c == nil {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}
	tags, ok := s.toggle(w, r.Method, c.Tags, tagID)
	if !ok {
		return
	}
	c.Tags = tags
	writeJSON(w, http.StatusOK, c.Tags)
}

// toggle must be called with s.mu held.
func (s *Server) toggle(w http.ResponseWriter, method string, tags []models.Tag, tagID uuid.UUID) ([]models.Tag, bool) {
	tag := s.findTag(tagID)
	if tag == nil {
		writeError(w, http.StatusNotFound, "tag not found")
		return nil, false
	}
	if method == http.MethodPost {
		return models.MergeTags(tags, *tag), true
	}
	out := []models.Tag{}
	for _, t := range tags {
		if t.ID != tagID {
			out = append(out, t)
		}
	}
	return out, true
}

func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	p, ok := readPaging(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	tagIDs := parseIDs(q["tag_ids"])

	s.mu.Lock()
	var items []models.Organization
	for _, o := range s.orgs {
		if query != "" && !containsFold(o.Name, query) {
			continue
		}
		if v := q.Get("type"); v != "" && string(o.Type) != v {
			continue
		}
		if len(tagIDs) > 0 && !hasAnyTag(o.Tags, tagIDs) {
			continue
		}
		items = append(items, *o)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, pageOf(items, p))
}

func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req models.OrganizationCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	uid := UserID
	o := s.AddOrganization(models.Organization{
		Name:      req.Name,
		Website:   req.Website,
		Type:      req.Type,
		Sector:    req.Sector,
		Location:  req.Location,
		Size:      req.Size,
		Notes:     req.Notes,
		CreatedBy: &uid,
	})
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrg(id)
	if o == nil {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, *o)
}

func (s *Server) patchOrganization(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	var patch models.OrganizationPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrg(id)
	if o == nil {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	setString(&o.Name, patch.Name)
	setString(&o.Website, patch.Website)
	setString(&o.Sector, patch.Sector)
	setString(&o.Location, patch.Location)
	setString(&o.Size, patch.Size)
	setString(&o.Notes, patch.Notes)
	if patch.Type != nil {
		o.Type = *patch.Type
	}
	o.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, *o)
}

func (s *Server) toggleOrganizationTag(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	tagID, _ := pathID(r, "tagID")

	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrg(id)
	if o == nil {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	tags, ok := s.toggle(w, r.Method, o.Tags, tagID)
	if !ok {
		return
	}
	o.Tags = tags
	writeJSON(w, http.StatusOK, o.Tags)
}

func (s *Server) listInteractions(w http.ResponseWriter, r *http.Request) {
	p, ok := readPaging(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	var items []models.Interaction
	for _, i := range s.interactions {
		if v := q.Get("contact_id"); v != "" && (i.ContactID == nil || i.ContactID.String() != v) {
			continue
		}
		if v := q.Get("organization_id"); v != "" && (i.OrganizationID == nil || i.OrganizationID.String() != v) {
			continue
		}
		items = append(items, *i)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, pageOf(items, p))
}

func (s *Server) createInteraction(w http.ResponseWriter, r *http.Request) {
	var req models.InteractionCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.ContactID == nil && req.OrganizationID == nil {
		writeError(w, http.StatusUnprocessableEntity, "contact_id or organization_id is required")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	for _, a := range req.Attendees {
		if err := a.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	uid := UserID
	inputs := req.Attendees
	if len(inputs) == 0 {
		inputs = []models.AttendeeInput{{UserID: &uid, Role: models.RoleOrganizer}}
		if req.ContactID != nil {
			inputs = append(inputs, models.AttendeeInput{ContactID: req.ContactID, Role: models.RoleAttendee})
		}
	}

	now := s.now()
	var attendees []models.Attendee
	for n, a := range inputs {
		role := a.Role
		if role == "" {
			role = models.RoleAttendee
		}
		attendees = append(attendees, models.Attendee{ID: n + 1, UserID: a.UserID, ContactID: a.ContactID, Role: role, CreatedAt: now})
	}

	i := s.AddInteraction(models.Interaction{
		ContactID:      req.ContactID,
		OrganizationID: req.OrganizationID,
		LoggedBy:       &uid,
		Type:           req.Type,
		Title:          req.Title,
		Summary:        req.Summary,
		OccurredAt:     req.OccurredAt,
		Attendees:      attendees,
	})
	writeJSON(w, http.StatusCreated, i)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	p, ok := readPaging(w, r)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	s.mu.Lock()
	var items []models.Tag
	for _, t := range s.tags {
		if query == "" || containsFold(t.Name, query) {
			items = append(items, *t)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, pageOf(items, p))
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var req models.TagCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	s.mu.Lock()
	for _, t := range s.tags {
		if strings.EqualFold(t.Name, name) {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, "tag already exists")
			return
		}
	}
	t := models.Tag{ID: uuid.New(), Name: name, Color: req.Color, CreatedAt: s.now()}
	s.tags = append(s.tags, &t)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, t)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
