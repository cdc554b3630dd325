// ABOUTME: In-memory fake of the CRM REST API for tests
// ABOUTME: Counts requests, injects failures and can hold responses to force ordering
package crmtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/harperreed/crmview/models"
)

const BasePath = "/api/user/crm"

// UserID is the identity every request is treated as.
var UserID = uuid.MustParse("00000000-0000-4000-8000-000000000001")

// Gate blocks matching requests until Release is called.
type Gate struct {
	match   func(*http.Request) bool
	Arrived chan struct{}
	release chan struct{}
	once    sync.Once
	arrive  sync.Once
}

func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

type Server struct {
	*httptest.Server

	mu           sync.Mutex
	contacts     []*models.Contact
	orgs         []*models.Organization
	interactions []*models.Interaction
	tags         []*models.Tag
	settings     models.Settings
	hits         map[string]int
	failures     map[string][]int
	gates        []*Gate
	now          func() time.Time
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		settings: models.Settings{
			Enabled:                    true,
			ContactStageOptions:        append([]string{}, models.DefaultContactStages...),
			ContactCategorySuggestions: append([]string{}, models.DefaultCategorySuggestions...),
		},
		hits:     map[string]int{},
		failures: map[string][]int{},
		now:      time.Now,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(func() {
		s.mu.Lock()
		gates := s.gates
		s.mu.Unlock()
		for _, g := range gates {
			g.Release()
		}
		s.Close()
	})
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.middleware)
	api := r.PathPrefix(BasePath).Subrouter()

	api.HandleFunc("/settings", s.getSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.patchSettings).Methods(http.MethodPatch)
	api.HandleFunc("/search", s.search).Methods(http.MethodGet)

	api.HandleFunc("/contacts", s.listContacts).Methods(http.MethodGet)
	api.HandleFunc("/contacts", s.createContact).Methods(http.MethodPost)
	api.HandleFunc("/contacts/{id}", s.getContact).Methods(http.MethodGet)
	api.HandleFunc("/contacts/{id}", s.patchContact).Methods(http.MethodPatch)
	api.HandleFunc("/contacts/{id}/tags/{tagID}", s.toggleContactTag).Methods(http.MethodPost, http.MethodDelete)

	api.HandleFunc("/organizations", s.listOrganizations).Methods(http.MethodGet)
	api.HandleFunc("/organizations", s.createOrganization).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}", s.getOrganization).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}", s.patchOrganization).Methods(http.MethodPatch)
	api.HandleFunc("/organizations/{id}/tags/{tagID}", s.toggleOrganizationTag).Methods(http.MethodPost, http.MethodDelete)

	api.HandleFunc("/interactions", s.listInteractions).Methods(http.MethodGet)
	api.HandleFunc("/interactions", s.createInteraction).Methods(http.MethodPost)

	api.HandleFunc("/tags", s.listTags).Methods(http.MethodGet)
	api.HandleFunc("/tags", s.createTag).Methods(http.MethodPost)
	return r
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := hitKey(r.Method, r.URL.Path)

		s.mu.Lock()
		s.hits[key]++
		var status int
		if queued := s.failures[key]; len(queued) > 0 {
			status = queued[0]
			s.failures[key] = queued[1:]
		}
		var gate *Gate
		for _, g := range s.gates {
			if g.match(r) {
				gate = g
				break
			}
		}
		s.mu.Unlock()

		if gate != nil {
			gate.arrive.Do(func() { close(gate.Arrived) })
			select {
			case <-gate.release:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hitKey(method, path string) string {
	return method + " " + path
}

// Hits counts requests for method and a path relative to BasePath, ignoring the query.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[hitKey(method, BasePath+path)]
}

// FailNext makes the next request to method+path answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hitKey(method, BasePath+path)
	s.failures[key] = append(s.failures[key], status)
}

// Hold blocks requests for which match returns true until the gate is released.
func (s *Server) Hold(match func(*http.Request) bool) *Gate {
	g := &Gate{match: match, Arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.gates = append(s.gates, g)
	s.mu.Unlock()
	return g
}

// HoldQuery holds GET requests to path whose q parameter equals q.
func (s *Server) HoldQuery(path, q string) *Gate {
	return s.Hold(func(r *http.Request) bool {
		return r.Method == http.MethodGet && r.URL.Path == BasePath+path && r.URL.Query().Get("q") == q
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// decodePatch decodes v and also reports which keys the body carried, so an
// explicit null can be told apart from an absent key.
func decodePatch(r *http.Request, v any) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, err
	}
	keys := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}

type paging struct {
	num, size int
}

func readPaging(w http.ResponseWriter, r *http.Request) (paging, bool) {
	p := paging{num: 0, size: models.DefaultPageSize}
	q := r.URL.Query()
	if v := q.Get("page_num"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusUnprocessableEntity, "invalid page_num")
			return p, false
		}
		p.num = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > models.MaxPageSize {
			writeError(w, http.StatusUnprocessableEntity, "invalid page_size")
			return p, false
		}
		p.size = n
	}
	return p, true
}

func pageOf[T any](items []T, p paging) models.Page[T] {
	out := models.Page[T]{Items: []T{}, TotalItems: len(items)}
	start := p.num * p.size
	if start >= len(items) {
		return out
	}
	end := start + p.size
	if end > len(items) {
		end = len(items)
	}
	out.Items = append(out.Items, items[start:end]...)
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func parseIDs(values []string) []uuid.UUID {
	var ids []uuid.UUID
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func hasAnyTag(tags []models.Tag, ids []uuid.UUID) bool {
	for _, id := range ids {
		if models.HasTag(tags, id) {
			return true
		}
	}
	return false
}
