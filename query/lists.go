// ABOUTME: Paged list queries for contacts, organizations, interactions, tags and search
// ABOUTME: Adds page and search navigation on top of Query
package query

import (
	"context"
	"strings"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/models"
)

// Filters is implemented by every api list filter type.
type Filters[F any] interface {
	Key() string
	Page() (num, size int)
	WithPage(num int) F
	WithQuery(q string) F
}

type List[F Filters[F], T any] struct {
	*Query[F, *models.Page[T]]
}

func newList[F Filters[F], T any](m *cache.Manager, f F, keyFn KeyFunc[F], fetch FetchFunc[F, *models.Page[T]], onChange func(State[*models.Page[T]])) *List[F, T] {
	if keyFn == nil {
		keyFn = func(f F) (string, bool) { return f.Key(), true }
	}
	return &List[F, T]{Query: New(m, f, keyFn, fetch, onChange)}
}

// SetPage moves to page n. n is not clamped to the known page count.
func (l *List[F, T]) SetPage(n int) {
	if n < 0 {
		n = 0
	}
	l.SetParams(l.Params().WithPage(n))
}

func (l *List[F, T]) NextPage() {
	num, _ := l.Params().Page()
	l.SetPage(num + 1)
}

func (l *List[F, T]) PrevPage() {
	num, _ := l.Params().Page()
	l.SetPage(num - 1)
}

// SetSearch changes the text filter and returns to the first page.
func (l *List[F, T]) SetSearch(q string) {
	l.SetParams(l.Params().WithQuery(q))
}

// Items returns the current page's rows, or nil before the first load.
func (l *List[F, T]) Items() []T {
	s := l.State()
	if !s.HasData || s.Data == nil {
		return nil
	}
	return s.Data.Items
}

func (l *List[F, T]) Pager() Pager {
	num, size := l.Params().Page()
	p := Pager{PageNum: num, PageSize: size}
	if s := l.State(); s.HasData && s.Data != nil {
		p.TotalItems = s.Data.TotalItems
	}
	return p
}

// Pager describes where a list query sits in its result set.
type Pager struct {
	PageNum    int
	PageSize   int
	TotalItems int
}

func (p Pager) TotalPages() int {
	return models.TotalPages(p.TotalItems, p.PageSize)
}

func (p Pager) HasNext() bool {
	return p.PageNum+1 < p.TotalPages()
}

func (p Pager) HasPrev() bool {
	return p.PageNum > 0
}

type ContactLister interface {
	ListContacts(ctx context.Context, f api.ContactFilters) (*models.Page[models.Contact], error)
}

type OrganizationLister interface {
	ListOrganizations(ctx context.Context, f api.OrganizationFilters) (*models.Page[models.Organization], error)
}

type InteractionLister interface {
	ListInteractions(ctx context.Context, f api.InteractionFilters) (*models.Page[models.Interaction], error)
}

type TagLister interface {
	ListTags(ctx context.Context, f api.TagFilters) (*models.Page[models.Tag], error)
}

type Searcher interface {
	Search(ctx context.Context, f api.SearchFilters) (*models.Page[models.SearchResultItem], error)
}

type (
	ContactList      = List[api.ContactFilters, models.Contact]
	OrganizationList = List[api.OrganizationFilters, models.Organization]
	InteractionList  = List[api.InteractionFilters, models.Interaction]
	TagList          = List[api.TagFilters, models.Tag]
	SearchList       = List[api.SearchFilters, models.SearchResultItem]
)

func NewContactList(m *cache.Manager, svc ContactLister, f api.ContactFilters, onChange func(State[*models.Page[models.Contact]])) *ContactList {
	return newList[api.ContactFilters, models.Contact](m, f, nil, svc.ListContacts, onChange)
}

func NewOrganizationList(m *cache.Manager, svc OrganizationLister, f api.OrganizationFilters, onChange func(State[*models.Page[models.Organization]])) *OrganizationList {
	return newList[api.OrganizationFilters, models.Organization](m, f, nil, svc.ListOrganizations, onChange)
}

func NewInteractionList(m *cache.Manager, svc InteractionLister, f api.InteractionFilters, onChange func(State[*models.Page[models.Interaction]])) *InteractionList {
	return newList[api.InteractionFilters, models.Interaction](m, f, nil, svc.ListInteractions, onChange)
}

func NewTagList(m *cache.Manager, svc TagLister, f api.TagFilters, onChange func(State[*models.Page[models.Tag]])) *TagList {
	return newList[api.TagFilters, models.Tag](m, f, nil, svc.ListTags, onChange)
}

func NewSearch(m *cache.Manager, svc Searcher, f api.SearchFilters, onChange func(State[*models.Page[models.SearchResultItem]])) *SearchList {
	// Search needs a query; an empty one leaves the list idle.
	keyFn := func(f api.SearchFilters) (string, bool) {
		return f.Key(), strings.TrimSpace(f.Query) != ""
	}
	return newList[api.SearchFilters, models.SearchResultItem](m, f, keyFn, svc.Search, onChange)
}
