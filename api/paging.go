// ABOUTME: Paging and search helpers shared by the list filter types
// ABOUTME: Lets list queries move between pages without knowing the filter shape
package api

func (f ContactFilters) Page() (int, int) { return pageDefaults(f.PageNum, f.PageSize) }
func (f ContactFilters) WithPage(n int) ContactFilters {
	f.PageNum = n
	return f
}
func (f ContactFilters) WithQuery(q string) ContactFilters {
	f.Query, f.PageNum = q, 0
	return f
}

func (f OrganizationFilters) Page() (int, int) { return pageDefaults(f.PageNum, f.PageSize) }
func (f OrganizationFilters) WithPage(n int) OrganizationFilters {
	f.PageNum = n
	return f
}
func (f OrganizationFilters) WithQuery(q string) OrganizationFilters {
	f.Query, f.PageNum = q, 0
	return f
}

func (f InteractionFilters) Page() (int, int) { return pageDefaults(f.PageNum, f.PageSize) }
func (f InteractionFilters) WithPage(n int) InteractionFilters {
	f.PageNum = n
	return f
}

// WithQuery only resets the page; interactions have no text filter.
func (f InteractionFilters) WithQuery(string) InteractionFilters {
	f.PageNum = 0
	return f
}

func (f TagFilters) Page() (int, int) { return pageDefaults(f.PageNum, f.PageSize) }
func (f TagFilters) WithPage(n int) TagFilters {
	f.PageNum = n
	return f
}
func (f TagFilters) WithQuery(q string) TagFilters {
	f.Query, f.PageNum = q, 0
	return f
}

func (f SearchFilters) Page() (int, int) { return pageDefaults(f.PageNum, f.PageSize) }
func (f SearchFilters) WithPage(n int) SearchFilters {
	f.PageNum = n
	return f
}
func (f SearchFilters) WithQuery(q string) SearchFilters {
	f.Query, f.PageNum = q, 0
	return f
}
