package web

type PaginationData struct {
	BasePath   string
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// SortState is the active ordering of a table. An empty Key means unsorted.
type SortState struct {
	Key  string
	Desc bool
}

type Column struct {
	Key      string
	Label    string
	Sortable bool
}

type Table struct {
	Title      string
	Subtitle   string
	Columns    []Column
	Rows       [][]Cell
	Sort       SortState
	Pagination PaginationData
	PageSizes  []int
}

var DefaultPageSizes = []int{10, 20, 30, 40, 50}

type NavLink struct {
	Label  string
	Href   string
	Active bool
}
