package web

import (
	"net/url"
	"strconv"
	"time"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("2006-01-02 15:04:05")
}

// FormatTime renders a timestamp for table cells, "-" when unset.
func FormatTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return formatTime(*value)
}

func tableURL(base string, page, perPage int, sort SortState) string {
	query := url.Values{}
	query.Set("page", itoa(page))
	query.Set("per_page", itoa(perPage))
	if sort.Key != "" {
		query.Set("sort", sort.Key)
		if sort.Desc {
			query.Set("dir", "desc")
		} else {
			query.Set("dir", "asc")
		}
	}
	return base + "?" + query.Encode()
}

func pageURL(table Table, page int) string {
	return tableURL(table.Pagination.BasePath, page, table.Pagination.PerPage, table.Sort)
}

// NextSort cycles a column through ascending, descending and unsorted.
func NextSort(current SortState, key string) SortState {
	if current.Key != key {
		return SortState{Key: key}
	}
	if !current.Desc {
		return SortState{Key: key, Desc: true}
	}
	return SortState{}
}

func sortURL(table Table, key string) string {
	return tableURL(table.Pagination.BasePath, 1, table.Pagination.PerPage, NextSort(table.Sort, key))
}

func sizeURL(table Table, size int) string {
	return tableURL(table.Pagination.BasePath, 1, size, table.Sort)
}
