package server

import (
	"strconv"
	"strings"

	"gameroom-kiosk/internal/db"
	"gameroom-kiosk/internal/web"

	"github.com/gin-gonic/gin"
)

// tableParams reads page, per_page, sort and dir from the admin table query
// string. Malformed numbers fall back to the defaults and per_page is capped
// at maxPageSize.
func tableParams(c *gin.Context, defaultPerPage int) (db.TableQuery, web.SortState) {
	sort := web.SortState{Key: strings.TrimSpace(c.Query("sort"))}
	if sort.Key != "" {
		sort.Desc = strings.EqualFold(strings.TrimSpace(c.Query("dir")), "desc")
	}
	query := db.TableQuery{
		Page:    positiveQuery(c, "page", 1),
		PerPage: min(positiveQuery(c, "per_page", defaultPerPage), maxPageSize),
		Sort:    sort.Key,
		Desc:    sort.Desc,
	}
	return query, sort
}

func positiveQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// paginationFor describes the page the query actually served. db.list has
// already clamped Page to the last page.
func paginationFor[T any](basePath string, page db.Page[T]) web.PaginationData {
	perPage := max(page.PerPage, 1)
	totalPages := max(int((page.Total+int64(perPage)-1)/int64(perPage)), 1)
	current := min(max(page.Page, 1), totalPages)
	data := web.PaginationData{
		BasePath:   basePath,
		Page:       current,
		PerPage:    perPage,
		Total:      int(page.Total),
		TotalPages: totalPages,
		HasPrev:    current > 1,
		HasNext:    current < totalPages,
	}
	if data.HasPrev {
		data.PrevPage = current - 1
	}
	if data.HasNext {
		data.NextPage = current + 1
	}
	return data
}
