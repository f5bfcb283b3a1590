package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableQuery selects one sorted page of an admin table.
type TableQuery struct {
	Page    int
	PerPage int
	Sort    string
	Desc    bool
}

type Page[T any] struct {
	Rows  []T
	Total int64
	// Page is clamped to the last page when the request ran past it.
	Page    int
	PerPage int
}

func (q TableQuery) normalized() TableQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 10
	}
	return q
}

func list[T any](ctx context.Context, conn *gorm.DB, query TableQuery, sortable map[string]string, fallback string, preload ...string) (Page[T], error) {
	if conn == nil {
		return Page[T]{}, ErrNotConfigured
	}
	query = query.normalized()
	var model T
	var total int64
	if err := conn.WithContext(ctx).Model(&model).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}
	lastPage := int((total + int64(query.PerPage) - 1) / int64(query.PerPage))
	if lastPage == 0 {
		lastPage = 1
	}
	if query.Page > lastPage {
		query.Page = lastPage
	}

	column, ok := sortable[query.Sort]
	if !ok {
		column = fallback
	}
	tx := conn.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: query.Desc})
	if column != fallback {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: fallback}})
	}
	for _, assoc := range preload {
		tx = tx.Preload(assoc)
	}
	var rows []T
	if err := tx.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage).Find(&rows).Error; err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Rows: rows, Total: total, Page: query.Page, PerPage: query.PerPage}, nil
}

var playerSortColumns = map[string]string{
	"id":         "player_id",
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"phone":      "phone",
	"created":    "created_at",
	"updated":    "updated_at",
}

func ListPlayers(ctx context.Context, conn *gorm.DB, query TableQuery) (Page[Player], error) {
	return list[Player](ctx, conn, query, playerSortColumns, "player_id")
}
