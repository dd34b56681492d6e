// Package pagination walks paged vendor listings. Meta pages with opaque
// "after" cursors, TikTok with page numbers; both are followed through the same
// loop so callers only map one page at a time.
package pagination

import (
	"context"
	"strconv"
)

const (
	// DefaultLimit is the default number of items collected if not specified
	DefaultLimit = 50
	// MaxLimit is the maximum number of items one listing collects
	MaxLimit = 500
	// MaxPages stops a listing whose vendor keeps returning cursors
	MaxPages = 20
)

// Page is one fetched page. Next is empty on the last page.
type Page[T any] struct {
	Items []T
	Next  string
}

// ClampLimit ensures limit is within valid bounds.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Collect calls fetch with an empty cursor, then with each returned Next,
// until a page has no Next, limit items are collected or MaxPages is reached.
func Collect[T any](ctx context.Context, limit int, fetch func(ctx context.Context, cursor string) (Page[T], error)) ([]T, error) {
	limit = ClampLimit(limit)
	var (
		items  []T
		cursor string
	)
	for pages := 0; pages < MaxPages; pages++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if len(items) >= limit {
			return items[:limit], nil
		}
		if page.Next == "" || page.Next == cursor {
			break
		}
		cursor = page.Next
	}
	return items, nil
}

// PageNumber parses a page-number cursor. The empty cursor is page 1.
func PageNumber(cursor string) int {
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NextPage returns the cursor after page, or "" once totalPages is reached.
func NextPage(page, totalPages int) string {
	if page >= totalPages {
		return ""
	}
	return strconv.Itoa(page + 1)
}
