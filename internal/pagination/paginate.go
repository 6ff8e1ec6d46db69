package pagination

import (
	"time"

	"gorm.io/gorm"
)

const (
	// DefaultLimit is the page size used when the client does not ask for one.
	DefaultLimit = 20
	// MaxLimit caps the page size regardless of what the client asks for.
	MaxLimit = 100
)

// Keyed is implemented by rows that expose their keyset sort key.
type Keyed interface {
	PaginationKey() (time.Time, string)
}

// Page is one page of results plus the cursor for the next one. NextCursor is
// nil exactly when this is the final page.
type Page[T Keyed] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// ClampLimit normalizes a client-requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Paginate runs a keyset-paginated query. The ordering is always
// (created_at, id) descending; callers cannot override it, so a cursor from
// one request is valid for the next regardless of client-supplied sort
// parameters. It fetches limit+1 rows to decide whether another page exists
// without a separate count query.
func Paginate[T Keyed](q *gorm.DB, limit int, cursor *Cursor) (Page[T], error) {
	limit = ClampLimit(limit)

	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []T
	err := q.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		ts, id := last.PaginationKey()
		next := Encode(Cursor{CreatedAt: ts, ID: id})
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []T{}
	}

	return page, nil
}
