// internal/app/system/paging/paging.go
package paging

import (
	"net/http"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultSize is the page size for JSON lists.
const DefaultSize = 25

// Keyset is one page request over a list ordered by (key, _id).
// "after" pages forward from a cursor; "before" pages back.
type Keyset struct {
	Size     int
	Backward bool
	Cursor   *wafflemongo.Cursor

	before string
	after  string
}

// FromRequest reads the before/after cursors from the query string.
// An undecodable cursor is ignored and the first page is returned.
func FromRequest(r *http.Request, size int) Keyset {
	return New(query.Get(r, "before"), query.Get(r, "after"), size)
}

// New builds a Keyset from raw cursor strings. before wins when both are set.
func New(before, after string, size int) Keyset {
	if size <= 0 {
		size = DefaultSize
	}
	k := Keyset{Size: size, before: before, after: after}
	raw := after
	if before != "" {
		k.Backward = true
		raw = before
	}
	if raw != "" {
		if c, ok := wafflemongo.DecodeCursor(raw); ok {
			k.Cursor = &c
		}
	}
	return k
}

// Window returns the filter clause that starts the page after (or before)
// the cursor, or nil on the first page.
func (k Keyset) Window(keyField string) bson.M {
	if k.Cursor == nil {
		return nil
	}
	dir := "gt"
	if k.Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(keyField, dir, k.Cursor.CI, k.Cursor.ID)
}

// FindOptions sorts on (keyField, _id) in the paging direction and fetches
// one row more than the page so the caller can tell whether more exist.
func (k Keyset) FindOptions(keyField string) *options.FindOptions {
	order := 1
	if k.Backward {
		order = -1
	}
	return options.Find().
		SetSort(bson.D{{Key: keyField, Value: order}, {Key: "_id", Value: order}}).
		SetLimit(int64(k.Size + 1))
}

// Page describes where a returned slice sits in the full list.
type Page struct {
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	PrevCursor string `json:"prev_cursor,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Finish puts rows fetched with FindOptions back into ascending order, drops
// the look-ahead row and builds the cursors for the neighbouring pages.
func Finish[T any](k Keyset, rows []T, key func(T) string, id func(T) primitive.ObjectID) ([]T, Page) {
	var p Page
	more := len(rows) > k.Size
	if more {
		// The extra row is always the one furthest from the cursor.
		rows = rows[:k.Size]
	}
	if k.Backward {
		reverse(rows)
		p.HasPrev = more
		p.HasNext = true
	} else {
		p.HasNext = more
		p.HasPrev = k.after != ""
	}

	if len(rows) > 0 {
		first, last := rows[0], rows[len(rows)-1]
		if p.HasPrev {
			p.PrevCursor = wafflemongo.EncodeCursor(key(first), id(first))
		}
		if p.HasNext {
			p.NextCursor = wafflemongo.EncodeCursor(key(last), id(last))
		}
	}
	return rows, p
}

func reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
