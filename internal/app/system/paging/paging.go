// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size when the caller does not ask for one.
const DefaultLimit = 50

// MaxLimit caps ?limit=.
const MaxLimit = 200

// Request is a keyset page request parsed from the query string.
// At most one of Before and After is honoured; Before wins.
type Request struct {
	Before string
	After  string
	Limit  int
}

// ParseRequest reads ?before=, ?after= and ?limit= from r.
// A missing or invalid limit falls back to DefaultLimit; larger values are
// clamped to MaxLimit.
func ParseRequest(r *http.Request) Request {
	req := Request{
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
		Limit:  DefaultLimit,
	}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			req.Limit = min(n, MaxLimit)
		}
	}
	return req
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // Default: sort ascending, use "gt" for cursor
	Backward                  // Sort descending, use "lt" for cursor
)

// KeysetConfig holds the result of configuring keyset pagination.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // 1 for ascending, -1 for descending
	Limit     int
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset determines pagination direction and decodes the cursor.
// An undecodable cursor is treated as absent.
func ConfigureKeyset(req Request) KeysetConfig {
	cfg := KeysetConfig{
		Direction: Forward,
		SortOrder: 1,
		Limit:     req.Limit,
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}

	if req.Before != "" {
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(req.Before); ok {
			cfg.Cursor = &c
		}
	} else if req.After != "" {
		if c, ok := wafflemongo.DecodeCursor(req.After); ok {
			cfg.Cursor = &c
		}
	}

	return cfg
}

// ApplyToFind sets sort and a look-ahead limit of Limit+1.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(int64(cfg.Limit + 1))
}

// KeysetWindow returns the cursor condition for the query filter.
// Returns nil if no cursor is set.
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	dir := "gt"
	if cfg.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Result describes the neighbours of a returned page.
type Result struct {
	HasPrev bool   `json:"has_prev"`
	HasNext bool   `json:"has_next"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
}

// Finish puts rows fetched under cfg into ascending order, drops the
// look-ahead row and builds the prev/next cursors.
func Finish[T any](rows *[]T, cfg KeysetConfig, keyFn func(T) string, idFn func(T) primitive.ObjectID) Result {
	if cfg.Direction == Backward {
		Reverse(*rows)
	}

	var res Result
	if cfg.Direction == Backward {
		if len(*rows) > cfg.Limit {
			*rows = (*rows)[1:]
			res.HasPrev = true
		}
		res.HasNext = cfg.Cursor != nil
	} else {
		if len(*rows) > cfg.Limit {
			*rows = (*rows)[:cfg.Limit]
			res.HasNext = true
		}
		res.HasPrev = cfg.Cursor != nil
	}

	if len(*rows) > 0 {
		first, last := (*rows)[0], (*rows)[len(*rows)-1]
		if res.HasPrev {
			res.Prev = wafflemongo.EncodeCursor(keyFn(first), idFn(first))
		}
		if res.HasNext {
			res.Next = wafflemongo.EncodeCursor(keyFn(last), idFn(last))
		}
	}
	return res
}

// Reverse reverses a slice in place.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
