// Package pagination implements cursor-based pagination over a result
// stream ordered by a strictly decreasing identifier.
//
// The cursor is the ID of the last row of the previous page and is
// opaque to callers: they must pass it back unmodified. A page carries
// a next cursor iff it came back exactly full, so a client whose total
// row count is a multiple of the page size performs one extra, empty
// fetch. That trade is deliberate: it keeps cursor semantics free of an
// existence probe.
package pagination

import "fmt"

const (
	// MinPageSize is the smallest accepted page size.
	MinPageSize = 1

	// MaxPageSize is the largest accepted page size.
	MaxPageSize = 1000

	// DefaultPageSize is used when the caller does not specify one.
	DefaultPageSize = 100
)

// InvalidPageSizeError reports a page size outside [MinPageSize,
// MaxPageSize].
type InvalidPageSizeError struct {
	Size int
}

func (e *InvalidPageSizeError) Error() string {
	return fmt.Sprintf(
		"page_size must be between %d and %d, got %d",
		MinPageSize, MaxPageSize, e.Size,
	)
}

// Params holds validated pagination parameters for one page request.
type Params struct {
	// Cursor is the ID below which rows are returned. Empty means the
	// first (most recent) page.
	Cursor string

	// PageSize is the number of rows per page.
	PageSize int
}

// NewParams validates the raw cursor and page size. A nil pageSize
// selects DefaultPageSize.
func NewParams(cursor string, pageSize *int) (Params, error) {
	size := DefaultPageSize

	if pageSize != nil {
		size = *pageSize
	}

	if size < MinPageSize || size > MaxPageSize {
		return Params{}, &InvalidPageSizeError{Size: size}
	}

	return Params{Cursor: cursor, PageSize: size}, nil
}

// NextCursor returns the cursor for the following page given the IDs of
// the rows just returned, or nil when this was the final page. The page
// is considered final unless it came back exactly full.
func NextCursor(p Params, rowIDs []string) *string {
	if len(rowIDs) != p.PageSize {
		return nil
	}

	last := rowIDs[len(rowIDs)-1]

	return &last
}
