package pagination_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/regressoor/pkg/pagination"
)

func intPtr(v int) *int {
	return &v
}

func TestNewParams(t *testing.T) {
	tests := []struct {
		name     string
		cursor   string
		pageSize *int
		wantSize int
		wantErr  bool
	}{
		{
			name:     "defaults",
			wantSize: pagination.DefaultPageSize,
		},
		{
			name:     "explicit size",
			pageSize: intPtr(25),
			wantSize: 25,
		},
		{
			name:     "minimum size",
			pageSize: intPtr(1),
			wantSize: 1,
		},
		{
			name:     "maximum size",
			pageSize: intPtr(1000),
			wantSize: 1000,
		},
		{
			name:     "zero rejected",
			pageSize: intPtr(0),
			wantErr:  true,
		},
		{
			name:     "negative rejected",
			pageSize: intPtr(-5),
			wantErr:  true,
		},
		{
			name:     "above maximum rejected",
			pageSize: intPtr(1001),
			wantErr:  true,
		},
		{
			name:     "cursor preserved",
			cursor:   "some-opaque-cursor",
			wantSize: pagination.DefaultPageSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := pagination.NewParams(tt.cursor, tt.pageSize)

			if tt.wantErr {
				var sizeErr *pagination.InvalidPageSizeError

				require.Error(t, err)
				require.True(t, errors.As(err, &sizeErr))
				assert.Equal(t, *tt.pageSize, sizeErr.Size)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, params.PageSize)
			assert.Equal(t, tt.cursor, params.Cursor)
		})
	}
}

func TestNextCursor(t *testing.T) {
	makeIDs := func(n int) []string {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("id-%03d", n-i)
		}

		return ids
	}

	t.Run("full page yields cursor", func(t *testing.T) {
		params, err := pagination.NewParams("", intPtr(10))
		require.NoError(t, err)

		ids := makeIDs(10)
		next := pagination.NextCursor(params, ids)
		require.NotNil(t, next)
		assert.Equal(t, ids[len(ids)-1], *next)
	})

	t.Run("partial page is final", func(t *testing.T) {
		params, err := pagination.NewParams("", intPtr(10))
		require.NoError(t, err)

		assert.Nil(t, pagination.NextCursor(params, makeIDs(7)))
	})

	t.Run("empty page is final", func(t *testing.T) {
		params, err := pagination.NewParams("", intPtr(10))
		require.NoError(t, err)

		assert.Nil(t, pagination.NextCursor(params, nil))
	})

	// A total row count that is a multiple of the page size produces a
	// cursor on the last non-empty page, so the client makes one extra
	// fetch that comes back empty and final.
	t.Run("exact multiple needs one extra fetch", func(t *testing.T) {
		params, err := pagination.NewParams("", intPtr(5))
		require.NoError(t, err)

		next := pagination.NextCursor(params, makeIDs(5))
		require.NotNil(t, next)

		assert.Nil(t, pagination.NextCursor(params, nil))
	})
}
