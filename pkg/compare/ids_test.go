package compare_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/regressoor/pkg/compare"
)

func TestParseCompareIDs(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		wantBaseline  string
		wantContender string
		wantErr       bool
	}{
		{
			name:          "two ids",
			token:         "abc...def",
			wantBaseline:  "abc",
			wantContender: "def",
		},
		{
			name:          "splits on first separator only",
			token:         "a...b...c",
			wantBaseline:  "a",
			wantContender: "b...c",
		},
		{
			name:    "no separator",
			token:   "abc",
			wantErr: true,
		},
		{
			name:    "empty baseline",
			token:   "...x",
			wantErr: true,
		},
		{
			name:    "empty contender",
			token:   "x...",
			wantErr: true,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseline, contender, err := compare.ParseCompareIDs(tt.token)

			if tt.wantErr {
				require.Error(t, err)

				var malformed *compare.MalformedIDError
				assert.ErrorAs(t, err, &malformed)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBaseline, baseline)
			assert.Equal(t, tt.wantContender, contender)
		})
	}
}
