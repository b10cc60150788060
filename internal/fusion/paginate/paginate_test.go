package paginate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vecfuse/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		from    int
		total   int
		wantErr error
	}{
		{"no results", 17, 0, nil},
		{"first page", 0, 5, nil},
		{"last element", 4, 5, nil},
		{"at end", 5, 5, domain.ErrPaginationExhausted},
		{"past end", 17, 6, domain.ErrPaginationExhausted},
		{"negative", -1, 5, domain.ErrInvalidRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.from, tc.total)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidate_ExhaustedMessage(t *testing.T) {
	err := Validate(17, 12)
	require.Error(t, err)
	assert.Equal(t,
		"Reached end of search result, increase pagination_depth value to see more results",
		err.Error())
	assert.Equal(t, domain.KindPaginationExhausted, domain.KindOf(err))
}
