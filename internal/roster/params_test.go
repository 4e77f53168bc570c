package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syrilster/leave-lop-console/internal/model"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestNext(t *testing.T) {
	base := model.QueryParams{Year: 2025, Month: 7, SearchText: "", Page: 3, PageSize: 5}

	tests := []struct {
		name   string
		update ParamsUpdate
		total  int
		want   model.QueryParams
	}{
		{
			name:   "search resets page",
			update: ParamsUpdate{SearchText: strPtr("ann")},
			total:  40,
			want:   model.QueryParams{Year: 2025, Month: 7, SearchText: "ann", Page: 1, PageSize: 5},
		},
		{
			name:   "month resets page",
			update: ParamsUpdate{Month: intPtr(8)},
			total:  40,
			want:   model.QueryParams{Year: 2025, Month: 8, Page: 1, PageSize: 5},
		},
		{
			name:   "year resets page",
			update: ParamsUpdate{Year: intPtr(2024)},
			total:  40,
			want:   model.QueryParams{Year: 2024, Month: 7, Page: 1, PageSize: 5},
		},
		{
			name:   "page size resets page",
			update: ParamsUpdate{PageSize: intPtr(10)},
			total:  40,
			want:   model.QueryParams{Year: 2025, Month: 7, Page: 1, PageSize: 10},
		},
		{
			name:   "reset wins over explicit page",
			update: ParamsUpdate{SearchText: strPtr("x"), Page: intPtr(4)},
			total:  40,
			want:   model.QueryParams{Year: 2025, Month: 7, SearchText: "x", Page: 1, PageSize: 5},
		},
		{
			name:   "page only keeps filters",
			update: ParamsUpdate{Page: intPtr(5)},
			total:  40,
			want:   model.QueryParams{Year: 2025, Month: 7, Page: 5, PageSize: 5},
		},
		{
			name:   "page clamped to last page",
			update: ParamsUpdate{Page: intPtr(9)},
			total:  11,
			want:   model.QueryParams{Year: 2025, Month: 7, Page: 3, PageSize: 5},
		},
		{
			name:   "page not clamped while total unknown",
			update: ParamsUpdate{Page: intPtr(9)},
			total:  -1,
			want:   model.QueryParams{Year: 2025, Month: 7, Page: 9, PageSize: 5},
		},
		{
			name:   "empty result keeps page one",
			update: ParamsUpdate{Page: intPtr(2)},
			total:  0,
			want:   model.QueryParams{Year: 2025, Month: 7, Page: 1, PageSize: 5},
		},
		{
			name:   "page below one",
			update: ParamsUpdate{Page: intPtr(0)},
			total:  40,
			want:   model.QueryParams{Year: 2025, Month: 7, Page: 1, PageSize: 5},
		},
		{
			name:   "same value is not a change",
			update: ParamsUpdate{Month: intPtr(7)},
			total:  40,
			want:   base,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(base, tt.update, tt.total))
		})
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 5))
	assert.Equal(t, 1, PageCount(5, 5))
	assert.Equal(t, 2, PageCount(6, 5))
	assert.Equal(t, 3, PageCount(11, 5))
	assert.Equal(t, 1, PageCount(11, 0))
}
