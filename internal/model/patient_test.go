package model

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func views(n int) []*PatientView {
	out := make([]*PatientView, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &PatientView{ID: fmt.Sprintf("p%d", i)})
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		req     PageRequest
		wantIDs []string
		want    Pagination
	}{
		{"no page size returns all", 3, PageRequest{}, []string{"p0", "p1", "p2"}, Pagination{1, 1, 3, 3}},
		{"first page", 5, PageRequest{Page: 1, PageSize: 2}, []string{"p0", "p1"}, Pagination{1, 3, 5, 2}},
		{"last partial page", 5, PageRequest{Page: 3, PageSize: 2}, []string{"p4"}, Pagination{3, 3, 5, 2}},
		{"past the end", 5, PageRequest{Page: 9, PageSize: 2}, []string{}, Pagination{9, 3, 5, 2}},
		{"page zero is page one", 2, PageRequest{Page: 0, PageSize: 5}, []string{"p0", "p1"}, Pagination{1, 1, 2, 5}},
		{"empty list", 0, PageRequest{Page: 1, PageSize: 10}, []string{}, Pagination{1, 1, 0, 10}},
		{"huge page", 5, PageRequest{Page: math.MaxInt64/2 + 2, PageSize: 2}, []string{}, Pagination{math.MaxInt64/2 + 2, 3, 5, 2}},
		{"huge page size", 5, PageRequest{Page: 2, PageSize: math.MaxInt64}, []string{}, Pagination{2, 1, 5, math.MaxInt64}},
		{"huge page size first page", 3, PageRequest{Page: 1, PageSize: math.MaxInt64}, []string{"p0", "p1", "p2"}, Pagination{1, 1, 3, math.MaxInt64}},
		{"both huge", 5, PageRequest{Page: math.MaxInt64, PageSize: math.MaxInt64}, []string{}, Pagination{math.MaxInt64, 1, 5, math.MaxInt64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(views(tt.total), tt.req)
			ids := make([]string, 0, len(page.Patients))
			for _, v := range page.Patients {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.want, page.Pagination)
		})
	}
}

func TestPaginate_NilIsEmptySlice(t *testing.T) {
	page := Paginate(nil, PageRequest{})
	assert.NotNil(t, page.Patients)
	assert.Equal(t, 0, page.Pagination.ItemsPerPage)
}
