package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	p := Pagination{}.Normalize()
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PageSize)

	p = Pagination{Page: -3, PageSize: 9999}.Normalize()
	require.Equal(t, 1, p.Page)
	require.Equal(t, 250, p.PageSize)
}

func TestOffset(t *testing.T) {
	require.Equal(t, 0, Pagination{Page: 1, PageSize: 20}.Offset())
	require.Equal(t, 40, Pagination{Page: 3, PageSize: 20}.Offset())
}

func TestTotalPages(t *testing.T) {
	require.Equal(t, 0, TotalPages(0, 20))
	require.Equal(t, 1, TotalPages(1, 20))
	require.Equal(t, 1, TotalPages(20, 20))
	require.Equal(t, 2, TotalPages(21, 20))
	require.Equal(t, 0, TotalPages(10, 0))
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	require.Equal(t, []int{1, 2}, Slice(items, Pagination{Page: 1, PageSize: 2}))
	require.Equal(t, []int{3, 4}, Slice(items, Pagination{Page: 2, PageSize: 2}))
	require.Equal(t, []int{5}, Slice(items, Pagination{Page: 3, PageSize: 2}))
	require.Empty(t, Slice(items, Pagination{Page: 4, PageSize: 2}))
}
