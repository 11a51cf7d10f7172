package pagination

// Pagination is the 1-indexed page/pageSize contract shared by every listing
// endpoint. Page and PageSize below 1 are normalized up; PageSize is capped
// so a single request cannot drag the whole table into memory.
type Pagination struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20" validate:"gte=1,lte=250"`
}

const maxPageSize = 250

func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages rounds up; zero records means zero pages.
func TotalPages(totalRecords int64, pageSize int) int {
	if pageSize < 1 || totalRecords < 1 {
		return 0
	}
	return int((totalRecords + int64(pageSize) - 1) / int64(pageSize))
}

// Slice applies the pagination window to an already ordered in-memory list.
func Slice[T any](items []T, p Pagination) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
