package services

// ItemsPerPage is the fixed page size shared by every paginated card query.
const ItemsPerPage = 20

type PaginationMeta struct {
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
}

func NewPaginationMeta(total int64) PaginationMeta {
	return PaginationMeta{
		TotalItems: total,
		TotalPages: total/ItemsPerPage + 1,
	}
}

// pageOffset converts a 1-indexed page into a row offset.
func pageOffset(page int) int {
	return (page - 1) * ItemsPerPage
}
