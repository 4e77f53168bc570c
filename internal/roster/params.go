package roster

import "github.com/syrilster/leave-lop-console/internal/model"

// ParamsUpdate is a partial QueryParams change. Nil fields are left as they are.
type ParamsUpdate struct {
	Year       *int    `json:"year,omitempty"`
	Month      *int    `json:"month,omitempty"`
	SearchText *string `json:"search_text,omitempty"`
	Page       *int    `json:"page,omitempty"`
	PageSize   *int    `json:"page_size,omitempty"`
}

// Next computes the params that follow cur after u. A change to the year, month,
// search text or page size sends the view back to page 1. When total is known
// (>= 0) the page is kept within the pages that exist.
func Next(cur model.QueryParams, u ParamsUpdate, total int) model.QueryParams {
	next := cur
	if u.Year != nil {
		next.Year = *u.Year
	}
	if u.Month != nil {
		next.Month = *u.Month
	}
	if u.SearchText != nil {
		next.SearchText = *u.SearchText
	}
	if u.PageSize != nil {
		next.PageSize = *u.PageSize
	}
	if u.Page != nil {
		next.Page = *u.Page
	}

	if next.Year != cur.Year || next.Month != cur.Month || next.SearchText != cur.SearchText || next.PageSize != cur.PageSize {
		next.Page = 1
		return next
	}

	if next.Page < 1 {
		next.Page = 1
	}
	if total >= 0 && next.PageSize > 0 {
		if last := PageCount(total, next.PageSize); next.Page > last {
			next.Page = last
		}
	}
	return next
}

// PageCount is ceil(total/pageSize), never less than 1.
func PageCount(total int, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
