package utils

// PageMeta describes the pagination metadata attached to every list
// response: the requested page and limit, the total number of rows
// matching the query, and the last page number.
type PageMeta struct {
    Page     int `json:"page"`
    Limit    int `json:"limit"`
    Total    int `json:"total"`
    LastPage int `json:"last_page"`
}

// Paginate normalizes page/limit and computes the metadata for a
// result set of total rows.  Page defaults to 1 and limit to 10;
// limit is capped at 100 to bound result sizes.  LastPage is at least
// 1 even for an empty result so clients can always render page 1.
func Paginate(page, limit, total int) PageMeta {
    if page < 1 {
        page = 1
    }
    if limit < 1 {
        limit = 10
    }
    if limit > 100 {
        limit = 100
    }
    last := (total + limit - 1) / limit
    if last < 1 {
        last = 1
    }
    return PageMeta{Page: page, Limit: limit, Total: total, LastPage: last}
}

// Offset returns the SQL offset for the meta's page and limit.
func (m PageMeta) Offset() int { return (m.Page - 1) * m.Limit }
