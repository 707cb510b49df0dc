package tradeco

import (
	"net/url"
	"strconv"
)

// listQuery builds the query string shared by every product listing call.
// page < 1 becomes 1; limit is sent only when positive.
func listQuery(page, limit int, f ProductFilter) url.Values {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Category != "" {
		q.Set("categoria", f.Category)
	}
	return q
}

func idPath(prefix string, id ID) string {
	return prefix + url.PathEscape(string(id))
}
