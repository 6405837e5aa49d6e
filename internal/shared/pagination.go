package shared

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
}

// NewPage clamps limit and offset to sane values.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
