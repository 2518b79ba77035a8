package student

import (
	"math"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-marks-api/internal/types"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// parsePageRequest reads ?page= and ?limit=. Missing, non-numeric or
// non-positive values fall back to the defaults; limit is capped at MaxLimit.
// page is capped so that (page-1)*limit still fits in an int; past that
// point every page is empty anyway.
func parsePageRequest(r *http.Request) types.PageRequest {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if maxPage := math.MaxInt/limit + 1; page > maxPage {
		page = maxPage
	}

	return types.PageRequest{Page: page, Limit: limit}
}
