package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"
)

// Page bounds for list endpoints.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Page is an offset/limit window over a list endpoint.
type Page struct {
	Offset int
	Limit  int
}

// Validate checks the window bounds.
func (p Page) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Offset, validation.Min(0)),
		validation.Field(&p.Limit, validation.Min(1), validation.Max(MaxPageLimit)),
	)
}

// ParsePage reads ?offset= and ?limit= from the query string. Missing values
// default to 0 and DefaultPageLimit.
func ParsePage(c *gin.Context) (Page, error) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return Page{}, err
	}
	limit, err := queryInt(c, "limit", DefaultPageLimit)
	if err != nil {
		return Page{}, err
	}

	page := Page{Offset: offset, Limit: limit}
	if err := page.Validate(); err != nil {
		return Page{}, fmt.Errorf("invalid pagination: %w", err)
	}
	return page, nil
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: must be an integer", key)
	}
	return v, nil
}
