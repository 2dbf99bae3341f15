package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webclinic017/sagetrader-api/internal/repository"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func boolQueryDefault(c *gin.Context, key string, def bool) bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

func strQuery(c *gin.Context, key, def string) string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return val
	}
	return def
}

// skipLimit reads the skip/limit pair used by the non paginated listings.
func skipLimit(c *gin.Context) (int, int) {
	skip := intQuery(c, "skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := intQuery(c, "limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}

func uidParam(c *gin.Context, key string) (uint64, bool) {
	raw := strings.TrimSpace(c.Param(key))
	uid, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || uid == 0 {
		Error(c, http.StatusBadRequest, "invalid "+key, nil)
		return 0, false
	}
	return uid, true
}

// Pager turns query parameters into paginated listing requests.
type Pager struct {
	DefaultSize int
	MaxSize     int
}

// Params parses page, size, shared, sort_on, sort_order and repeated filter=field:op:value.
// Unknown fields surface later as ConfigurationError once the repository checks them.
func (p Pager) Params(c *gin.Context, ownerUID uint64) (repository.ListPageParams, error) {
	size := p.DefaultSize
	if size <= 0 {
		size = 20
	}
	if raw := c.Query("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return repository.ListPageParams{}, &repository.ValidationError{Field: "size", Reason: "must be an integer"}
		}
		size = v
	}
	if p.MaxSize > 0 && size > p.MaxSize {
		size = p.MaxSize
	}

	filters := make([]repository.Filter, 0, len(c.QueryArray("filter")))
	extra := url.Values{}
	for _, raw := range c.QueryArray("filter") {
		f, err := repository.ParseFilter(raw)
		if err != nil {
			return repository.ListPageParams{}, err
		}
		filters = append(filters, f)
		extra.Add("filter", raw)
	}

	return repository.ListPageParams{
		PageRequest: repository.PageRequest{
			Page:    intQuery(c, "page", 1),
			Size:    &size,
			BaseURL: requestBaseURL(c),
			Extra:   extra,
		},
		Shared:    boolQueryDefault(c, "shared", false),
		OwnerUID:  ownerUID,
		SortOn:    strQuery(c, "sort_on", "uid"),
		SortOrder: strQuery(c, "sort_order", "desc"),
		Filters:   filters,
	}, nil
}

// requestBaseURL is the absolute URL of the current path, without its query.
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path}
	return u.String()
}
