package repository

import (
	"net/url"
	"strconv"
)

// Page is the envelope returned by every paginated listing.
type Page[T any] struct {
	Count   int64   `json:"count"`
	Page    int     `json:"page"`
	Pages   int     `json:"pages"`
	Size    int     `json:"size"`
	Items   []T     `json:"items"`
	NextURL *string `json:"next_url"`
	PrevURL *string `json:"prev_url"`
}

// PageRequest carries the paging inputs. A nil Size means one page holding every row.
type PageRequest struct {
	Page    int
	Size    *int
	BaseURL string
	Extra   url.Values
}

// Window is the resolved slice of a result set.
type Window struct {
	Page   int
	Size   int
	Pages  int
	Offset int
}

// ResolveWindow applies the clamping rules to a request once the total is known.
func ResolveWindow(req PageRequest, total int64) (Window, error) {
	size := int(total)
	if req.Size != nil {
		if *req.Size <= 0 {
			return Window{}, &InvalidPageError{Size: *req.Size}
		}
		size = *req.Size
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Window{
		Page:   page,
		Size:   size,
		Pages:  pages,
		Offset: (page - 1) * size,
	}, nil
}

// NewPage assembles the envelope and its navigation links.
func NewPage[T any](req PageRequest, w Window, total int64, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	out := Page[T]{
		Count: total,
		Page:  w.Page,
		Pages: w.Pages,
		Size:  w.Size,
		Items: items,
	}
	if w.Page > 1 {
		prev := pageURL(req, w.Page-1, w.Size)
		out.PrevURL = &prev
	}
	if w.Page < w.Pages {
		next := pageURL(req, w.Page+1, w.Size)
		out.NextURL = &next
	}
	return out
}

// MapPage converts the items of a page while keeping the envelope.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, fn(item))
	}
	return Page[U]{
		Count:   p.Count,
		Page:    p.Page,
		Pages:   p.Pages,
		Size:    p.Size,
		Items:   items,
		NextURL: p.NextURL,
		PrevURL: p.PrevURL,
	}
}

func pageURL(req PageRequest, page, size int) string {
	q := url.Values{}
	for k, vals := range req.Extra {
		for _, v := range vals {
			q.Add(k, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return req.BaseURL + "?" + q.Encode()
}
