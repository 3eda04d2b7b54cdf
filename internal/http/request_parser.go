package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"paytrack/internal/core"
)

const maxBodyBytes = 1 << 20

// filterParams are the query parameters that turn a listing into a filtered one.
var filterParams = []string{"q", "category", "min", "max", "from", "to"}

// malformedRequestError marks input that could not be decoded at all, as
// opposed to well-formed input that fails validation.
type malformedRequestError struct {
	msg string
}

func (e *malformedRequestError) Error() string { return e.msg }

func malformed(format string, args ...any) error {
	return &malformedRequestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return malformed("request body is empty")
		case errors.As(err, &maxErr):
			return malformed("request body exceeds %d bytes", maxErr.Limit)
		default:
			return malformed("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return malformed("request body must contain a single JSON object")
	}
	return nil
}

// hasFilter reports whether any filter parameter is present.
func hasFilter(query url.Values) bool {
	for _, p := range filterParams {
		if _, ok := query[p]; ok {
			return true
		}
	}
	return false
}

// ParseCriteria builds listing criteria from query parameters. Categories may
// be repeated or comma separated; dates accept YYYY-MM-DD and DD.MM.YYYY.
func ParseCriteria(query url.Values) (core.Criteria, error) {
	var opts []core.CriteriaOption

	if q := sanitizeInput(query.Get("q")); q != "" {
		opts = append(opts, core.WithQuery(q))
	}

	var cats []core.Category
	for _, raw := range query["category"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			cat := core.Category(strings.ToLower(part))
			if !cat.Valid() {
				return core.Criteria{}, malformed("unknown category %q", part)
			}
			cats = append(cats, cat)
		}
	}
	if len(cats) > 0 {
		opts = append(opts, core.WithCategories(cats...))
	}

	if v := strings.TrimSpace(query.Get("min")); v != "" {
		d, err := core.ParseAmount(v)
		if err != nil {
			return core.Criteria{}, malformed("invalid min amount %q: %v", v, err)
		}
		opts = append(opts, core.WithMinAmount(d))
	}
	if v := strings.TrimSpace(query.Get("max")); v != "" {
		d, err := core.ParseAmount(v)
		if err != nil {
			return core.Criteria{}, malformed("invalid max amount %q: %v", v, err)
		}
		opts = append(opts, core.WithMaxAmount(d))
	}

	var from, to core.Date
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Criteria{}, malformed("invalid from date: %v", err)
		}
		from = d
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Criteria{}, malformed("invalid to date: %v", err)
		}
		to = d
	}
	opts = append(opts, core.WithDateRange(from, to))

	c := core.NewCriteria(opts...)
	if c.End().Before(c.Start()) {
		return core.Criteria{}, malformed("date range ends (%s) before it starts (%s)", c.End(), c.Start())
	}
	if lo, ok := c.MinAmount(); ok {
		if hi, ok := c.MaxAmount(); ok && hi.LessThan(lo) {
			return core.Criteria{}, malformed("max amount %s is below min amount %s", hi, lo)
		}
	}
	return c, nil
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// sanitizeInput removes control characters other than tab and newlines, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
