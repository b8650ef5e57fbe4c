package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"sitelog/internal/core"
)

const maxBodyBytes = 8 << 20

// parseSelection reads date, category and subCategory from the query. A
// missing date selects today; a present but empty subCategory selects
// entries without one.
func parseSelection(q url.Values) (core.Selection, error) {
	day := core.Today()
	if v := strings.TrimSpace(q.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Selection{}, err
		}
		day = d
	}
	sel := core.SelectDay(day).WithCategory(strings.TrimSpace(q.Get("category")))
	if _, ok := q["subCategory"]; ok {
		sel = sel.WithSubCategory(strings.TrimSpace(q.Get("subCategory")))
	}
	return sel, nil
}

func parseOrder(q url.Values) (core.Order, error) {
	return core.ParseOrder(q.Get("sort"), q.Get("dir"))
}

// decodeJSON decodes a size-limited request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", core.ErrFormat, err)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: request body: %v", core.ErrFormat, err)
	}
	return b, nil
}

// decodeFields turns a {field: value} object into mutations, applied in
// core.Fields order. Unknown fields are rejected.
func decodeFields(fields map[string]json.RawMessage) ([]core.Mutation, error) {
	for name := range fields {
		known := false
		for _, f := range core.Fields {
			known = known || f == name
		}
		if !known {
			return nil, fmt.Errorf("%w: %q", core.ErrUnknownField, name)
		}
	}
	muts := make([]core.Mutation, 0, len(fields))
	for _, f := range core.Fields {
		raw, ok := fields[f]
		if !ok {
			continue
		}
		m, err := core.DecodeMutation(f, raw)
		if err != nil {
			if !core.IsValidation(err) {
				err = fmt.Errorf("%w: %v", core.ErrFormat, err)
			}
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		muts = append(muts, m)
	}
	return muts, nil
}

// pathParam returns the decoded chi URL parameter key.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
