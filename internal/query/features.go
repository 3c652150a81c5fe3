// Package query translates raw query-string parameters into the pieces of a
// SQL statement: WHERE filters, ORDER BY, column projection and
// LIMIT/OFFSET. Repositories splice the fragments into their hand-built
// queries; every value travels as a bind argument, never as SQL text.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Defaults applied when the associated parameter is absent.
const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// reserved parameter names consumed by the non-filter stages.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// comparison operator suffixes accepted in bracketed keys, e.g.
// price[gte]=100. Anything else inside brackets is ignored.
var operators = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

// Column maps an API parameter name to its database column. The order of
// the slice fixes the default projection order.
type Column struct {
	Name string // parameter / field-selection name, e.g. "ratingsAverage"
	Col  string // database column, e.g. "ratings_average"
}

// Features is a chainable builder over a query-parameter mapping. Each
// stage tolerates the absence of its parameter and falls back to the stated
// default. Stages are independent; the conventional order is
// Filter().Sort().LimitFields().Paginate().
type Features struct {
	params url.Values
	cols   []Column
	byName map[string]Column

	selectCols  []string
	where       []string
	args        []any
	order       []string
	defaultSort string
	limit       int
	offset      int
}

// New builds a Features pipeline over the given parameters and column
// whitelist. Parameters naming columns outside the whitelist are dropped,
// which keeps client input away from SQL identifiers entirely.
func New(params url.Values, cols []Column) *Features {
	byName := make(map[string]Column, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}
	return &Features{
		params:      params,
		cols:        cols,
		byName:      byName,
		defaultSort: "created_at DESC",
		limit:       DefaultLimit,
	}
}

// Filter consumes every parameter except page/sort/limit/fields and turns
// it into a WHERE condition. A bare key is an equality match; a bracketed
// suffix selects a comparison operator (gte, gt, lte, lt). Values that
// parse as numbers are bound as float64 so numeric columns compare
// numerically.
func (f *Features) Filter() *Features {
	for key, vals := range f.params {
		name, op := splitOperator(key)
		if reserved[name] || len(vals) == 0 {
			continue
		}
		col, ok := f.byName[name]
		if !ok || op == "" {
			continue
		}
		f.where = append(f.where, col.Col+" "+op+" ?")
		f.args = append(f.args, bindValue(vals[0]))
	}
	return f
}

// Sort applies the comma-separated sort parameter in order; a leading "-"
// selects descending. Without the parameter, results come back newest
// first.
func (f *Features) Sort() *Features {
	raw := f.params.Get("sort")
	if raw == "" {
		f.order = append(f.order, f.defaultSort)
		return f
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		dir := "ASC"
		if strings.HasPrefix(part, "-") {
			part = part[1:]
			dir = "DESC"
		}
		if col, ok := f.byName[part]; ok {
			f.order = append(f.order, col.Col+" "+dir)
		}
	}
	if len(f.order) == 0 {
		f.order = append(f.order, f.defaultSort)
	}
	return f
}

// LimitFields narrows the projection to the comma-separated fields
// parameter. The id column always rides along so responses stay
// addressable. Without the parameter the whole whitelist is selected;
// internal columns never appear in a whitelist, so they are excluded by
// construction.
func (f *Features) LimitFields() *Features {
	raw := f.params.Get("fields")
	if raw == "" {
		for _, c := range f.cols {
			f.selectCols = append(f.selectCols, c.Col)
		}
		return f
	}
	seen := map[string]bool{}
	pick := func(name string) {
		if col, ok := f.byName[name]; ok && !seen[col.Col] {
			seen[col.Col] = true
			f.selectCols = append(f.selectCols, col.Col)
		}
	}
	pick("id")
	for _, part := range strings.Split(raw, ",") {
		pick(strings.TrimSpace(part))
	}
	return f
}

// Paginate parses page (default 1) and limit (default 100) and computes
// offset = (page-1) * limit. Non-positive or unparsable values fall back to
// the defaults. No upper bound is enforced on limit.
func (f *Features) Paginate() *Features {
	page := positiveInt(f.params.Get("page"), DefaultPage)
	f.limit = positiveInt(f.params.Get("limit"), DefaultLimit)
	f.offset = (page - 1) * f.limit
	return f
}

// Columns returns the projection built by LimitFields. An empty result
// means LimitFields was not run; callers should treat that as "all".
func (f *Features) Columns() []string { return f.selectCols }

// Where returns the filter conditions joined with AND, plus their bind
// arguments. The clause is empty when no filters applied.
func (f *Features) Where() (string, []any) {
	return strings.Join(f.where, " AND "), f.args
}

// OrderBy returns the ORDER BY column list built by Sort.
func (f *Features) OrderBy() string { return strings.Join(f.order, ", ") }

// LimitOffset returns the pagination window built by Paginate.
func (f *Features) LimitOffset() (limit, offset int) { return f.limit, f.offset }

// splitOperator breaks "price[gte]" into ("price", ">="). A bare key maps
// to equality; an unknown bracketed suffix yields an empty operator so the
// key is dropped.
func splitOperator(key string) (name, op string) {
	open := strings.Index(key, "[")
	if open < 0 {
		return key, "="
	}
	if !strings.HasSuffix(key, "]") {
		return key, ""
	}
	name = key[:open]
	if sql, ok := operators[key[open+1:len(key)-1]]; ok {
		return name, sql
	}
	return name, ""
}

// bindValue passes numeric-looking strings through as float64 so that
// comparisons against numeric columns are numeric rather than lexical.
func bindValue(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// positiveInt parses s as a positive integer, falling back to def.
func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
