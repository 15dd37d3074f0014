/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"strings"

	"github.com/uptrace/bun"
)

// QueryFilter describes a WHERE clause schema and its argument values. It is
// handed to Bun untouched, so the schema may use any Bun placeholder such as
// ?TableAlias or ?PKs.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// IsEmpty reports whether the filter would not restrict a query.
func (f *QueryFilter) IsEmpty() bool {
	return f == nil || strings.TrimSpace(f.Schema) == ""
}

// String returns the raw schema, mostly useful in logs.
func (f *QueryFilter) String() string {
	if f == nil {
		return ""
	}
	return f.Schema
}

// qualified prefixes a bare column name with the model's alias so filters stay
// unambiguous when relations are joined. A name that already carries a table
// prefix ("author.id") is quoted as given.
func qualified(name string) (string, bun.Ident) {
	if strings.Contains(name, ".") {
		return "?", bun.Ident(name)
	}
	return "?TableAlias.?", bun.Ident(name)
}

func compare(name, op string, value interface{}) *QueryFilter {
	expr, ident := qualified(name)
	return NewQueryFilter(expr+" "+op+" ?", ident, value)
}

// Eq matches rows whose column equals value.
func Eq(column string, value interface{}) *QueryFilter { return compare(column, "=", value) }

// Ne matches rows whose column differs from value.
func Ne(column string, value interface{}) *QueryFilter { return compare(column, "<>", value) }

func Gt(column string, value interface{}) *QueryFilter { return compare(column, ">", value) }

func Gte(column string, value interface{}) *QueryFilter { return compare(column, ">=", value) }

func Lt(column string, value interface{}) *QueryFilter { return compare(column, "<", value) }

func Lte(column string, value interface{}) *QueryFilter { return compare(column, "<=", value) }

// Like matches rows whose column matches the SQL LIKE pattern.
func Like(column string, pattern string) *QueryFilter { return compare(column, "LIKE", pattern) }

// In matches rows whose column is one of values. values must be a slice.
func In(name string, values interface{}) *QueryFilter {
	expr, ident := qualified(name)
	return NewQueryFilter(expr+" IN (?)", ident, bun.In(values))
}

func IsNull(name string) *QueryFilter {
	expr, ident := qualified(name)
	return NewQueryFilter(expr+" IS NULL", ident)
}

func NotNull(name string) *QueryFilter {
	expr, ident := qualified(name)
	return NewQueryFilter(expr+" IS NOT NULL", ident)
}

// And joins the non-empty filters with AND. It returns nil when every filter
// is empty.
func And(filters ...*QueryFilter) *QueryFilter { return join(" AND ", filters) }

// Or joins the non-empty filters with OR. It returns nil when every filter is
// empty.
func Or(filters ...*QueryFilter) *QueryFilter { return join(" OR ", filters) }

// Not negates the filter. An empty filter stays empty.
func Not(filter *QueryFilter) *QueryFilter {
	if filter.IsEmpty() {
		return nil
	}
	return NewQueryFilter("NOT ("+filter.Schema+")", filter.Args...)
}

func join(sep string, filters []*QueryFilter) *QueryFilter {
	var kept []*QueryFilter
	for _, f := range filters {
		if !f.IsEmpty() {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return NewQueryFilter(kept[0].Schema, kept[0].Args...)
	}
	parts := make([]string, len(kept))
	var args []interface{}
	for i, f := range kept {
		parts[i] = "(" + f.Schema + ")"
		args = append(args, f.Args...)
	}
	return NewQueryFilter(strings.Join(parts, sep), args...)
}
