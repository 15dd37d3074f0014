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
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type filterModel struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID   int64 `bun:"id,pk"`
	Name string
}

// where renders f as the WHERE clause of a select on filterModel.
func where(t *testing.T, f *QueryFilter) string {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	query := db.NewSelect().Model((*filterModel)(nil)).Where(f.Schema, f.Args...).String()
	_, clause, ok := strings.Cut(query, " WHERE ")
	require.True(t, ok, query)
	return strings.TrimSuffix(strings.TrimPrefix(clause, "("), ")")
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name   string
		filter *QueryFilter
		want   string
	}{
		{"eq", Eq("name", "a"), `"w"."name" = 'a'`},
		{"ne", Ne("id", 1), `"w"."id" <> 1`},
		{"gt", Gt("price", 10), `"w"."price" > 10`},
		{"gte", Gte("price", 10), `"w"."price" >= 10`},
		{"lt", Lt("price", 10), `"w"."price" < 10`},
		{"lte", Lte("price", 10), `"w"."price" <= 10`},
		{"like", Like("name", "w%"), `"w"."name" LIKE 'w%'`},
		{"in", In("id", []int{1, 2, 3}), `"w"."id" IN (1, 2, 3)`},
		{"null", IsNull("deleted_at"), `"w"."deleted_at" IS NULL`},
		{"not null", NotNull("deleted_at"), `"w"."deleted_at" IS NOT NULL`},
		{"prefixed", Eq("author.id", 3), `"author"."id" = 3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, where(t, tt.filter))
		})
	}
}

func TestComparisonsUseTableAlias(t *testing.T) {
	f := Eq("id", 1)
	assert.Equal(t, "?TableAlias.? = ?", f.Schema)
	assert.Equal(t, []interface{}{bun.Ident("id"), 1}, f.Args)

	raw := NewQueryFilter("id = ?", 1)
	assert.Equal(t, "id = ?", raw.String())
}

func TestCombinators(t *testing.T) {
	f := And(Eq("name", "a"), nil, Or(Gt("price", 1), Lt("price", 0)))
	assert.Equal(t, `("w"."name" = 'a') AND (("w"."price" > 1) OR ("w"."price" < 0))`, where(t, f))

	single := And(nil, Eq("id", 7))
	assert.Equal(t, `"w"."id" = 7`, where(t, single))

	assert.Nil(t, And())
	assert.Nil(t, Or(nil, &QueryFilter{}))
	assert.Nil(t, Not(nil))
	assert.Equal(t, `NOT ("w"."id" = 7)`, where(t, Not(Eq("id", 7))))
}

func TestIsEmpty(t *testing.T) {
	var nilFilter *QueryFilter
	assert.True(t, nilFilter.IsEmpty())
	assert.True(t, NewQueryFilter("  ").IsEmpty())
	assert.False(t, NewQueryFilter("id = ?", 1).IsEmpty())
	assert.Equal(t, "", nilFilter.String())
}
