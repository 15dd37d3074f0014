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

package repository

import (
	"context"

	"github.com/tomoncle/basestore/types"
)

// CountFault is returned by Repository.Count when the backing store failed.
// It is distinct from every real count, including zero.
const CountFault = -1

// Repository is the lenient generic repository. Query, Count,
// FirstOrDefault, Remove and Insert log backing store faults and return an
// empty, CountFault or nil result instead; every other operation returns the
// fault to the caller.
type Repository[T any] interface {
	// Query returns the records matching filter, all records when filter is
	// nil, in the backing store's default order.
	Query(ctx context.Context, filter *types.QueryFilter) []*T

	// QueryWithRelations is Query with the named Bun relations loaded.
	QueryWithRelations(ctx context.Context, filter *types.QueryFilter, relations ...string) ([]*T, error)

	// Count returns the number of matching records, 0 when filter is nil.
	Count(ctx context.Context, filter *types.QueryFilter) int

	// FirstOrDefault returns the first matching record or nil.
	FirstOrDefault(ctx context.Context, filter *types.QueryFilter) *T

	// Add inserts entity and returns it with store-generated columns set.
	Add(ctx context.Context, entity *T) (*T, error)

	// AddAll inserts entities in one statement.
	AddAll(ctx context.Context, entities []*T) ([]*T, error)

	// Update overwrites the first record matching idFilter with the values
	// of entity and returns its post-update state.
	Update(ctx context.Context, entity *T, idFilter *types.QueryFilter) (*T, error)

	// UpdateAll matches every entity to its stored counterpart on
	// keyProperties (primary key when empty) and overwrites the remaining
	// columns. Entities without a counterpart are ignored.
	UpdateAll(ctx context.Context, entities []*T, keyProperties []string) ([]*T, error)

	// Delete removes the first matching record, or all of them when
	// deleteMany is set. It reports false only when deleteMany is unset and
	// nothing matched.
	Delete(ctx context.Context, filter *types.QueryFilter, deleteMany bool) (bool, error)

	// Remove deletes entity by primary key.
	Remove(ctx context.Context, entity *T)

	// Insert is Add returning nil on failure.
	Insert(ctx context.Context, entity *T) *T

	// Checked returns the same repository with uniform error returns.
	Checked() CheckedRepository[T]
}

// CheckedRepository is the generic repository with uniform error handling:
// every non-nil error is a *Fault.
type CheckedRepository[T any] interface {
	// Query returns the matching records with the named relations loaded.
	Query(ctx context.Context, filter *types.QueryFilter, relations ...string) ([]*T, error)

	// Count returns the number of matching records, all records when
	// filter is nil.
	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	// FirstOrDefault returns nil, nil when nothing matches.
	FirstOrDefault(ctx context.Context, filter *types.QueryFilter) (*T, error)

	Add(ctx context.Context, entity *T) (*T, error)
	AddAll(ctx context.Context, entities []*T) ([]*T, error)

	// Update fails with a FaultNotFound fault when nothing matches idFilter.
	Update(ctx context.Context, entity *T, idFilter *types.QueryFilter) (*T, error)
	UpdateAll(ctx context.Context, entities []*T, keyProperties []string) ([]*T, error)
	Delete(ctx context.Context, filter *types.QueryFilter, deleteMany bool) (bool, error)

	// Remove fails with a FaultNotFound fault when no row was deleted.
	Remove(ctx context.Context, entity *T) error

	// Page returns one page of matching records and the total match count.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Upsert inserts entities, updating fields of rows that collide on
	// duplicateKeys (primary key when empty).
	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entities ...*T) error
}
