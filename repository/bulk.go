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
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

func (r *checkedRepositoryImpl[T]) UpdateAll(ctx context.Context, entities []*T, keyProperties []string) ([]*T, error) {
	if len(entities) == 0 {
		return entities, nil
	}
	if err := r.checkNoNil("UpdateAll", entities); err != nil {
		return nil, err
	}
	err := r.run(ctx, "UpdateAll", true, func(db bun.IDB) error {
		table := r.table(db)
		keys, err := r.resolveFields(table, keyProperties)
		if err != nil {
			return err
		}
		columns := settableFields(table, keys)
		if len(columns) == 0 {
			return nil
		}
		if db.Dialect().Name() == dialect.PG {
			return bulkUpdateFromValues(ctx, db, entities, keys, columns)
		}
		return updateEach(ctx, db, entities, keys, columns)
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// resolveFields maps column or Go field names to fields of table. An empty
// list selects the primary key.
func (r *checkedRepositoryImpl[T]) resolveFields(table *schema.Table, names []string) ([]*schema.Field, error) {
	if len(names) == 0 {
		if len(table.PKs) == 0 {
			return nil, invalidArgument("%s has no primary key", r.entity)
		}
		return table.PKs, nil
	}
	fields := make([]*schema.Field, 0, len(names))
	for _, name := range names {
		f := lookupField(table, name)
		if f == nil {
			return nil, invalidArgument("%s has no property %q", r.entity, name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func lookupField(table *schema.Table, name string) *schema.Field {
	if f, ok := table.FieldMap[name]; ok {
		return f
	}
	for _, f := range table.Fields {
		if f.GoName == name {
			return f
		}
	}
	return nil
}

func settableFields(table *schema.Table, keys []*schema.Field) []*schema.Field {
	var fields []*schema.Field
	for _, f := range table.Fields {
		if f.IsPK || containsField(keys, f) {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

func containsField(fields []*schema.Field, f *schema.Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

func fieldNames(fields []*schema.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// bulkUpdateFromValues issues a single
// WITH _data (VALUES ...) UPDATE ... FROM _data statement.
func bulkUpdateFromValues[T any](ctx context.Context, db bun.IDB, entities []*T, keys, columns []*schema.Field) error {
	q := db.NewUpdate().
		With("_data", db.NewValues(&entities)).
		Model((*T)(nil)).
		TableExpr("_data")
	for _, c := range columns {
		q = q.Set("? = _data.?", bun.Ident(c.Name), bun.Ident(c.Name))
	}
	for _, k := range keys {
		q = q.Where("?TableAlias.? = _data.?", bun.Ident(k.Name), bun.Ident(k.Name))
	}
	_, err := q.Exec(ctx)
	return err
}

func updateEach[T any](ctx context.Context, db bun.IDB, entities []*T, keys, columns []*schema.Field) error {
	names := fieldNames(columns)
	for _, e := range entities {
		v := reflect.ValueOf(e).Elem()
		q := db.NewUpdate().Model(e).Column(names...)
		for _, k := range keys {
			q = q.Where("? = ?", bun.Ident(k.Name), k.Value(v).Interface())
		}
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *checkedRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entities ...*T) error {
	if len(fields) == 0 {
		return r.fault("Upsert", "", invalidArgument("upsert of %s requires fields", r.entity))
	}
	if len(entities) == 0 {
		return nil
	}
	if err := r.checkNoNil("Upsert", entities); err != nil {
		return err
	}
	return r.run(ctx, "Upsert", true, func(db bun.IDB) error {
		table := r.table(db)
		set, err := r.resolveFields(table, fields)
		if err != nil {
			return err
		}
		features := db.Dialect().Features()
		switch {
		case features.Has(feature.InsertOnConflict):
			keys, err := r.resolveFields(table, duplicateKeys)
			if err != nil {
				return err
			}
			return upsertOnConflict(ctx, db, entities, set, keys)
		case features.Has(feature.InsertOnDuplicateKey):
			return upsertOnDuplicateKey(ctx, db, entities, set)
		default:
			return upsertFallback(ctx, db, entities)
		}
	})
}

func upsertOnConflict[T any](ctx context.Context, db bun.IDB, entities []*T, set, keys []*schema.Field) error {
	idents := make([]bun.Ident, len(keys))
	for i, k := range keys {
		idents[i] = bun.Ident(k.Name)
	}
	q := db.NewInsert().
		Model(&entities).
		On("CONFLICT (?) DO UPDATE", bun.In(idents))
	for _, f := range set {
		q = q.Set("? = EXCLUDED.?", bun.Ident(f.Name), bun.Ident(f.Name))
	}
	_, err := q.Exec(ctx)
	return err
}

func upsertOnDuplicateKey[T any](ctx context.Context, db bun.IDB, entities []*T, set []*schema.Field) error {
	q := db.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE")
	for _, f := range set {
		q = q.Set("? = VALUES(?)", bun.Ident(f.Name), bun.Ident(f.Name))
	}
	_, err := q.Exec(ctx)
	return err
}

// upsertFallback inserts each entity and updates it by primary key when the
// insert is rejected.
func upsertFallback[T any](ctx context.Context, db bun.IDB, entities []*T) error {
	for _, entity := range entities {
		_, err := db.NewInsert().Model(entity).Exec(ctx)
		if err == nil {
			continue
		}
		if _, updateErr := db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
			return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %w", err, updateErr)
		}
	}
	return nil
}
