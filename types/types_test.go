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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequestDefaults(t *testing.T) {
	p := NewPageRequest(0, 0, nil, nil)
	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, DefaultPageSize, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())

	p = NewPageRequestWithOrders(3, 5000, "id DESC")
	assert.Equal(t, MaxPageSize, p.GetPageSize())
	assert.Equal(t, 2*MaxPageSize, p.GetOffset())
	assert.Equal(t, []string{"id DESC"}, p.GetOrders())
}

func TestPaginationPages(t *testing.T) {
	p := NewDefaultPagination[int](1, 10)
	assert.Equal(t, 0, p.TotalPages())
	assert.False(t, p.HasNext())

	p.Total = 21
	assert.Equal(t, 3, p.TotalPages())
	assert.True(t, p.HasNext())
}

func TestJsonObjectRoundTrip(t *testing.T) {
	in := JsonObject{"color": "red", "size": 3.0}
	v, err := in.Value()
	require.NoError(t, err)

	var out JsonObject
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	var fromText JsonObject
	require.NoError(t, fromText.Scan(`{"a":"b"}`))
	assert.Equal(t, "b", fromText["a"])

	var empty JsonObject
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)

	assert.Error(t, empty.Scan(42))
}

func TestJsonArrayScan(t *testing.T) {
	var arr JsonArray
	require.NoError(t, arr.Scan([]byte(`[{"a":1},{"b":2}]`)))
	assert.Len(t, arr, 2)

	v, err := JsonArray(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLookupEnum(t *testing.T) {
	values := []EnumValue{{"a", "first"}, {"b", "second"}}
	v, ok := LookupEnum(values, 1)
	assert.True(t, ok)
	assert.Equal(t, "b", v.Name)

	v, ok = LookupEnum(values, IllegalValue)
	assert.False(t, ok)
	assert.Equal(t, IllegalName, v.Name)
}
