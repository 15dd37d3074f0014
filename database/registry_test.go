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

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type registryModelA struct{ ID int64 }

type registryModelB struct{ ID int64 }

type registryModelC struct{ ID int64 }

func TestModelRegistryOrder(t *testing.T) {
	r := NewModelRegistry()
	r.Register(NewModelAdapter(&registryModelA{}, 20))
	r.Register(NewModelAdapter(&registryModelB{}, 10))
	r.Register(NewModelAdapter(&registryModelC{}, 20))
	r.Register(NewModelAdapter(&registryModelB{}, 5))
	r.Register(nil)
	r.Register(NewModelAdapter(nil, 1))

	models := r.Models()
	if assert.Len(t, models, 3) {
		assert.IsType(t, &registryModelB{}, models[0].Instance())
		assert.Equal(t, 5, models[0].Priority())
		assert.IsType(t, &registryModelA{}, models[1].Instance())
		assert.IsType(t, &registryModelC{}, models[2].Instance())
	}
	r.Apply(nil)
}

type registryDefaultModel struct{ ID int64 }

func TestDefaultRegistry(t *testing.T) {
	RegisteredModel(NewModelAdapter(&registryDefaultModel{}, 1))

	assert.Contains(t, RegisteredModelInstances(), interface{}(&registryDefaultModel{}))
	found := false
	for _, m := range GetRegisteredModels() {
		if _, ok := m.Instance().(*registryDefaultModel); ok {
			found = true
			assert.Equal(t, 1, m.Priority())
		}
	}
	assert.True(t, found)
}

func TestZapLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("debug", "k", 1)
	logger.SetLevel(LogLevelWarn)
	logger.Info("info")
	logger.Warn("warn", "op", "Count")
	logger.Error("error")

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "debug", entries[0].Message)
		assert.Equal(t, int64(1), entries[0].ContextMap()["k"])
		assert.Equal(t, "Count", entries[1].ContextMap()["op"])
		assert.Equal(t, "error", entries[2].Message)
	}

	NewZapLogger(nil).Error("dropped")
}

func TestDefaultLoggerFields(t *testing.T) {
	fields := toLogrusFields([]interface{}{"op", "Add", "rows", 2, "dangling"})
	assert.Equal(t, "Add", fields["op"])
	assert.Equal(t, 2, fields["rows"])
	assert.Equal(t, "dangling", fields["EXTRA"])
	assert.Nil(t, toLogrusFields(nil))

	l := NewDefaultLogger("DATABASE_TEST")
	l.SetLevel(LogLevelError)
	l.Info("suppressed")
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "DEBUG", LogLevel(9).String())
}
