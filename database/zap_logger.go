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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewZapLogger adapts a zap logger to Logger. Fields are passed to zap's
// sugared Debugw/Infow/Warnw/Errorw unchanged.
func NewZapLogger(z *zap.Logger) Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &zapLogger{
		sugar: z.WithOptions(zap.AddCallerSkip(1)).Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
}

func (l *zapLogger) SetLevel(level LogLevel) {
	switch level {
	case LogLevelInfo:
		l.level.SetLevel(zapcore.InfoLevel)
	case LogLevelWarn:
		l.level.SetLevel(zapcore.WarnLevel)
	case LogLevelError:
		l.level.SetLevel(zapcore.ErrorLevel)
	default:
		l.level.SetLevel(zapcore.DebugLevel)
	}
}

func (l *zapLogger) Debug(msg string, fields ...interface{}) {
	if l.level.Enabled(zapcore.DebugLevel) {
		l.sugar.Debugw(msg, fields...)
	}
}

func (l *zapLogger) Info(msg string, fields ...interface{}) {
	if l.level.Enabled(zapcore.InfoLevel) {
		l.sugar.Infow(msg, fields...)
	}
}

func (l *zapLogger) Warn(msg string, fields ...interface{}) {
	if l.level.Enabled(zapcore.WarnLevel) {
		l.sugar.Warnw(msg, fields...)
	}
}

func (l *zapLogger) Error(msg string, fields ...interface{}) {
	if l.level.Enabled(zapcore.ErrorLevel) {
		l.sugar.Errorw(msg, fields...)
	}
}
