// logger.go: zap-backed warden.Logger
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package zap adapts a *zap.SugaredLogger to warden.Logger, for
// applications that already standardize on go.uber.org/zap for
// structured logging and want warden's Debug/Info/Warn/Error calls to
// flow through the same sinks.
package zap

import "go.uber.org/zap"

// Logger implements warden.Logger by delegating to a *zap.SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New wraps base as a warden.Logger. base must not be nil.
func New(base *zap.Logger) *Logger {
	return &Logger{sugar: base.Sugar()}
}

// Debug implements warden.Logger.
func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.sugar.Debugw(msg, keyvals...) }

// Info implements warden.Logger.
func (l *Logger) Info(msg string, keyvals ...interface{}) { l.sugar.Infow(msg, keyvals...) }

// Warn implements warden.Logger.
func (l *Logger) Warn(msg string, keyvals ...interface{}) { l.sugar.Warnw(msg, keyvals...) }

// Error implements warden.Logger.
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.sugar.Errorw(msg, keyvals...) }
