//
// Tencent is pleased to support the open source community by making trpc-elasticsearch-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-elasticsearch-go is licensed under the Apache License Version 2.0.
//
//

package log_test

import (
	"testing"

	"trpc.group/trpc-go/trpc-elasticsearch-go/log"
)

func TestDefaultReplaceable(t *testing.T) {
	old := log.Default
	defer func() { log.Default = old }()

	rec := &recordingLogger{}
	log.Default = rec

	log.Debug("d")
	log.Debugf("d %d", 1)
	log.Info("i")
	log.Infof("i %d", 2)
	log.Warn("w")
	log.Warnf("w %d", 3)
	log.Error("e")
	log.Errorf("e %d", 4)
	log.Fatal("f")
	log.Fatalf("f %d", 5)

	if rec.calls != 10 {
		t.Fatalf("want 10 calls through Default, got %d", rec.calls)
	}
}

func TestSetLevelUnknownFallsBack(t *testing.T) {
	// Must not panic; unknown levels fall back to info.
	log.SetLevel("verbose")
	log.SetLevel(log.LevelDebug)
	log.SetLevel(log.LevelInfo)
}

type recordingLogger struct{ calls int }

func (l *recordingLogger) Debug(args ...any)                 { l.calls++ }
func (l *recordingLogger) Debugf(format string, args ...any) { l.calls++ }
func (l *recordingLogger) Info(args ...any)                  { l.calls++ }
func (l *recordingLogger) Infof(format string, args ...any)  { l.calls++ }
func (l *recordingLogger) Warn(args ...any)                  { l.calls++ }
func (l *recordingLogger) Warnf(format string, args ...any)  { l.calls++ }
func (l *recordingLogger) Error(args ...any)                 { l.calls++ }
func (l *recordingLogger) Errorf(format string, args ...any) { l.calls++ }
func (l *recordingLogger) Fatal(args ...any)                 { l.calls++ }
func (l *recordingLogger) Fatalf(format string, args ...any) { l.calls++ }
