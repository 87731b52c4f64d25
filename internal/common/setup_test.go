package common

import (
	"testing"

	"go.uber.org/zap"
)

func TestInitializeLogger_ReplacesGlobal(t *testing.T) {
	previous := zap.L()
	logger, cleanup := InitializeLogger()
	defer cleanup()
	defer zap.ReplaceGlobals(previous)

	if logger == nil {
		t.Fatal("Expected a logger")
	}
	if zap.L() != logger {
		t.Error("Expected the global logger to be replaced")
	}
	if !zap.L().Core().Enabled(zap.InfoLevel) {
		t.Error("Expected the global logger to write info entries")
	}
}
