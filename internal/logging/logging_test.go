package logging_test

import (
	"testing"

	"github.com/dslomov/bazel/internal/logging"
)

func TestGetReturnsLeveledLogger(t *testing.T) {
	logging.Setup()
	logger := logging.Get("reconciler")
	if logger.GetLevel().String() == "" {
		t.Error("expected configured logger to report a level")
	}
}

func TestPhaseReturnsCompletionFunc(t *testing.T) {
	logging.Setup()
	logger := logging.Get("driver")
	done := logging.Phase(logger, "scan")
	if done == nil {
		t.Fatal("Phase should return a non-nil completion function")
	}
	done()
}
