package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitializeSetsLevel(t *testing.T) {
	defer Initialize("info")

	Initialize("debug")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	Initialize("ERROR")
	assert.Equal(t, logrus.ErrorLevel, log.GetLevel())
}

func TestInitializeInvalidLevelFallsBackToInfo(t *testing.T) {
	defer Initialize("info")

	Initialize("verbose")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestErrorWithStackNilIsNoOp(t *testing.T) {
	// Must not panic
	ErrorWithStack(nil)
}
