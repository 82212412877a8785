package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf, WARN)

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "[WARN] loud")
}

func TestWithFieldsAppearInOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf, INFO)

	logger.WithFields(map[string]interface{}{"to": "family@example.com"}).Info("Mail delivered")

	assert.Contains(t, buf.String(), "to=family@example.com")
	assert.Contains(t, buf.String(), "Mail delivered")
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithOutput(&buf, INFO)

	child := parent.WithField("memory", "abc123")
	child.Info("tagged")
	parent.Info("plain")

	out := buf.String()
	assert.Contains(t, out, "memory=abc123")
	assert.Contains(t, out, "[INFO] plain\n")
}
