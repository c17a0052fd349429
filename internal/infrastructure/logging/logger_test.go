package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
	// Should not panic on any level or on child loggers.
	log.Debug("d")
	log.Info("i", String("k", "v"))
	child := log.With(Int("n", 1)).Named("child")
	child.Warn("w", Error(errors.New("boom")))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("debug").String())
	assert.Equal(t, "warn", parseLevel("WARN").String())
	assert.Equal(t, "error", parseLevel("error").String())
	assert.Equal(t, "info", parseLevel("unknown").String())
	assert.Equal(t, "info", parseLevel("").String())
}

func TestRecorderCapturesWithFields(t *testing.T) {
	rec := NewRecorder()
	child := rec.With(String("component", "matcher"))
	child.Warn("compartment not recognized", String("compartment", "x"))
	rec.Info("done")

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "compartment not recognized", entries[0].Message)
	// Parent fields are folded into the child's entries.
	assert.Equal(t, "component", entries[0].Fields[0].Key)

	assert.Equal(t, []string{"compartment not recognized"}, rec.Warnings())
}
