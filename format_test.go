package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAge(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"sub-second", 300 * time.Millisecond, "just now"},
		{"negative clock skew", -time.Second, "just now"},
		{"seconds", 12 * time.Second, "12s ago"},
		{"minutes", 3*time.Minute + 10*time.Second, "3m ago"},
		{"hours", 5 * time.Hour, "5h ago"},
		{"days", 50 * time.Hour, "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAge(tt.d))
		})
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()
	sameYear := time.Date(now.Year(), time.March, 15, 10, 30, 0, 0, time.Local)
	diffYear := time.Date(2020, time.December, 25, 8, 0, 0, 0, time.Local)

	t.Run("same year", func(t *testing.T) {
		result := formatTime(sameYear)
		assert.Contains(t, result, "Mar")
		assert.Contains(t, result, "15")
		assert.Contains(t, result, "10:30:00")
	})

	t.Run("different year", func(t *testing.T) {
		result := formatTime(diffYear)
		assert.Contains(t, result, "Dec")
		assert.Contains(t, result, "25")
		assert.Contains(t, result, "2020")
	})
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestErrWriter_KeepsFirstError(t *testing.T) {
	ew := &errWriter{w: brokenWriter{}}
	ew.printf("a")
	ew.printf("b")
	assert.EqualError(t, ew.err, "closed pipe")

	var buf bytes.Buffer
	ok := &errWriter{w: &buf}
	ok.printf("%s=%d", "x", 1)
	assert.NoError(t, ok.err)
	assert.Equal(t, "x=1", buf.String())
}
