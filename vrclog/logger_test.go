package vrclog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopDiscardsEverything(t *testing.T) {
	t.Parallel()

	l := Noop()
	l.Debug(context.Background(), "hello")
	l.Warn(context.Background(), "hello", errors.New("boom"))
	l.Error(context.Background(), "hello", errors.New("boom"))
}

func TestSlogLoggerWritesRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewSlog(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Warn(context.Background(), "orphaned node", errors.New("lost the name-map race"))
	require.Contains(t, buf.String(), "orphaned node")
	require.Contains(t, buf.String(), "lost the name-map race")
}

func TestNewSlogPanicsOnNilLogger(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewSlog(nil)
	})
}
