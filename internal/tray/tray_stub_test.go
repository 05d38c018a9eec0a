//go:build !(windows || ((linux || darwin) && cgo))

package tray

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStubRunsLoopInline(t *testing.T) {
	tr := New(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	want := errors.New("loop finished")
	err := tr.Run(func() error { return want })
	assert.ErrorIs(t, err, want)

	select {
	case name := <-tr.Commands():
		t.Fatalf("stub tray delivered %q", name)
	default:
	}
	tr.SetVisible(true)
	tr.Stop()
}
