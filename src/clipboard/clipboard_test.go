package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBackend(t *testing.T, initErr error) *[]string {
	t.Helper()
	var written []string
	prevInit, prevWrite, prevReady := initBackend, writeBackend, ready
	initBackend = func() error { return initErr }
	writeBackend = func(b []byte) { written = append(written, string(b)) }
	ready = false
	t.Cleanup(func() { initBackend, writeBackend, ready = prevInit, prevWrite, prevReady })
	return &written
}

func TestWriteRequiresInit(t *testing.T) {
	written := fakeBackend(t, nil)
	assert.Error(t, Write("early"))

	require.NoError(t, Init())
	require.NoError(t, Write("PARIS"))
	assert.Equal(t, []string{"PARIS"}, *written)
}

func TestInitFailure(t *testing.T) {
	written := fakeBackend(t, errors.New("no display"))
	assert.Error(t, Init())
	assert.Error(t, Write("x"))
	assert.Empty(t, *written)
}
