package logutil

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "********", RedactKey("short"))
	assert.Equal(t, "sk-o...wxyz", RedactKey("sk-or-abcdefghijklmnopqrstuvwxyz"))
}

func TestSanitizeForLog(t *testing.T) {
	assert.Equal(t, "line one line two", SanitizeForLog("line one\nline two"))
	assert.Equal(t, "Authorization: Bearer <redacted>", SanitizeForLog("Authorization: Bearer sk-secret"))
	assert.Equal(t, "GOOGLE_API_KEY=<redacted> ok", SanitizeForLog("GOOGLE_API_KEY=AIzaXYZ ok"))

	long := strings.Repeat("é", 500)
	got := SanitizeForLog(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, maxLogAnswer+3, len([]rune(got)))
}

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	closer := setup(true, path)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	log.Printf("hello from test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestSetupDisabledCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.log")
	closer := setup(false, path)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	log.Printf("discarded")
	require.NoError(t, closer.Close())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
