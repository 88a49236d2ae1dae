// Package testutil holds helpers shared by tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// LoadJSON reads testdata/<filename> and unmarshals it into target.
func LoadJSON(filename string, target any) error {
	_, currentFile, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(currentFile), "testdata")

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// LoadFixture is LoadJSON that fails t on error.
func LoadFixture(t testing.TB, filename string, target any) {
	t.Helper()
	require.NoError(t, LoadJSON(filename, target), "fixture %s", filename)
}
