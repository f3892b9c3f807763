// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"github.com/newtuple/dialogtuple/pkg/storage"
)

// OpenSQLite opens a shared-cache in-memory SQLite database private to t and
// closes it when the test ends.
func OpenSQLite(t testing.TB) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := storage.Open(storage.Config{
		Driver: storage.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Golden decodes the JSON file at path into v.
func Golden(t testing.TB, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode golden %s: %v", path, err)
	}
}
