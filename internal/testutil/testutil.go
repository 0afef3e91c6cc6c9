// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// TempDBPath returns a sqlite file path inside a per-test temp directory.
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "hits.db")
}

// WriteTempFile writes content to name inside a per-test temp directory
// and returns the full path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// Permutations returns every ordering of items. The input is not modified.
func Permutations[T any](items []T) [][]T {
	work := make([]T, len(items))
	copy(work, items)
	var out [][]T
	var permute func(k int)
	permute = func(k int) {
		if k == len(work) {
			p := make([]T, len(work))
			copy(p, work)
			out = append(out, p)
			return
		}
		for i := k; i < len(work); i++ {
			work[k], work[i] = work[i], work[k]
			permute(k + 1)
			work[k], work[i] = work[i], work[k]
		}
	}
	permute(0)
	return out
}
