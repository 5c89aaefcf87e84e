package testutil

import (
	"os"
	"sort"
	"strings"
	"testing"
)

// DistinctPermutations returns the sorted set of distinct arrangements of s,
// computed in memory. Only suitable for short inputs; tests use it as the
// reference the file-backed pipeline must reproduce.
func DistinctPermutations(s string) []string {
	runes := []rune(s)
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })

	var out []string
	used := make([]bool, len(runes))
	prefix := make([]rune, 0, len(runes))
	var walk func()
	walk = func() {
		if len(prefix) == len(runes) {
			out = append(out, string(prefix))
			return
		}
		for i, r := range runes {
			if used[i] {
				continue
			}
			// Skip a rune equal to an unused earlier twin at this depth.
			if i > 0 && runes[i-1] == r && !used[i-1] {
				continue
			}
			used[i] = true
			prefix = append(prefix, r)
			walk()
			prefix = prefix[:len(prefix)-1]
			used[i] = false
		}
	}
	walk()
	return out
}

// ReadLines returns the lines of a newline-terminated text file.
// An empty file has no lines; a file holding "\n" has one empty line.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// Sorted returns a sorted copy of lines.
func Sorted(lines []string) []string {
	out := append([]string(nil), lines...)
	sort.Strings(out)
	return out
}
