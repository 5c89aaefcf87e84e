package run

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/roach88/uniqperm/internal/shard"
)

// runeCounts is the multiset of runes in a string.
type runeCounts map[rune]int

func countRunes(s string) runeCounts {
	counts := make(runeCounts)
	for _, r := range s {
		counts[r]++
	}
	return counts
}

// covers reports whether s uses no rune more often than c holds it.
func (c runeCounts) covers(s string) bool {
	used := make(runeCounts)
	for _, r := range s {
		used[r]++
		if used[r] > c[r] {
			return false
		}
	}
	return true
}

// verifyLeftover checks that a shard left by an earlier run could have been
// written by this run: its key matches keyer for the input, and every line
// is a distinct arrangement of the input routed to that key.
func verifyLeftover(store *shard.Store, keyer shard.Keyer, input, key string) error {
	inputRunes := utf8.RuneCountInString(input)
	counts := countRunes(input)

	wantLen := min(keyer.Width(), inputRunes)
	if keyer.Width() == 1 {
		wantLen = 0
	}
	if utf8.RuneCountInString(key) != wantLen || !counts.covers(key) {
		return fmt.Errorf("shard key %q does not belong to input %q at width %d", key, input, keyer.Width())
	}

	f, err := store.Open(key)
	if err != nil {
		return err
	}
	defer f.Close()

	seen := make(map[string]struct{})
	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		line, readErr := r.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return &shard.IOError{Op: "read", Key: key, Path: store.Path(key), Err: readErr}
		}
		if readErr != nil && line == "" {
			return nil
		}
		line = strings.TrimSuffix(line, "\n")

		switch {
		case utf8.RuneCountInString(line) != inputRunes || !counts.covers(line):
			return fmt.Errorf("%s line %d: %q is not an arrangement of %q", store.Path(key), lineNo, line, input)
		case keyer.KeyFor(line) != key:
			return fmt.Errorf("%s line %d: %q belongs to shard key %q", store.Path(key), lineNo, line, keyer.KeyFor(line))
		}
		if _, dup := seen[line]; dup {
			return fmt.Errorf("%s line %d: %q repeated", store.Path(key), lineNo, line)
		}
		seen[line] = struct{}{}

		if readErr != nil {
			return nil
		}
	}
}
