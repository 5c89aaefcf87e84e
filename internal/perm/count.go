package perm

import "math/big"

// DistinctCount returns the number of distinct arrangements of input:
// n! divided by k! for every rune repeated k times.
func DistinctCount(input string) *big.Int {
	counts := make(map[rune]int64)
	var n int64
	for _, r := range input {
		counts[r]++
		n++
	}

	result := new(big.Int).MulRange(1, n)
	for _, k := range counts {
		if k > 1 {
			result.Quo(result, new(big.Int).MulRange(1, k))
		}
	}
	return result
}

// CandidateCount returns how many arrangements the enumeration produces
// before deduplication: n! for an input of n runes.
func CandidateCount(input string) *big.Int {
	var n int64
	for range input {
		n++
	}
	return new(big.Int).MulRange(1, n)
}
