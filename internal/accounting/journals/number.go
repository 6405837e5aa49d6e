package journals

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPrefix is used when no entry prefix is configured.
const DefaultPrefix = "AC"

// FormatNumber renders the n-th entry number, e.g. AC-00001.
func FormatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s-%05d", prefix, n)
}

// ParseNumber extracts the sequence from an entry number.
func ParseNumber(number string) (int, bool) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(number[idx+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
