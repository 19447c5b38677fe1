package pincode

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var pincodePattern = regexp.MustCompile(`\b\d{6}\b`)

// minSegmentLen is the shortest address segment worth a lookup; shorter parts are initials or noise.
const minSegmentLen = 3

// Query is the free text of a record used to locate its post office.
type Query struct {
	Title   string
	Address string
}

// FromAddress returns the first standalone six-digit token in address.
func FromAddress(address string) (string, bool) {
	if address == "" {
		return "", false
	}
	m := pincodePattern.FindString(address)
	return m, m != ""
}

// Candidates derives the lookup strings for q: the first comma segment of the
// title, then the address segments from last to first. Duplicates are
// dropped by exact comparison, keeping the first occurrence.
func Candidates(q Query) []string {
	var raw []string
	if q.Title != "" {
		first, _, _ := strings.Cut(q.Title, ",")
		if first = strings.TrimSpace(first); first != "" {
			raw = append(raw, first)
		}
	}
	if q.Address != "" {
		parts := strings.Split(q.Address, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			part := strings.TrimSpace(parts[i])
			if utf8.RuneCountInString(part) < minSegmentLen {
				continue
			}
			raw = append(raw, part)
		}
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
