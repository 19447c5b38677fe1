// Package processing normalizes record text before it is indexed.
package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	markup      = regexp.MustCompile(`<[^>]*>`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "in": {}, "for": {},
	"and": {}, "of": {}, "on": {}, "is": {}, "are": {}, "was": {},
	"with": {}, "from": {}, "this": {}, "that": {}, "its": {}, "it": {},
	"by": {}, "at": {}, "as": {}, "be": {}, "or": {}, "you": {},
}

// wordsPerMinute is the reading speed used for blog read-time estimates.
const wordsPerMinute = 200

// RemoveURLs removes all URLs from the input text.
func RemoveURLs(input string) string {
	return urlRegex.ReplaceAllString(input, " ")
}

// CleanText strips markup, HTML entities, URLs and punctuation and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(markup.ReplaceAllString(input, " "))
	decoded = RemoveURLs(decoded)
	decoded = punctuation.ReplaceAllString(decoded, " ")
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// PlainText strips markup and entities but keeps punctuation, for descriptions
// that are shown to readers.
func PlainText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(markup.ReplaceAllString(input, " "))
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// ExtractKeywords returns the most frequent words that are not stop-words.
func ExtractKeywords(text string, limit, minLen int) []string {
	clean := strings.ToLower(CleanText(text))
	if clean == "" {
		return nil
	}

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}

	if len(freq) == 0 {
		return nil
	}

	type kv struct {
		word  string
		count int
	}

	pairs := make([]kv, 0, len(freq))
	for word, count := range freq {
		pairs = append(pairs, kv{word: word, count: count})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].count > pairs[j].count
	})

	n := limit
	if n <= 0 || n > len(pairs) {
		n = len(pairs)
	}

	keywords := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keywords = append(keywords, pairs[i].word)
	}
	return keywords
}

// ContentHash hashes the JSON form of doc, so two records hash equal exactly
// when every stored field is equal.
func ContentHash(doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	s := sha1.Sum(data)
	return hex.EncodeToString(s[:]), nil
}

// Excerpt returns the first sentence of text, cut to maxWords words.
// Returns empty string if text is empty.
func Excerpt(text string, maxWords int) string {
	if text == "" {
		return ""
	}

	plain := RemoveURLs(PlainText(text))

	sentenceEnd := strings.IndexAny(plain, ".!?")
	first := plain
	if sentenceEnd > 0 {
		first = strings.TrimSpace(plain[:sentenceEnd])
	}

	words := strings.Fields(first)
	if len(words) == 0 {
		return ""
	}

	if maxWords > 0 && len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}
	return strings.Join(words, " ")
}

// ReadTime estimates how long text takes to read, formatted like "3 min read".
// Anything shorter than a minute rounds up to one.
func ReadTime(text string) string {
	words := len(strings.Fields(PlainText(text)))
	if words == 0 {
		return ""
	}
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return fmt.Sprintf("%d min read", minutes)
}
