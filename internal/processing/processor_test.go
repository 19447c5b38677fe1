package processing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piratesdroid/travel-guide/internal/processing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "punctuation", input: "Forts!!!   of Maharashtra", want: "Forts of Maharashtra"},
		{name: "collapse whitespace", input: "foo\n\nbar\t baz", want: "foo bar baz"},
		{name: "remove urls", input: "Check https://example.com for info", want: "Check for info"},
		{name: "markup and entities", input: "<b>Sinhagad</b> &amp; Rajgad", want: "Sinhagad Rajgad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.CleanText(tt.input))
		})
	}
}

func TestPlainTextKeepsPunctuation(t *testing.T) {
	got := processing.PlainText("<p>Raigad Fort, built in 1030.</p>\n<p>It &amp; more</p>")
	require.Equal(t, "Raigad Fort, built in 1030. It & more", got)
	require.Empty(t, processing.PlainText(""))
}

func TestExtractKeywords(t *testing.T) {
	text := "Trek trek fort fort fort and the monsoon"
	got := processing.ExtractKeywords(text, 3, 3)
	require.Equal(t, []string{"fort", "trek", "monsoon"}, got)

	require.Nil(t, processing.ExtractKeywords("", 5, 3))
	require.Nil(t, processing.ExtractKeywords("a an the", 5, 1))
}

func TestExtractKeywordsIgnoresURLWords(t *testing.T) {
	text := "Trek fort fort https://example.com/tour-deals beach"
	got := processing.ExtractKeywords(text, 3, 3)
	require.ElementsMatch(t, []string{"fort", "trek", "beach"}, got)
}

func TestContentHash(t *testing.T) {
	type doc struct {
		Title string
		Desc  string
	}
	a, err := processing.ContentHash(doc{Title: "Lonavala", Desc: "hill station"})
	require.NoError(t, err)
	b, err := processing.ContentHash(doc{Title: "Lonavala", Desc: "hill station"})
	require.NoError(t, err)
	c, err := processing.ContentHash(doc{Title: "Lonavala", Desc: "Hill station"})
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)

	_, err = processing.ContentHash(make(chan int))
	require.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     string
	}{
		{name: "empty", text: "", maxWords: 10, want: ""},
		{name: "single sentence", text: "Pune is a city in Maharashtra.", maxWords: 10, want: "Pune is a city in Maharashtra"},
		{name: "multiple sentences", text: "Visit Goa! Beaches everywhere. Fly today.", maxWords: 10, want: "Visit Goa"},
		{name: "long text truncated", text: "The best weekend getaways around Mumbai for every season", maxWords: 5, want: "The best weekend getaways around..."},
		{name: "no sentence end", text: "Monsoon treks near Pune", maxWords: 10, want: "Monsoon treks near Pune"},
		{name: "markup", text: "<p>Hampi ruins</p>", maxWords: 0, want: "Hampi ruins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.Excerpt(tt.text, tt.maxWords))
		})
	}
}

func TestReadTime(t *testing.T) {
	require.Empty(t, processing.ReadTime(""))
	require.Equal(t, "1 min read", processing.ReadTime("a short post"))
	require.Equal(t, "1 min read", processing.ReadTime(strings.Repeat("word ", 200)))
	require.Equal(t, "2 min read", processing.ReadTime(strings.Repeat("word ", 201)))
}
