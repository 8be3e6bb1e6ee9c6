package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashLine(t *testing.T) {
	h1 := HashLine("Yeah, that's right")
	h2 := HashLine("Yeah, that's right")
	h3 := HashLine("yeah, that's right")

	assert.Equal(t, h1, h2, "same text must hash identically")
	assert.NotEqual(t, h1, h3, "hashing is case sensitive")
	assert.Len(t, h1, 64)
}

func TestParsedTimestamp(t *testing.T) {
	line := SpokenLine{Timestamp: "2024-03-01T10:05:22Z"}
	ts, ok := line.ParsedTimestamp()
	assert.True(t, ok)
	assert.Equal(t, 2024, ts.Year())

	for _, bad := range []string{"", "yesterday", "2024-03-01"} {
		line := SpokenLine{Timestamp: bad}
		_, ok := line.ParsedTimestamp()
		assert.False(t, ok, "timestamp %q should not parse", bad)
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   "))
	assert.Equal(t, 3, WordCount("Yeah, that's right"))
	assert.Equal(t, 2, WordCount("  spaced   out  "))
}

func TestFormatClusterID(t *testing.T) {
	assert.Equal(t, "weather_000", FormatClusterID("weather", 0))
	assert.Equal(t, "general_conversation_012", FormatClusterID("general_conversation", 12))
	assert.Equal(t, "food_1000", FormatClusterID("food", 1000))
}

func TestSemanticCluster_Speakers(t *testing.T) {
	c := SemanticCluster{Variations: []LineVariation{
		{OriginalText: "a", Speaker: "Mike"},
		{OriginalText: "b", Speaker: "Sarah"},
		{OriginalText: "c", Speaker: "Mike"},
		{OriginalText: "d"},
	}}

	assert.Equal(t, []string{"Mike", "Sarah"}, c.Speakers())
	assert.True(t, c.ContainsText("b"))
	assert.False(t, c.ContainsText("z"))
}
