package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
)

func line(text, speaker, ts string, idx int) models.SpokenLine {
	return models.SpokenLine{
		Text:           text,
		Speaker:        speaker,
		SpeakerRole:    models.RoleOther,
		Timestamp:      ts,
		ConversationID: "conv-1",
		NodeIndex:      idx,
		LineHash:       models.HashLine(text),
	}
}

func TestBuild_CanonicalByEarliestTimestamp(t *testing.T) {
	lines := []models.SpokenLine{
		line("That's right, yeah", "Sarah", "2024-03-01T10:05:45Z", 1),
		line("Yeah, that's right", "Mike", "2024-03-01T10:05:22Z", 0),
		line("Exactly, that's correct", "Alex", "2024-03-01T10:06:12Z", 2),
	}

	clusters := Build(lines, []int{0, 0, 0})
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, "Yeah, that's right", c.CanonicalLine)
	assert.Equal(t, models.HashLine("Yeah, that's right"), c.CanonicalHash)
	assert.Equal(t, 3, c.FrequencyCount)
	assert.Len(t, c.Variations, c.FrequencyCount)
	assert.True(t, c.ContainsText(c.CanonicalLine))
}

func TestBuild_CanonicalFallsBackToFewestWords(t *testing.T) {
	lines := []models.SpokenLine{
		line("we should definitely grab some lunch soon", "Mike", "", 0),
		line("let's grab lunch", "Sarah", "not-a-timestamp", 1),
	}

	clusters := Build(lines, []int{0, 0})
	require.Len(t, clusters, 1)
	assert.Equal(t, "let's grab lunch", clusters[0].CanonicalLine)
}

func TestBuild_CanonicalTieBrokenByEncounterOrder(t *testing.T) {
	lines := []models.SpokenLine{
		line("first three words", "Mike", "", 0),
		line("second three words", "Sarah", "", 1),
	}

	clusters := Build(lines, []int{0, 0})
	require.Len(t, clusters, 1)
	assert.Equal(t, "first three words", clusters[0].CanonicalLine)
}

func TestBuild_VariationSimilarities(t *testing.T) {
	lines := []models.SpokenLine{
		line("Yeah, that's right", "Mike", "2024-03-01T10:05:22Z", 0),
		line("That's right, yeah", "Sarah", "2024-03-01T10:05:45Z", 1),
	}

	clusters := Build(lines, []int{0, 0})
	require.Len(t, clusters, 1)

	for _, v := range clusters[0].Variations {
		if v.OriginalText == clusters[0].CanonicalLine {
			assert.InDelta(t, 1.0, v.SimilarityToCanonical, 1e-9)
		} else {
			assert.InDelta(t, nonCanonicalSimilarity, v.SimilarityToCanonical, 1e-9)
		}
	}
}

func TestBuild_ClusterIDFormat(t *testing.T) {
	lines := []models.SpokenLine{
		line("the weather looks terrible today", "Mike", "", 0),
		line("terrible weather out there today", "Sarah", "", 1),
		line("we might need more resources", "Alex", "", 2),
	}

	clusters := Build(lines, []int{0, 0, 1})
	require.Len(t, clusters, 2)
	assert.Equal(t, "weather_000", clusters[0].ClusterID)
	assert.Equal(t, "resources_topic_001", clusters[1].ClusterID)
}

func TestBuild_MismatchedInputs(t *testing.T) {
	assert.Nil(t, Build(nil, nil))
	assert.Nil(t, Build([]models.SpokenLine{line("a b c", "", "", 0)}, []int{0, 1}))
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		size     int
		expected float64
	}{
		{1, 0.75},
		{2, 0.80},
		{3, 0.85},
		{4, 0.90},
		{5, 0.95},
		{6, 0.95}, // capped
		{50, 0.95},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, Confidence(tt.size), 1e-9)
	}
}

func TestAssignTheme(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		expected  string
	}{
		{"weather bucket", "The weather is awful today", "weather"},
		{"work bucket", "We have a meeting at noon", "work"},
		{"energy bucket", "I am so tired today", "energy"},
		{"food bucket", "Should we eat something", "food"},
		{"bucket order wins", "lunch meeting tomorrow", "work"},
		{"derived topic", "We might need more resources", "resources_topic"},
		{"stop words skipped", "that which should might", "general_conversation"},
		{"short words skipped", "yes it is so", "general_conversation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AssignTheme(tt.canonical))
		})
	}
}
