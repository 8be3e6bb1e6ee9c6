// Package extract pulls candidate spoken lines out of raw conversations.
package extract

import (
	"strings"

	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
)

// Options control which nodes qualify as spoken lines.
type Options struct {
	MinWords int
	MaxWords int
}

// DefaultOptions returns the default word-count bounds.
func DefaultOptions() Options {
	return Options{MinWords: 3, MaxWords: 100}
}

// structuralTypes are node types that never carry speech.
var structuralTypes = map[string]bool{
	"heading":   true,
	"header":    true,
	"title":     true,
	"section":   true,
	"divider":   true,
	"separator": true,
}

// Lines converts a conversation's ordered nodes into spoken lines. A node
// qualifies only when its type marks it as an utterance and its word count
// is within bounds. Order is preserved; the display reconstructor depends
// on it. Pure transform, no side effects.
func Lines(conv models.Conversation, opts Options) []models.SpokenLine {
	lines := make([]models.SpokenLine, 0, len(conv.Nodes))

	for i, node := range conv.Nodes {
		if !isUtterance(node.Type) {
			continue
		}

		text := strings.TrimSpace(node.Content)
		wc := models.WordCount(text)
		if wc < opts.MinWords || wc > opts.MaxWords {
			continue
		}

		lines = append(lines, models.SpokenLine{
			Text:           text,
			Speaker:        node.SpeakerName,
			SpeakerRole:    speakerRole(conv, node),
			Timestamp:      node.StartTime,
			ConversationID: conv.ID,
			NodeIndex:      i,
			LineHash:       models.HashLine(text),
		})
	}

	return lines
}

// isUtterance treats untyped nodes as speech and excludes structural types.
func isUtterance(nodeType string) bool {
	if nodeType == "" {
		return true
	}
	return !structuralTypes[strings.ToLower(nodeType)]
}

func speakerRole(conv models.Conversation, node models.RawNode) string {
	if conv.PrimarySpeaker != "" &&
		(node.SpeakerIdentifier == conv.PrimarySpeaker || node.SpeakerName == conv.PrimarySpeaker) {
		return models.RolePrimary
	}
	return models.RoleOther
}
