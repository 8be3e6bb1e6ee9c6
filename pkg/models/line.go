// Package models contains domain models for transcript-dedup.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Speaker roles assigned to extracted lines.
const (
	RolePrimary = "primary"
	RoleOther   = "other"
)

// RawNode is one content node of a conversation as delivered by the
// ingestion pipeline. Type distinguishes utterances from structural nodes
// (headings, dividers); StartTime/EndTime are ISO-8601 with optional Z.
type RawNode struct {
	Content           string `json:"content"`
	Type              string `json:"type"`
	SpeakerName       string `json:"speakerName,omitempty"`
	SpeakerIdentifier string `json:"speakerIdentifier,omitempty"`
	StartTime         string `json:"startTime,omitempty"`
	EndTime           string `json:"endTime,omitempty"`
}

// Conversation is an ordered list of raw nodes under one conversation id.
type Conversation struct {
	ID             string    `json:"id"`
	PrimarySpeaker string    `json:"primarySpeaker,omitempty"`
	Nodes          []RawNode `json:"nodes"`
}

// SpokenLine is one attributable unit of speech pulled out of a
// conversation. Lines are created fresh per processing run and are
// write-once until consumed by clustering.
type SpokenLine struct {
	Text           string `json:"text"`
	Speaker        string `json:"speaker,omitempty"`
	SpeakerRole    string `json:"speaker_role"`
	Timestamp      string `json:"timestamp,omitempty"`
	ConversationID string `json:"conversation_id"`
	NodeIndex      int    `json:"node_index"`
	LineHash       string `json:"line_hash"`
}

// ParsedTimestamp returns the line's timestamp as a time.Time.
// The second return is false when the timestamp is absent or unparseable.
func (l *SpokenLine) ParsedTimestamp() (time.Time, bool) {
	if l.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, l.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HashLine returns a stable content-derived fingerprint for a line of text.
func HashLine(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// WordCount counts whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
