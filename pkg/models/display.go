package models

// DisplayNode is one emitted node of a deduplicated transcript. Exactly one
// of IsUnique/IsDeduplicated is set; suppressed occurrences are never
// emitted at all.
type DisplayNode struct {
	Content           string `json:"content"`
	Speaker           string `json:"speaker,omitempty"`
	Timestamp         string `json:"timestamp,omitempty"`
	IsUnique          bool   `json:"is_unique,omitempty"`
	IsDeduplicated    bool   `json:"is_deduplicated,omitempty"`
	RepresentsCluster string `json:"represents_cluster,omitempty"`
	HiddenVariations  int    `json:"hidden_variations,omitempty"`
	ReplacedOriginal  string `json:"replaced_original,omitempty"`
}

// ClusterSummary is the per-conversation view of one cluster. Variations
// exclude the canonical text.
type ClusterSummary struct {
	Theme      string   `json:"theme"`
	Canonical  string   `json:"canonical"`
	Variations []string `json:"variations"`
	Frequency  int      `json:"frequency"`
	Confidence float64  `json:"confidence"`
}

// DisplayStats summarizes one reconstruction pass. SemanticDensity is
// displayed lines over total lines; 1.0 when nothing collapsed.
type DisplayStats struct {
	TotalLines        int      `json:"total_lines"`
	DeduplicatedLines int      `json:"deduplicated_lines"`
	Themes            []string `json:"themes"`
	SemanticDensity   float64  `json:"semantic_density"`
}

// DisplayConversation is a deduplicated transcript: the emitted nodes in
// original order plus the cluster metadata used to render them.
type DisplayConversation struct {
	ConversationID string                    `json:"conversation_id"`
	Nodes          []DisplayNode             `json:"nodes"`
	Clusters       map[string]ClusterSummary `json:"clusters"`
	Stats          DisplayStats              `json:"stats"`
}
