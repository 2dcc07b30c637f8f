// Package retrieval stores and searches grounding evidence. Sources
// carry a trust tier; anything below the verified tier reaches the
// answer only with an explicit caveat attached.
package retrieval

import "time"

// SourceTier grades how much a source is trusted.
type SourceTier int

const (
	// TierVerified covers curated internal references.
	TierVerified SourceTier = 1
	// TierReputable covers known-good external sources.
	TierReputable SourceTier = 2
	// TierUnverified covers everything else.
	TierUnverified SourceTier = 3
)

// Evidence is one retrievable grounding snippet.
type Evidence struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Source  string     `json:"source"`
	Tier    SourceTier `json:"tier"`
	Topic   string     `json:"topic,omitempty"`
	AddedAt time.Time  `json:"added_at"`
}

// Result pairs evidence with its similarity and the caveat the answer
// must carry when the evidence is below the verified tier.
type Result struct {
	Evidence   Evidence `json:"evidence"`
	Similarity float32  `json:"similarity"`
	Caveat     string   `json:"caveat,omitempty"`
}

// Filter narrows a search by metadata.
type Filter struct {
	MaxTier SourceTier
	Topic   string
}
