package models

import "time"

// HistoryEntry records one completed recommendation.
// Entries are only ever appended to a session's history.
type HistoryEntry struct {
	Crop           string    `json:"crop"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// Advice is what an advisor produces for a crop.
type Advice struct {
	Recommendation string `json:"recommendation"`
	Insight        string `json:"insight"`
}

// RecommendRequest is the body of POST /api/recommendations.
type RecommendRequest struct {
	Crop string `json:"crop"`
}

// RecommendResult is returned after a successful recommendation.
type RecommendResult struct {
	Advice
	Entry HistoryEntry `json:"entry"`
}

// HistoryView is the history section: entries oldest first plus the trend
// insight, which is empty when there is no history yet.
type HistoryView struct {
	Entries []HistoryEntry `json:"entries"`
	Trend   string         `json:"trend,omitempty"`
}
