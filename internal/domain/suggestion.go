package domain

import (
	"cmp"
	"slices"
	"time"
)

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Suggestion is an AI-proposed value for one field of an item or variant.
type Suggestion struct {
	ID             string           `json:"id"`
	TargetKind     EditKind         `json:"target_kind"`
	TargetID       string           `json:"target_id"`
	SupplierID     string           `json:"supplier_id,omitempty"`
	Field          string           `json:"field"`
	CurrentValue   any              `json:"current_value"`
	SuggestedValue any              `json:"suggested_value"`
	Confidence     float64          `json:"confidence"`
	Status         SuggestionStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SuggestionFilter narrows the review queue.
type SuggestionFilter struct {
	SupplierID    string
	MinConfidence float64
	Limit         int
	Offset        int
}

// SortByConfidence orders suggestions by confidence, highest first. Ties keep
// their order.
func SortByConfidence(s []Suggestion) {
	slices.SortStableFunc(s, func(a, b Suggestion) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
}

// ReviewAction is accept or reject.
type ReviewAction string

const (
	ReviewAccept ReviewAction = "accept"
	ReviewReject ReviewAction = "reject"
)

// ReviewResult is the outcome of reviewing one suggestion.
type ReviewResult struct {
	SuggestionID string           `json:"suggestion_id"`
	Action       ReviewAction     `json:"action"`
	OK           bool             `json:"ok"`
	Status       SuggestionStatus `json:"status,omitempty"`
	Error        string           `json:"error,omitempty"`
}
