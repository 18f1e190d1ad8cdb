package schemas

import (
	"time"
)

// -- Feed Schemas --

// Sentiment classifies the emotional tone of a feed item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// FeedItem is an immutable record produced by a feed source collaborator.
// The core never mutates items; merging and recency ordering happen before
// a snapshot is handed to the planner.
type FeedItem struct {
	ID              string    `json:"id"`
	Author          string    `json:"author"`
	Text            string    `json:"text"`
	Topic           string    `json:"topic"`
	Sentiment       Sentiment `json:"sentiment"`
	EngagementScore int       `json:"engagementScore"`
	CreatedAt       time.Time `json:"createdAt"`
	// ParentID links a reply to the item it answers, when known.
	ParentID string `json:"parentId,omitempty"`
}
