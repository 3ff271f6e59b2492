package models

import "time"

type ActivityKind string

const (
	ActivityLesson    ActivityKind = "lesson"
	ActivityPractice  ActivityKind = "practice"
	ActivityProject   ActivityKind = "project"
	ActivityChallenge ActivityKind = "challenge"
)

// Activity describes what the user just did; it drives streak and XP rules.
type Activity struct {
	Kind      ActivityKind `json:"kind" validate:"required,oneof=lesson practice project challenge"`
	Title     string       `json:"title" validate:"required,max=200"`
	XP        int64        `json:"xp,omitempty" validate:"min=0"`
	ItemID    string       `json:"item_id,omitempty"`
	Score     int          `json:"score,omitempty" validate:"min=0,max=100"`
	TimeSpent int          `json:"time_spent,omitempty" validate:"min=0"`
}

// HistoryItem is one entry of the activity history.
type HistoryItem struct {
	ID         string       `json:"id" db:"id"`
	UserID     string       `json:"user_id" db:"user_id"`
	Kind       ActivityKind `json:"kind" db:"kind"`
	Title      string       `json:"title" db:"title"`
	XP         int64        `json:"xp" db:"xp"`
	ItemID     string       `json:"item_id,omitempty" db:"item_id"`
	Score      int          `json:"score,omitempty" db:"score"`
	TimeSpent  int          `json:"time_spent,omitempty" db:"time_spent"`
	OccurredAt time.Time    `json:"occurred_at" db:"occurred_at"`
}

// DedupKey identifies an item by local calendar day, kind and title.
func (h HistoryItem) DedupKey(loc *time.Location) string {
	return h.OccurredAt.In(loc).Format(time.DateOnly) + "|" + string(h.Kind) + "|" + h.Title
}
