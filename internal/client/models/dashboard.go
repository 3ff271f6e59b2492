package models

import "time"

type Goal struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Target   int       `json:"target"`
	Progress int       `json:"progress"`
	Deadline time.Time `json:"deadline"`
}

type Badge struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	EarnedAt time.Time `json:"earned_at"`
}
