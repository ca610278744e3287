package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoundSummary describes the outcome of one completed round.
type RoundSummary struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Requests   int       `json:"requests"`
	Failed     int       `json:"failed"`
	Offers     int       `json:"offers"`
	Skipped    int       `json:"skipped"`
}

// WatchStatus is a read-only snapshot of the watcher, served by the status API.
type WatchStatus struct {
	RequestsPerDay   int           `json:"requests_per_day"`
	RequestsPerRound int           `json:"requests_per_round"`
	RoundsPerDay     int           `json:"rounds_per_day"`
	Interval         string        `json:"interval"`
	NextRunAt        time.Time     `json:"next_run_at"`
	LastRound        *RoundSummary `json:"last_round,omitempty"`
}
