// Package storage defines the storage interface for computed timelines.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/chrissnell/zhl16/pkg/profile"
)

// ErrRunNotFound is returned when no run exists with the requested ID
var ErrRunNotFound = errors.New("run not found")

// TimelineStore persists timelines produced by the profile runner
type TimelineStore interface {
	SaveTimeline(ctx context.Context, tl *profile.Timeline) error
	GetTimeline(ctx context.Context, id string) (*profile.Timeline, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}

// RunSummary describes a stored run without its samples
type RunSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Segments  int       `json:"segments"`
	Runtime   float64   `json:"runtime"`
	Ceiling   float64   `json:"ceiling"`
}
