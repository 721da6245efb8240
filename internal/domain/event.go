package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an analysis event.
type EventType string

const (
	EventDatasetLoaded     EventType = "dataset.loaded"
	EventDatasetLoadFailed EventType = "dataset.load_failed"
	EventOutliersClipped   EventType = "outliers.clipped"
	EventDatasetReset      EventType = "dataset.reset"
	EventDatasetRemoved    EventType = "dataset.removed"
)

// AnalysisEvent records a user action on a dataset.
type AnalysisEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Dataset    string    `json:"dataset"`
	Rows       int       `json:"rows,omitempty"`
	Columns    int       `json:"columns,omitempty"`
	Column     string    `json:"column,omitempty"`
	Min        *float64  `json:"min,omitempty"`
	Max        *float64  `json:"max,omitempty"`
	Changed    int       `json:"changed,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh ID and the current time.
func NewEvent(t EventType, dataset string) AnalysisEvent {
	return AnalysisEvent{
		ID:         uuid.NewString(),
		Type:       t,
		Dataset:    dataset,
		OccurredAt: clock.Now().UTC(),
	}
}

// LoadedEvent describes a successfully parsed dataset.
func LoadedEvent(ds *Dataset) AnalysisEvent {
	e := NewEvent(EventDatasetLoaded, ds.Name)
	e.Rows, e.Columns = ds.Shape()
	return e
}

// LoadFailedEvent describes an upload that could not be parsed.
func LoadFailedEvent(name string, err error) AnalysisEvent {
	e := NewEvent(EventDatasetLoadFailed, name)
	e.Error = err.Error()
	return e
}

// ClippedEvent describes an outlier clip applied to a column.
func ClippedEvent(dataset, column string, lo, hi float64, changed int) AnalysisEvent {
	e := NewEvent(EventOutliersClipped, dataset)
	e.Column = column
	e.Min, e.Max = &lo, &hi
	e.Changed = changed
	return e
}
