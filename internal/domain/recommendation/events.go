package recommendation

import "time"

// GeneratedEvent is raised after a pipeline run returns recommendations
type GeneratedEvent struct {
	RequestID       string
	UserID          string
	OriginalBarcode string
	Barcodes        []string
	FallbackCount   int
	GeneratedAt     time.Time
}

func (e GeneratedEvent) EventName() string {
	return "recommendation.generated"
}

func (e GeneratedEvent) OccurredAt() time.Time {
	return e.GeneratedAt
}
