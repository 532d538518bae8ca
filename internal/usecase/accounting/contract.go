package accounting

import (
	"context"

	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
)

// PeriodStore loads and saves the whole period document.
// Load returns an empty document when nothing has been stored yet.
type PeriodStore interface {
	Load(ctx context.Context) (period.Document, error)
	Save(ctx context.Context, doc period.Document) error
}

// Notifier delivers a plain-text message. Implementations bound every call
// with their own timeout.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
