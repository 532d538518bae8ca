package usage

import (
	"context"

	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
)

// DocumentLoader provides read-only access to the period document.
type DocumentLoader interface {
	Load(ctx context.Context) (period.Document, error)
}
