// Package periodstore persists the period document to a local file or a KV backend.
package periodstore

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
)

// decode parses data and logs every skipped entry. Corrupt data yields an
// empty document so monitoring can continue from zero.
func decode(data []byte, source string, logger *zap.Logger) period.Document {
	doc, warnings, err := period.Decode(data)
	if err != nil {
		logger.Warn("period document is corrupt, starting empty",
			zap.String("source", source), zap.Error(err))
		return period.Document{}
	}
	for _, w := range warnings {
		logger.Warn("skipping period document entry", zap.String("source", source), zap.String("reason", w))
	}
	return doc
}
