// Package psutil reads interface byte counters through gopsutil.
package psutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v4/net"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
)

var errInterfaceNotFound = errors.New("interface not found")

type ioCountersFunc func(ctx context.Context, pernic bool) ([]net.IOCountersStat, error)

// Reader is a counter source backed by net.IOCounters.
type Reader struct {
	iface    string
	counters ioCountersFunc
}

// New creates a gopsutil counter reader for iface.
func New(iface string) *Reader {
	return &Reader{iface: iface, counters: net.IOCountersWithContext}
}

// Interface returns the monitored interface name.
func (r *Reader) Interface() string { return r.iface }

// Read returns the current counters for the interface.
func (r *Reader) Read(ctx context.Context) (traffic.Sample, error) {
	stats, err := r.counters(ctx, true)
	if err != nil {
		return traffic.Sample{}, domain.NewCounterError(r.iface, "io_counters", fmt.Errorf("net.IOCounters: %w", err))
	}
	for _, s := range stats {
		if s.Name == r.iface {
			return traffic.Sample{TxBytes: s.BytesSent, RxBytes: s.BytesRecv}, nil
		}
	}
	return traffic.Sample{}, domain.NewCounterError(r.iface, "io_counters", errInterfaceNotFound)
}
