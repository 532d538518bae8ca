// Package sysfs reads interface byte counters from /sys/class/net.
package sysfs

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
)

// DefaultRoot is the Linux network class directory.
const DefaultRoot = "/sys/class/net"

// Reader reads <root>/<iface>/statistics/{tx,rx}_bytes on every call.
// rx_bytes is only read in bidirectional mode.
type Reader struct {
	fs     afero.Fs
	root   string
	iface  string
	readRx bool
}

// New creates a counter reader. A nil fs means the OS filesystem.
func New(fs afero.Fs, root, iface string, mode traffic.Direction) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if root == "" {
		root = DefaultRoot
	}
	return &Reader{fs: fs, root: root, iface: iface, readRx: mode == traffic.Bidirectional}
}

// Interface returns the monitored interface name.
func (r *Reader) Interface() string { return r.iface }

// Read returns the current counters. A missing or malformed file yields an
// error matching domain.ErrCounterUnavailable.
func (r *Reader) Read(_ context.Context) (traffic.Sample, error) {
	tx, err := r.readCounter("tx_bytes")
	if err != nil {
		return traffic.Sample{}, err
	}
	if !r.readRx {
		return traffic.Sample{TxBytes: tx}, nil
	}
	rx, err := r.readCounter("rx_bytes")
	if err != nil {
		return traffic.Sample{}, err
	}
	return traffic.Sample{TxBytes: tx, RxBytes: rx}, nil
}

func (r *Reader) readCounter(name string) (uint64, error) {
	path := filepath.Join(r.root, r.iface, "statistics", name)
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return 0, domain.NewCounterError(r.iface, name, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, domain.NewCounterError(r.iface, name, fmt.Errorf("parse %s: %w", path, err))
	}
	return v, nil
}
