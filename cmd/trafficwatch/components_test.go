package main

import (
	"testing"

	"github.com/kailas-cloud/trafficwatch/internal/config"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	"github.com/kailas-cloud/trafficwatch/internal/transport/psutil"
	"github.com/kailas-cloud/trafficwatch/internal/transport/sysfs"
)

func TestNewCounterSource(t *testing.T) {
	tests := []struct {
		source string
		check  func(counterSource) bool
	}{
		{"sysfs", func(c counterSource) bool { _, ok := c.(*sysfs.Reader); return ok }},
		{"psutil", func(c counterSource) bool { _, ok := c.(*psutil.Reader); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			cfg := config.Config{Monitor: config.MonitorConfig{Interface: "ens3", Source: tt.source, SysfsRoot: t.TempDir()}}
			c := newCounterSource(&cfg, traffic.Outbound)

			if !tt.check(c) {
				t.Errorf("unexpected reader type %T", c)
			}
			if c.Interface() != "ens3" {
				t.Errorf("Interface() = %q, want ens3", c.Interface())
			}
		})
	}
}
