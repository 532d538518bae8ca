package sysfs

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
)

func writeCounters(t *testing.T, fs afero.Fs, iface, tx, rx string) {
	t.Helper()
	dir := DefaultRoot + "/" + iface + "/statistics/"
	if tx != "" {
		if err := afero.WriteFile(fs, dir+"tx_bytes", []byte(tx), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if rx != "" {
		if err := afero.WriteFile(fs, dir+"rx_bytes", []byte(rx), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReader_Read(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCounters(t, fs, "eth0", "123456789\n", "42\n")

	r := New(fs, "", "eth0", traffic.Bidirectional)
	got, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := traffic.Sample{TxBytes: 123456789, RxBytes: 42}
	if got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
}

func TestReader_ReadsFreshEveryCall(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCounters(t, fs, "eth0", "100", "0")
	r := New(fs, "", "eth0", traffic.Bidirectional)

	if s, _ := r.Read(context.Background()); s.TxBytes != 100 {
		t.Fatalf("first read tx = %d", s.TxBytes)
	}
	writeCounters(t, fs, "eth0", "250", "0")
	if s, _ := r.Read(context.Background()); s.TxBytes != 250 {
		t.Fatalf("second read tx = %d", s.TxBytes)
	}
}

func TestReader_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		tx, rx  string
		iface   string
		counter string
	}{
		{name: "missing interface", iface: "wg9", counter: "tx_bytes"},
		{name: "missing rx file", tx: "1", iface: "eth0", counter: "rx_bytes"},
		{name: "garbage tx", tx: "abc", rx: "1", iface: "eth0", counter: "tx_bytes"},
		{name: "negative rx", tx: "1", rx: "-5", iface: "eth0", counter: "rx_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeCounters(t, fs, "eth0", tt.tx, tt.rx)

			_, err := New(fs, "", tt.iface, traffic.Bidirectional).Read(context.Background())
			if !errors.Is(err, domain.ErrCounterUnavailable) {
				t.Fatalf("expected ErrCounterUnavailable, got %v", err)
			}
			var ce *domain.CounterError
			if !errors.As(err, &ce) || ce.Counter != tt.counter || ce.Interface != tt.iface {
				t.Errorf("unexpected counter error: %+v", ce)
			}
		})
	}
}

func TestReader_CustomRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/host/sys/class/net/ens3/statistics/tx_bytes", []byte("7"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/host/sys/class/net/ens3/statistics/rx_bytes", []byte("8"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(fs, "/host/sys/class/net", "ens3", traffic.Bidirectional).Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.TxBytes != 7 || got.RxBytes != 8 {
		t.Errorf("Read() = %+v", got)
	}
}

func TestReader_OutboundSkipsRx(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCounters(t, fs, "eth0", "900", "")

	got, err := New(fs, "", "eth0", traffic.Outbound).Read(context.Background())
	if err != nil {
		t.Fatalf("outbound read must not need rx_bytes: %v", err)
	}
	if got.TxBytes != 900 || got.RxBytes != 0 {
		t.Errorf("Read() = %+v", got)
	}
}
