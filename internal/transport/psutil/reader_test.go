package psutil

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/net"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
)

func fakeCounters(stats []net.IOCountersStat, err error) ioCountersFunc {
	return func(context.Context, bool) ([]net.IOCountersStat, error) {
		return stats, err
	}
}

func TestReader_Read(t *testing.T) {
	r := New("eth0")
	r.counters = fakeCounters([]net.IOCountersStat{
		{Name: "lo", BytesSent: 1, BytesRecv: 1},
		{Name: "eth0", BytesSent: 5000, BytesRecv: 300},
	}, nil)

	got, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.TxBytes != 5000 || got.RxBytes != 300 {
		t.Errorf("Read() = %+v", got)
	}
}

func TestReader_InterfaceMissing(t *testing.T) {
	r := New("eth1")
	r.counters = fakeCounters([]net.IOCountersStat{{Name: "eth0"}}, nil)

	_, err := r.Read(context.Background())
	if !errors.Is(err, domain.ErrCounterUnavailable) || !errors.Is(err, errInterfaceNotFound) {
		t.Fatalf("expected ErrCounterUnavailable wrapping errInterfaceNotFound, got %v", err)
	}
}

func TestReader_SourceError(t *testing.T) {
	r := New("eth0")
	r.counters = fakeCounters(nil, errors.New("permission denied"))

	if _, err := r.Read(context.Background()); !errors.Is(err, domain.ErrCounterUnavailable) {
		t.Fatalf("expected ErrCounterUnavailable, got %v", err)
	}
}
