package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
)

// --- Mock ---

type mockLoader struct {
	doc period.Document
	err error
}

func (m *mockLoader) Load(_ context.Context) (period.Document, error) { return m.doc, m.err }

// --- Tests ---

func newClock(t *testing.T, at time.Time) *quartz.Mock {
	t.Helper()
	c := quartz.NewMock(t)
	c.Set(at).MustWait(context.Background())
	return c
}

func TestGetReport_CurrentPeriod(t *testing.T) {
	rec := period.NewRecord([]period.Threshold{8000})
	rec.CumulativeGB = 512
	rec.MarkSent(8000)
	loader := &mockLoader{doc: period.Document{"2026-10": rec, "2026-09": period.NewRecord(nil)}}

	svc := New(loader, Config{QuotaGB: 600, ResetDay: 15, Thresholds: []period.Threshold{8000, 9000}},
		newClock(t, time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)))

	r, err := svc.GetReport(context.Background())
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if r.Period() != "2026-10" || r.UsedGB() != 512 {
		t.Errorf("period=%q used=%v", r.Period(), r.UsedGB())
	}
	if r.NextReset() != "2026-10-15" {
		t.Errorf("NextReset() = %q, want 2026-10-15", r.NextReset())
	}
	ts := r.Thresholds()
	if len(ts) != 2 || !ts[0].Sent || ts[1].Sent {
		t.Errorf("Thresholds() = %+v", ts)
	}
}

func TestGetReport_EmptyDocument(t *testing.T) {
	svc := New(&mockLoader{doc: period.Document{}}, Config{QuotaGB: 100, ResetDay: 1},
		newClock(t, time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)))

	r, err := svc.GetReport(context.Background())
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if r.UsedGB() != 0 || r.NextReset() != "2027-01-01" {
		t.Errorf("used=%v next=%q", r.UsedGB(), r.NextReset())
	}
}

func TestGetReport_StoreError(t *testing.T) {
	svc := New(&mockLoader{err: domain.ErrStoreUnavailable}, Config{}, nil)

	if _, err := svc.GetReport(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
