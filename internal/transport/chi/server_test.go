package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	healthuc "github.com/kailas-cloud/trafficwatch/internal/usecase/health"
	usageuc "github.com/kailas-cloud/trafficwatch/internal/usecase/usage"
)

// --- Fakes ---

type fakeStore struct {
	doc period.Document
	err error
}

func (f *fakeStore) Load(_ context.Context) (period.Document, error) { return f.doc, f.err }
func (f *fakeStore) Ping(_ context.Context) error { return f.err }

type fakeCounters struct {
	err error
}

func (f *fakeCounters) Read(_ context.Context) (traffic.Sample, error) { return traffic.Sample{}, f.err }

func newTestServer(t *testing.T, store *fakeStore, counters *fakeCounters) *Server {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)).MustWait(context.Background())

	thresholds := []period.Threshold{8000, 9000}
	usage := usageuc.New(store, usageuc.Config{QuotaGB: 100, ResetDay: 1, Thresholds: thresholds}, clock)
	health := healthuc.New(store, counters, nil, healthuc.Config{Clock: clock})
	return NewServer(usage, health, zap.NewNop())
}

func currentDoc() period.Document {
	rec := period.NewRecord([]period.Threshold{8000, 9000})
	rec.CumulativeGB = 85
	rec.MarkSent(8000)
	rec.LastReportDate = "2026-10-08"
	rec.LastResetDay = 1
	return period.Document{"2026-10": rec}
}

// --- Tests ---

func TestGetUsage(t *testing.T) {
	srv := newTestServer(t, &fakeStore{doc: currentDoc()}, &fakeCounters{})

	rr := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/usage", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp UsageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Period != "2026-10" || resp.UsedGB != 85 || resp.QuotaGB != 100 || resp.RemainingGB != 15 {
		t.Errorf("unexpected usage: %+v", resp)
	}
	if resp.NextReset != "2026-11-01" {
		t.Errorf("next_reset: got %q", resp.NextReset)
	}
	if resp.LastReport == nil || *resp.LastReport != "2026-10-08" {
		t.Errorf("last_report: got %v", resp.LastReport)
	}
	want := []ThresholdStatus{{Percent: "80", Sent: true}, {Percent: "90", Sent: false}}
	if len(resp.Thresholds) != len(want) {
		t.Fatalf("thresholds: got %+v", resp.Thresholds)
	}
	for i := range want {
		if resp.Thresholds[i] != want[i] {
			t.Errorf("threshold %d: got %+v, want %+v", i, resp.Thresholds[i], want[i])
		}
	}
}

func TestGetUsage_StoreUnavailable(t *testing.T) {
	err := fmt.Errorf("load: %w", domain.ErrStoreUnavailable)
	srv := newTestServer(t, &fakeStore{err: err}, &fakeCounters{})

	rr := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/usage", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != ErrorCodeStoreUnavailable || errResp.Message != domain.ErrStoreUnavailable.Error() {
		t.Errorf("unexpected error response: %+v", errResp)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		counterErr error
		wantCode   int
		wantStatus healthuc.Status
	}{
		{name: "healthy", wantCode: http.StatusOK, wantStatus: healthuc.Healthy},
		{
			name: "degraded", counterErr: domain.ErrCounterUnavailable,
			wantCode: http.StatusServiceUnavailable, wantStatus: healthuc.Degraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeStore{doc: period.Document{}}, &fakeCounters{err: tt.counterErr})

			rr := httptest.NewRecorder()
			srv.Router([]string{"secret"}).ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

			if rr.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("health status: got %q, want %q", resp.Status, tt.wantStatus)
			}
			if rr.Header().Get("X-Request-ID") == "" {
				t.Error("expected X-Request-ID header")
			}
		})
	}
}

func TestRouter_AuthAppliesToUsage(t *testing.T) {
	srv := newTestServer(t, &fakeStore{doc: currentDoc()}, &fakeCounters{})
	h := srv.Router([]string{"secret"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/usage", http.NoBody))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("without key: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest("GET", "/api/v1/usage", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with key: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t, &fakeStore{doc: period.Document{}}, &fakeCounters{})
	h := srv.Router(nil)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/usage", http.NoBody))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "trafficwatch_http_requests_total") {
		t.Error("expected http metrics in exposition")
	}
}

func TestRouter_NotFound(t *testing.T) {
	srv := newTestServer(t, &fakeStore{doc: period.Document{}}, &fakeCounters{})

	rr := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(rr, httptest.NewRequest("GET", "/nope", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/usage", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
}
