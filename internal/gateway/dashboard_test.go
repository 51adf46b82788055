package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/logger"
)

// fakeDownstream 起一个假服务，记录收到的请求数。
func fakeDownstream(t *testing.T, routes map[string]any) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func hostPort(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.NewLogger("error", "text", "stdout", "")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return log
}

func TestDashboardAggregation(t *testing.T) {
	alerts := make([]map[string]any, 0, 40)
	for i := 0; i < 40; i++ {
		alerts = append(alerts, map[string]any{"coach_id": fmt.Sprintf("CH-%03d", i+1)})
	}
	fleetSrv, fleetHits := fakeDownstream(t, map[string]any{
		"/api/v1/counts": map[string]int64{"coaches": 12, "trains": 3},
		"/api/v1/alerts": map[string]any{"alerts": alerts, "total": 40},
	})
	maintSrv, _ := fakeDownstream(t, map[string]any{
		"/api/v1/counts":         map[string]int64{"records": 77},
		"/api/v1/records/recent": map[string]any{"records": []map[string]any{{"record_id": 1, "coach_id": "CH-001"}}},
	})
	idSrv, _ := fakeDownstream(t, map[string]any{
		"/api/v1/counts": map[string]int64{"engineers": 5},
	})

	cfg := config.GatewayConfig{
		FleetService:       hostPort(fleetSrv),
		MaintenanceService: hostPort(maintSrv),
		IdentityService:    hostPort(idSrv),
		CacheTTLSeconds:    60,
		AlertDisplayLimit:  30,
		RecentLogLimit:     20,
	}
	client := NewClient(nil, cfg)
	agg := NewAggregator(client, cfg)

	d, err := agg.Dashboard(context.Background(), "")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Counts.Coaches != 12 || d.Counts.Trains != 3 || d.Counts.Engineers != 5 || d.Counts.Records != 77 {
		t.Fatalf("counts = %+v", d.Counts)
	}
	// 告警截断到展示上限，总数保留真实值
	if len(d.Alerts) != 30 {
		t.Fatalf("alerts shown = %d, want 30", len(d.Alerts))
	}
	if d.AlertsTotal != 40 {
		t.Fatalf("alerts total = %d, want 40", d.AlertsTotal)
	}
	if len(d.RecentRecords) != 1 || d.RecentRecords[0].CoachID != "CH-001" {
		t.Fatalf("recent = %+v", d.RecentRecords)
	}

	// 第二次命中缓存，不再打下游
	before := fleetHits.Load()
	if _, err := agg.Dashboard(context.Background(), ""); err != nil {
		t.Fatalf("Dashboard cached: %v", err)
	}
	if fleetHits.Load() != before {
		t.Fatalf("expected cache hit, downstream called again")
	}
}

func TestDashboardDownstreamFailure(t *testing.T) {
	cfg := config.GatewayConfig{
		FleetService:       "127.0.0.1:1", // 没有服务在听
		MaintenanceService: "127.0.0.1:1",
		IdentityService:    "127.0.0.1:1",
		CacheTTLSeconds:    60,
	}
	agg := NewAggregator(NewClient(nil, cfg), cfg)
	if _, err := agg.Dashboard(context.Background(), ""); err == nil {
		t.Fatalf("expected aggregation failure")
	}
}

func TestProxyForwardsAuthorizationAndQuery(t *testing.T) {
	var gotAuthz, gotQuery, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthz = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		gotMethod = r.Method
		w.Header().Set("Content-Disposition", "attachment; filename=coaches.csv")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("coach_id\nCH-001\n"))
	}))
	defer srv.Close()

	cfg := config.GatewayConfig{FleetService: hostPort(srv)}
	client := NewClient(nil, cfg)
	proxy := client.Proxy(FleetService, testLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coaches/export?train_no=12951", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotAuthz != "Bearer tok" || gotQuery != "train_no=12951" || gotMethod != http.MethodGet {
		t.Fatalf("forwarded authz=%q query=%q method=%q", gotAuthz, gotQuery, gotMethod)
	}
	if rec.Header().Get("Content-Disposition") == "" {
		t.Fatalf("expected Content-Disposition forwarded")
	}
	if !strings.Contains(rec.Body.String(), "CH-001") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
