package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/platinummonkey/beacon/pkg/config"
)

type staticProbe struct {
	name   string
	status Status
}

func (p staticProbe) Name() string { return p.name }

func (p staticProbe) Check(ctx context.Context) Result {
	return Result{Name: p.name, Status: p.status}
}

type panicProbe struct{}

func (panicProbe) Name() string { return "panics" }
func (panicProbe) Check(ctx context.Context) Result { panic("probe exploded") }

type stuckProbe struct{}

func (stuckProbe) Name() string { return "stuck" }
func (stuckProbe) Check(ctx context.Context) Result {
	time.Sleep(time.Second)
	return Result{Name: "stuck", Status: StatusHealthy}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]string
}

func (o *recordingObserver) ObserveProbe(name, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = map[string]string{}
	}
	o.calls[name] = status
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"unknown counts as unhealthy", []Status{StatusHealthy, Status("bogus")}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]Result, 0, len(tt.statuses))
			for _, s := range tt.statuses {
				results = append(results, Result{Status: s})
			}
			assert.Equal(t, tt.want, Aggregate(results))
		})
	}
}

func TestAggregate_UnhealthyPrecedence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		statuses := rapid.SliceOf(rapid.SampledFrom([]Status{StatusHealthy, StatusDegraded, StatusUnhealthy})).Draw(t, "statuses")
		results := make([]Result, 0, len(statuses)+1)
		for _, s := range statuses {
			results = append(results, Result{Status: s})
		}
		at := rapid.IntRange(0, len(results)).Draw(t, "at")
		results = append(results[:at], append([]Result{{Status: StatusUnhealthy}}, results[at:]...)...)

		if got := Aggregate(results); got != StatusUnhealthy {
			t.Fatalf("expected unhealthy, got %s", got)
		}
		s := Summarize(results)
		if s.Healthy+s.Degraded+s.Unhealthy != s.Total {
			t.Fatalf("summary does not add up: %+v", s)
		}
	})
}

func TestChecker_RunIsolatesFailures(t *testing.T) {
	observer := &recordingObserver{}
	checker := NewChecker(Options{Timeout: 50 * time.Millisecond, Observer: observer},
		staticProbe{"ok", StatusHealthy},
		panicProbe{},
		stuckProbe{},
		staticProbe{"slow", StatusDegraded},
	)

	report := checker.Run(context.Background())

	require.Len(t, report.Results, 4)
	assert.Equal(t, "ok", report.Results[0].Name)
	assert.Equal(t, StatusHealthy, report.Results[0].Status)
	assert.Equal(t, StatusUnhealthy, report.Results[1].Status)
	assert.Contains(t, report.Results[1].Message, "probe exploded")
	assert.Equal(t, StatusUnhealthy, report.Results[2].Status)
	assert.Contains(t, report.Results[2].Message, "timed out")
	assert.Equal(t, StatusDegraded, report.Results[3].Status)

	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, Summary{Total: 4, Healthy: 1, Degraded: 1, Unhealthy: 2}, report.Summary)
	assert.Equal(t, "unhealthy", observer.calls["panics"])
	assert.Equal(t, "healthy", observer.calls["ok"])
}

func TestChecker_Register(t *testing.T) {
	checker := NewChecker(Options{})
	assert.Equal(t, StatusHealthy, checker.Run(context.Background()).Status)

	checker.Register(staticProbe{"late", StatusDegraded})
	assert.Equal(t, StatusDegraded, checker.Run(context.Background()).Status)
}

func TestSQLProbe(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		res := (&SQLProbe{DB: db}).Check(context.Background())
		assert.Equal(t, StatusHealthy, res.Status)
		assert.Equal(t, "database", res.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		res := (&SQLProbe{DB: db}).Check(context.Background())
		assert.Equal(t, StatusUnhealthy, res.Status)
		assert.Contains(t, res.Message, "connection refused")
	})

	t.Run("query fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("relation missing"))

		res := (&SQLProbe{DB: db}).Check(context.Background())
		assert.Equal(t, StatusUnhealthy, res.Status)
		assert.Contains(t, res.Message, "query failed")
	})

	t.Run("slow query is degraded", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillDelayFor(30 * time.Millisecond).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		res := (&SQLProbe{DB: db, DegradedLatency: 5 * time.Millisecond}).Check(context.Background())
		assert.Equal(t, StatusDegraded, res.Status)
		assert.Contains(t, res.Message, "latency")
	})
}

func TestRedisProbe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	probe := &RedisProbe{Client: client}
	res := probe.Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status, res.Message)
	assert.Empty(t, mr.Keys(), "probe key is removed")

	mr.Close()
	res = probe.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
}

func TestFuncProbe(t *testing.T) {
	boom := func(ctx context.Context) error { return errors.New("queue stalled") }

	res := (&FuncProbe{ProbeName: "queue", Fn: boom}).Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)

	res = (&FuncProbe{ProbeName: "queue", Critical: true, Fn: boom}).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "queue stalled", res.Message)

	res = (&FuncProbe{ProbeName: "queue", Fn: func(ctx context.Context) error { return nil }}).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
}

func TestFilesystemProbe(t *testing.T) {
	dir := t.TempDir()
	res := (&FilesystemProbe{Dir: dir}).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status, res.Message)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file is removed")

	res = (&FilesystemProbe{Dir: filepath.Join(dir, "missing")}).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
}

func TestHTTPProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tests := []struct {
		name     string
		dep      config.Dependency
		expected Status
	}{
		{"reachable", config.Dependency{Name: "billing", URL: server.URL + "/up", Critical: true}, StatusHealthy},
		{"critical down", config.Dependency{Name: "billing", URL: server.URL + "/down", Critical: true}, StatusUnhealthy},
		{"optional down", config.Dependency{Name: "search", URL: server.URL + "/down"}, StatusDegraded},
		{"bad url", config.Dependency{Name: "bad", URL: "://nope"}, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &HTTPProbe{Dependency: tt.dep, Client: server.Client()}
			res := probe.Check(context.Background())
			assert.Equal(t, tt.expected, res.Status, res.Message)
			assert.Equal(t, "dependency:"+tt.dep.Name, res.Name)
		})
	}
}

func TestHandlers(t *testing.T) {
	router := mux.NewRouter()
	NewChecker(Options{}, staticProbe{"db", StatusUnhealthy}).RegisterRoutes(router)

	t.Run("liveness", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	})

	t.Run("readiness unhealthy", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var report Report
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&report))
		assert.Equal(t, StatusUnhealthy, report.Status)
		assert.Equal(t, 1, report.Summary.Unhealthy)
	})

	t.Run("readiness degraded is still ready", func(t *testing.T) {
		r := mux.NewRouter()
		NewChecker(Options{}, staticProbe{"cache", StatusDegraded}).RegisterRoutes(r)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
