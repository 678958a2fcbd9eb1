package health

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/platinummonkey/beacon/pkg/config"
)

// Probe checks one subsystem. Check reports failures through the returned
// Result rather than panicking; the Checker guards against both anyway.
type Probe interface {
	Name() string
	Check(ctx context.Context) Result
}

func newResult(name string, start time.Time) Result {
	return Result{
		Name:         name,
		Status:       StatusHealthy,
		Timestamp:    start,
		ResponseTime: time.Since(start),
	}
}

func unhealthy(r Result, format string, args ...interface{}) Result {
	r.Status = StatusUnhealthy
	r.Message = fmt.Sprintf(format, args...)
	return r
}

// SQLProbe checks database connectivity and query latency
type SQLProbe struct {
	DB *sql.DB
	// DegradedLatency marks a slow but working query as degraded. Zero disables it.
	DegradedLatency time.Duration
}

// Name returns "database"
func (p *SQLProbe) Name() string { return "database" }

// Check pings the database and runs SELECT 1
func (p *SQLProbe) Check(ctx context.Context) Result {
	start := time.Now()
	res := newResult(p.Name(), start)

	if err := p.DB.PingContext(ctx); err != nil {
		res.ResponseTime = time.Since(start)
		return unhealthy(res, "%s", err.Error())
	}

	queryStart := time.Now()
	var one int
	if err := p.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		res.ResponseTime = time.Since(start)
		return unhealthy(res, "query failed: %s", err.Error())
	}
	queryLatency := time.Since(queryStart)
	res.ResponseTime = time.Since(start)

	stats := p.DB.Stats()
	res.Details = map[string]interface{}{
		"query_latency_ms": queryLatency.Milliseconds(),
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
	}

	if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
		res.Status = StatusDegraded
		res.Message = "connection pool exhausted"
		return res
	}
	if p.DegradedLatency > 0 && queryLatency > p.DegradedLatency {
		res.Status = StatusDegraded
		res.Message = fmt.Sprintf("query latency %dms exceeds %dms", queryLatency.Milliseconds(), p.DegradedLatency.Milliseconds())
	}
	return res
}

// RedisProbe checks cache connectivity with a ping and a write/read/delete
// round trip
type RedisProbe struct {
	Client redis.Cmdable
	// TTL bounds the lifetime of the probe key if the delete never happens
	TTL time.Duration
}

// Name returns "cache"
func (p *RedisProbe) Name() string { return "cache" }

// Check pings Redis and round-trips a unique key
func (p *RedisProbe) Check(ctx context.Context) Result {
	start := time.Now()
	res := newResult(p.Name(), start)

	if err := p.Client.Ping(ctx).Err(); err != nil {
		res.ResponseTime = time.Since(start)
		return unhealthy(res, "%s", err.Error())
	}

	ttl := p.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	key := "beacon:health:" + uuid.NewString()
	want := time.Now().UTC().Format(time.RFC3339Nano)

	if err := p.Client.Set(ctx, key, want, ttl).Err(); err != nil {
		res.ResponseTime = time.Since(start)
		return unhealthy(res, "write failed: %s", err.Error())
	}
	got, err := p.Client.Get(ctx, key).Result()
	if err != nil {
		res.ResponseTime = time.Since(start)
		return unhealthy(res, "read failed: %s", err.Error())
	}
	if err := p.Client.Del(ctx, key).Err(); err != nil {
		res.Status = StatusDegraded
		res.Message = "delete failed: " + err.Error()
	}
	if got != want {
		res.ResponseTime = time.Since(start)
		return unhealthy(res, "read back mismatched value")
	}
	res.ResponseTime = time.Since(start)
	return res
}

// FuncProbe adapts a liveness function. A non-critical failure is degraded,
// a critical failure unhealthy.
type FuncProbe struct {
	ProbeName string
	Critical  bool
	Fn        func(ctx context.Context) error
}

// Name returns the configured probe name
func (p *FuncProbe) Name() string { return p.ProbeName }

// Check runs Fn
func (p *FuncProbe) Check(ctx context.Context) Result {
	start := time.Now()
	err := p.Fn(ctx)
	res := newResult(p.Name(), start)
	if err == nil {
		return res
	}
	if p.Critical {
		return unhealthy(res, "%s", err.Error())
	}
	res.Status = StatusDegraded
	res.Message = err.Error()
	return res
}

// FilesystemProbe checks that Dir is writable
type FilesystemProbe struct {
	Dir string
}

// Name returns "filesystem"
func (p *FilesystemProbe) Name() string { return "filesystem" }

// Check creates, writes and removes a temporary file in Dir
func (p *FilesystemProbe) Check(ctx context.Context) Result {
	start := time.Now()

	f, err := os.CreateTemp(p.Dir, ".beacon-health-*")
	if err != nil {
		return unhealthy(newResult(p.Name(), start), "create failed: %s", err.Error())
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString("ok"); err != nil {
		f.Close()
		return unhealthy(newResult(p.Name(), start), "write failed: %s", err.Error())
	}
	if err := f.Close(); err != nil {
		return unhealthy(newResult(p.Name(), start), "close failed: %s", err.Error())
	}

	res := newResult(p.Name(), start)
	res.Details = map[string]interface{}{"dir": filepath.Clean(p.Dir)}
	return res
}

// HTTPProbe checks that an external dependency answers with a non-5xx status
type HTTPProbe struct {
	Dependency config.Dependency
	Client     *http.Client
}

// Name returns "dependency:<name>"
func (p *HTTPProbe) Name() string { return "dependency:" + p.Dependency.Name }

// Check issues a GET against the dependency URL
func (p *HTTPProbe) Check(ctx context.Context) Result {
	start := time.Now()
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	failed := func(format string, args ...interface{}) Result {
		res := newResult(p.Name(), start)
		res.Message = fmt.Sprintf(format, args...)
		res.Details = map[string]interface{}{"critical": p.Dependency.Critical}
		if p.Dependency.Critical {
			res.Status = StatusUnhealthy
		} else {
			res.Status = StatusDegraded
		}
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Dependency.URL, nil)
	if err != nil {
		return failed("invalid request: %s", err.Error())
	}
	resp, err := client.Do(req)
	if err != nil {
		return failed("%s", err.Error())
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return failed("unexpected status %d", resp.StatusCode)
	}
	res := newResult(p.Name(), start)
	res.Details = map[string]interface{}{"status_code": resp.StatusCode, "critical": p.Dependency.Critical}
	return res
}
