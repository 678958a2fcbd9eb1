package dashboard

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// SystemProvider reports resource usage
type SystemProvider interface {
	System(ctx context.Context) (SystemMetrics, error)
}

// BusinessProvider reports application counters
type BusinessProvider interface {
	Business(ctx context.Context) (BusinessMetrics, error)
}

// SecurityProvider reports security counters
type SecurityProvider interface {
	Security(ctx context.Context) (SecurityMetrics, error)
}

// RuntimeSystemProvider reads host CPU and memory usage plus process and Go
// runtime figures
type RuntimeSystemProvider struct {
	started time.Time
	proc    *process.Process
}

// NewRuntimeSystemProvider creates a provider for the current process
func NewRuntimeSystemProvider() (*RuntimeSystemProvider, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open current process: %w", err)
	}
	return &RuntimeSystemProvider{started: time.Now(), proc: proc}, nil
}

// System returns CPU usage since the previous call and current memory usage
func (p *RuntimeSystemProvider) System(ctx context.Context) (SystemMetrics, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	out := SystemMetrics{
		HeapAlloc:  ms.HeapAlloc,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(p.started),
	}

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return out, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percents) > 0 {
		out.CPUUsage = round1(percents[0])
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read memory usage: %w", err)
	}
	out.MemoryUsage = round1(vm.UsedPercent)

	if info, err := p.proc.MemoryInfoWithContext(ctx); err == nil {
		out.ProcessRSS = info.RSS
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// BusinessCounters accumulates business events between collections. Reads
// through Business reset the interval counters; ActiveUsers is a gauge.
type BusinessCounters struct {
	activeUsers  atomic.Int64
	signups      atomic.Int64
	transactions atomic.Int64
	revenueCents atomic.Int64
}

// SetActiveUsers sets the active user gauge
func (c *BusinessCounters) SetActiveUsers(n int64) { c.activeUsers.Store(n) }

// AddSignup counts one signup
func (c *BusinessCounters) AddSignup() { c.signups.Add(1) }

// AddTransaction counts one transaction worth amount
func (c *BusinessCounters) AddTransaction(amount float64) {
	c.transactions.Add(1)
	c.revenueCents.Add(int64(math.Round(amount * 100)))
}

// Business returns and resets the interval counters
func (c *BusinessCounters) Business(context.Context) (BusinessMetrics, error) {
	return BusinessMetrics{
		ActiveUsers:  c.activeUsers.Load(),
		Signups:      c.signups.Swap(0),
		Transactions: c.transactions.Swap(0),
		Revenue:      float64(c.revenueCents.Swap(0)) / 100,
	}, nil
}

// SecurityCounters accumulates security events between collections
type SecurityCounters struct {
	failedLogins atomic.Int64
	blocked      atomic.Int64
	suspicious   atomic.Int64
}

// AddFailedLogin counts one failed login
func (c *SecurityCounters) AddFailedLogin() { c.failedLogins.Add(1) }

// AddBlockedRequest counts one blocked request
func (c *SecurityCounters) AddBlockedRequest() { c.blocked.Add(1) }

// AddSuspiciousActivity counts one suspicious event
func (c *SecurityCounters) AddSuspiciousActivity() { c.suspicious.Add(1) }

// Security returns and resets the interval counters
func (c *SecurityCounters) Security(context.Context) (SecurityMetrics, error) {
	return SecurityMetrics{
		FailedLogins:       c.failedLogins.Swap(0),
		BlockedRequests:    c.blocked.Swap(0),
		SuspiciousActivity: c.suspicious.Swap(0),
	}, nil
}
