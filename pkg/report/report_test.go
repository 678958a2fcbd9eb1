package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/beacon/pkg/analytics"
	"github.com/platinummonkey/beacon/pkg/metrics"
)

var reportTime = time.Date(2026, 3, 1, 12, 30, 15, 250_000_000, time.UTC)

type stubAnalyzer struct{ window int }

func (s *stubAnalyzer) Analyze(window int) analytics.Snapshot {
	s.window = window
	return analytics.Snapshot{Timeframe: "60m", API: analytics.APIStats{TotalRequests: 3}}
}

type stubRaw struct{ limit int }

func (s *stubRaw) Raw(limit int) metrics.RawMetrics {
	s.limit = limit
	return metrics.RawMetrics{
		API:         []metrics.APIMetric{{ID: "a1", Endpoint: "/x"}},
		Database:    []metrics.DataAccessMetric{},
		Performance: []metrics.OperationMetric{},
	}
}

type fakeS3 struct {
	mu    sync.Mutex
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

type recordingObserver struct{ errs []error }

func (o *recordingObserver) ObserveExport(err error) { o.errs = append(o.errs, err) }

func newExporter(sinks ...Sink) (*Exporter, *stubAnalyzer, *stubRaw, *recordingObserver) {
	a, r, o := &stubAnalyzer{}, &stubRaw{}, &recordingObserver{}
	e := NewExporter(Options{
		Analyzer: a,
		Raw:      r,
		Sinks:    sinks,
		Observer: o,
		Now:      func() time.Time { return reportTime },
	})
	return e, a, r, o
}

func TestExport_FileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	e, analyzer, raw, obs := newExporter(&FileSink{Dir: dir})

	location, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "beacon-report-20260301T123015.250Z.json"), location)
	assert.Equal(t, 60, analyzer.window)
	assert.Equal(t, RawLimit, raw.limit)
	require.Len(t, obs.errs, 1)
	assert.NoError(t, obs.errs[0])

	data, err := os.ReadFile(location)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "timestamp")
	assert.Contains(t, doc, "analytics")
	require.Contains(t, doc, "rawMetrics")

	var rawDoc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["rawMetrics"], &rawDoc))
	for _, key := range []string{"api", "database", "performance"} {
		assert.Contains(t, rawDoc, key)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestExport_S3Sink(t *testing.T) {
	client := &fakeS3{}
	e, _, _, _ := newExporter(&S3Sink{Client: client, Bucket: "ops", Prefix: "beacon/reports"})

	location, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3://ops/beacon/reports/beacon-report-20260301T123015.250Z.json", location)
	assert.Equal(t, "ops", aws.ToString(client.input.Bucket))
	assert.Equal(t, "application/json", aws.ToString(client.input.ContentType))
	assert.NotEmpty(t, client.input.Metadata["checksum-sha256"])

	var rep Report
	require.NoError(t, json.Unmarshal(client.body, &rep))
	assert.Equal(t, 3, rep.Analytics.API.TotalRequests)
	require.Len(t, rep.RawMetrics.API, 1)
}

func TestExport_NoSink(t *testing.T) {
	e, _, _, obs := newExporter()
	_, err := e.Export(context.Background())
	assert.ErrorIs(t, err, ErrNoSink)
	require.Len(t, obs.errs, 1)
	assert.ErrorIs(t, obs.errs[0], ErrNoSink)
}

func TestExport_PropagatesSinkErrors(t *testing.T) {
	denied := errors.New("access denied")
	dir := t.TempDir()
	e, _, _, _ := newExporter(&FileSink{Dir: dir}, &S3Sink{Client: &fakeS3{err: denied}, Bucket: "ops"})

	location, err := e.Export(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, filepath.Join(dir, "beacon-report-20260301T123015.250Z.json"), location, "successful sinks still report a location")
}

func TestFileSink_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := (&FileSink{Dir: file}).Write(context.Background(), "r.json", []byte("{}"))
	assert.Error(t, err)
}
