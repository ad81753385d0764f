package trace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(id string) *TraceRecord {
	return &TraceRecord{
		Timestamp:   time.Date(2026, 1, 14, 10, 30, 0, 0, time.UTC),
		OperationID: id,
		Operation:   "grc_question",
		Model:       "gpt-4o",
		Mode:        "strict_json",
		DurationMs:  1234,
		Status:      StatusSuccess,
		Attempts:    2,
		Spans: []SpanRecord{
			{Name: "attempt", DurationMs: 400, OK: false, ErrorType: "rate_limit", Counters: map[string]int64{"attempt": 1}},
			{Name: "backoff", DurationMs: 200, OK: true},
			{Name: "attempt", DurationMs: 600, OK: true, Counters: map[string]int64{"attempt": 2, "responseChars": 512}},
			{Name: "decode", DurationMs: 1, OK: true},
		},
	}
}

func TestFileExporter_BasicExport(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	require.NoError(t, exporter.Export(context.Background(), sampleRecord("op-1")))
	require.NoError(t, exporter.Close())

	records, err := ReadFile(tracePath)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "op-1", got.OperationID)
	assert.Equal(t, "grc_question", got.Operation)
	assert.Equal(t, "strict_json", got.Mode)
	assert.Equal(t, 2, got.Attempts)
	require.Len(t, got.Spans, 4)
	assert.Equal(t, "rate_limit", got.Spans[0].ErrorType)
	assert.Equal(t, int64(512), got.Spans[2].Counters["responseChars"])
}

func TestNewFileExporter_EmptyPathIsNoop(t *testing.T) {
	exporter, err := NewFileExporter("")
	require.NoError(t, err)
	require.IsType(t, &NoopExporter{}, exporter)

	assert.NoError(t, exporter.Export(context.Background(), sampleRecord("noop")))
	assert.NoError(t, exporter.Close())
}

func TestFileExporter_AppendsAcrossReopen(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")

	for i := 0; i < 2; i++ {
		exporter, err := NewFileExporter(tracePath)
		require.NoError(t, err)
		for j := 0; j < 3; j++ {
			require.NoError(t, exporter.Export(context.Background(), sampleRecord(fmt.Sprintf("op-%d-%d", i, j))))
		}
		require.NoError(t, exporter.Close())
	}

	records, err := ReadFile(tracePath)
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, "op-0-0", records[0].OperationID)
	assert.Equal(t, "op-1-2", records[5].OperationID)
}

func TestFileExporter_Rotation(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")

	// Every record overflows the limit, so each export rotates.
	exporter, err := NewFileExporter(tracePath, WithMaxSize(100), WithMaxRotatedFiles(2))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, exporter.Export(context.Background(), sampleRecord(fmt.Sprintf("op-%d", i))))
	}
	require.NoError(t, exporter.Close())

	newest, err := ReadFile(tracePath + ".1")
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, "op-3", newest[0].OperationID)

	older, err := ReadFile(tracePath + ".2")
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "op-2", older[0].OperationID)

	_, err = os.Stat(tracePath + ".3")
	assert.True(t, os.IsNotExist(err), "only two rotated files should be kept")

	current, err := ReadFile(tracePath)
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestFileExporter_RotationWithoutBackups(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")

	exporter, err := NewFileExporter(tracePath, WithMaxSize(100), WithMaxRotatedFiles(0))
	require.NoError(t, err)
	require.NoError(t, exporter.Export(context.Background(), sampleRecord("op-1")))
	require.NoError(t, exporter.Close())

	info, err := os.Stat(tracePath)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	_, err = os.Stat(tracePath + ".1")
	assert.True(t, os.IsNotExist(err))
}

func TestFileExporter_FailedRotationKeepsWriting(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")

	// A non-empty directory in place of the oldest backup cannot be removed.
	blocker := tracePath + ".1"
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0755))

	exporter, err := NewFileExporter(tracePath, WithMaxSize(100), WithMaxRotatedFiles(1))
	require.NoError(t, err)

	err = exporter.Export(context.Background(), sampleRecord("op-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rotate trace file")

	err = exporter.Export(context.Background(), sampleRecord("op-2"))
	require.Error(t, err, "rotation is retried on the next export")

	require.NoError(t, os.RemoveAll(blocker))
	require.NoError(t, exporter.Export(context.Background(), sampleRecord("op-3")))
	require.NoError(t, exporter.Close())

	rotated, err := ReadFile(tracePath + ".1")
	require.NoError(t, err)
	require.Len(t, rotated, 3, "records written while rotation failed are kept")
	assert.Equal(t, "op-1", rotated[0].OperationID)
	assert.Equal(t, "op-3", rotated[2].OperationID)

	current, err := ReadFile(tracePath)
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestFileExporter_NoPayloadInOutput(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	record := sampleRecord("op-ids")
	record.IDs = map[string]interface{}{"slot": 3, "batchSize": 5}
	require.NoError(t, exporter.Export(context.Background(), record))
	require.NoError(t, exporter.Close())

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)

	for _, field := range []string{`"prompt"`, `"completion"`, `"apiKey"`, `"text"`} {
		assert.NotContains(t, string(data), field)
	}
	assert.Contains(t, string(data), `"slot":3`)
}

func TestFileExporter_ErrorRecord(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	record := sampleRecord("op-err")
	record.Status = StatusError
	record.ErrorType = "schema"
	record.Spans = []SpanRecord{{Name: "decode", OK: false, ErrorType: "schema"}}
	require.NoError(t, exporter.Export(context.Background(), record))
	require.NoError(t, exporter.Close())

	records, err := ReadFile(tracePath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, StatusError, records[0].Status)
	assert.Equal(t, "schema", records[0].ErrorType)
	assert.False(t, records[0].Spans[0].OK)
}

func TestFileExporter_ExportAfterClose(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exporter.Close())
	require.NoError(t, exporter.Close())

	err = exporter.Export(context.Background(), sampleRecord("late"))
	assert.True(t, errors.Is(err, ErrExporterClosed))
}

func TestFileExporter_CreatesDirectory(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "nested", "deeper", "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)
	defer exporter.Close()

	_, err = os.Stat(tracePath)
	assert.NoError(t, err)
}

func TestFileExporter_ConcurrentExport(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, exporter.Export(context.Background(), sampleRecord(fmt.Sprintf("op-%d", i))))
		}(i)
	}
	wg.Wait()
	require.NoError(t, exporter.Close())

	records, err := ReadFile(tracePath)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestReadFile_CorruptLine(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(tracePath, []byte("{\"operation\":\"email\"}\nnot json\n"), 0644))

	_, err := ReadFile(tracePath)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "line 2"))
}
