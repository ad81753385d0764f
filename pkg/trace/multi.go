package trace

import (
	"context"
	"errors"
)

// MultiExporter fans out records to several exporters.
type MultiExporter struct {
	exporters []Exporter
}

// NewMultiExporter drops nil exporters. With nothing left it returns a NoopExporter.
func NewMultiExporter(exporters ...Exporter) Exporter {
	nonNil := make([]Exporter, 0, len(exporters))
	for _, e := range exporters {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	switch len(nonNil) {
	case 0:
		return &NoopExporter{}
	case 1:
		return nonNil[0]
	}
	return &MultiExporter{exporters: nonNil}
}

// Export writes the record to every exporter and joins their errors.
func (m *MultiExporter) Export(ctx context.Context, record *TraceRecord) error {
	var errs []error
	for _, e := range m.exporters {
		if err := e.Export(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every exporter and joins their errors.
func (m *MultiExporter) Close() error {
	var errs []error
	for _, e := range m.exporters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
