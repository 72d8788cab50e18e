package lockkeys

import (
	"log/slog"
	"sync"
)

// Reader queries the host for the current lock key state.
// Read must return quickly and never fail; keys it cannot query read as off.
type Reader interface {
	Read() State
}

// Source is a platform backend for a Reader.
type Source interface {
	// Name identifies the backend in logs.
	Name() string
	// Query returns the current state or an error if the backend is unusable.
	Query() (State, error)
	// Close releases any connection held by the backend.
	Close() error
}

// HostReader reads lock key state through a platform Source.
// A failed query yields the all-off state.
type HostReader struct {
	mu     sync.Mutex
	source Source
	logger *slog.Logger

	failing bool
}

// NewHostReader creates a reader over source. A nil source yields an
// unsupported reader that always reports all-off.
func NewHostReader(source Source, logger *slog.Logger) *HostReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &HostReader{source: source, logger: logger}
}

// Read returns the current state, or all-off if the query fails.
func (r *HostReader) Read() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.source == nil {
		return 0
	}

	s, err := r.source.Query()
	if err != nil {
		// Only log transitions so a persistent failure does not flood the log.
		if !r.failing {
			r.logger.Debug("lock key query failed, reporting all off", "source", r.source.Name(), "error", err)
			r.failing = true
		}
		return 0
	}
	if r.failing {
		r.logger.Debug("lock key query recovered", "source", r.source.Name())
		r.failing = false
	}
	return s
}

// Supported reports whether the reader has a platform backend.
func (r *HostReader) Supported() bool {
	return r.source != nil
}

// SourceName returns the backend name, or "unsupported".
func (r *HostReader) SourceName() string {
	if r.source == nil {
		return "unsupported"
	}
	return r.source.Name()
}

// Close releases the backend.
func (r *HostReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.source == nil {
		return nil
	}
	return r.source.Close()
}

// NewReader returns a HostReader over the best backend available on this
// host. When nothing is available the reader is unsupported and reports
// all-off forever.
func NewReader(logger *slog.Logger) *HostReader {
	if logger == nil {
		logger = slog.Default()
	}
	source := detectSource(logger)
	if source == nil {
		logger.Warn("lock key state query not supported on this host, all keys will read as off")
	} else {
		logger.Debug("lock key reader ready", "source", source.Name())
	}
	return NewHostReader(source, logger)
}
