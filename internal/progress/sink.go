// Package progress implements the two notification sinks described in
// 4.6: a repainted terminal progress bar and an out-of-process broadcast
// signal emitter. Both observe the same Sink interface so the orchestrator
// can drive either or both without caring which is attached.
package progress

// Sink receives progress, informational, and error notifications from the
// upgrade/checkout pipeline.
type Sink interface {
	// Progress reports byte-level progress for the named step. Sinks are
	// expected to suppress repeated calls that do not change the integer
	// percentage, to avoid flooding their output.
	Progress(step string, current, total int64)
	// Message reports an informational log line.
	Message(text string)
	// Error reports a fatal condition, with a small stable code alongside
	// the human-readable text.
	Error(code int32, text string)
}

// MultiSink fans a single stream of notifications out to every attached
// Sink. A nil entry is skipped, so callers can build a MultiSink from
// optionally-nil sinks without conditionals at each call site.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink builds a MultiSink from the given sinks, dropping nil
// entries.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) Progress(step string, current, total int64) {
	for _, s := range m.sinks {
		s.Progress(step, current, total)
	}
}

func (m *MultiSink) Message(text string) {
	for _, s := range m.sinks {
		s.Message(text)
	}
}

func (m *MultiSink) Error(code int32, text string) {
	for _, s := range m.sinks {
		s.Error(code, text)
	}
}

func percentOf(current, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(current * 100 / total)
	if pct > 100 {
		pct = 100
	}
	return pct
}
