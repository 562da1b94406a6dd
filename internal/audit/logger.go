// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vigil/internal/lockdown"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
)

// Config holds configuration for the journal logger.
type Config struct {
	// Retention is how long events are kept. Zero keeps them forever.
	Retention time.Duration

	// BufferSize is the depth of the async write queue.
	BufferSize int

	// WriteTimeout bounds a single store write.
	WriteTimeout time.Duration
}

// DefaultConfig returns a 90 day retention and a 256 event queue.
func DefaultConfig() Config {
	return Config{
		Retention:    90 * 24 * time.Hour,
		BufferSize:   256,
		WriteTimeout: 5 * time.Second,
	}
}

// Logger records journal events asynchronously.
type Logger struct {
	config    Config
	store     Store
	logger    zerolog.Logger
	eventChan chan *Event

	closeOnce sync.Once
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates a Logger and starts its writer goroutine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLogger(store Store, config Config, logger zerolog.Logger) *Logger {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	l := &Logger{
		config:    config,
		store:     store,
		logger:    logger,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()
	return l
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		l.logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save journal event")
		return
	}
	metrics.JournalEventsTotal.WithLabelValues(string(event.Type)).Inc()
}

// Log queues an event. ID and Timestamp are filled in when empty. A full
// queue drops the event.
func (l *Logger) Log(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-l.stopChan:
		metrics.JournalDroppedTotal.Inc()
		return
	default:
	}

	select {
	case l.eventChan <- event:
	default:
		metrics.JournalDroppedTotal.Inc()
		l.logger.Warn().Str("event_id", event.ID).Msg("Journal queue full, dropping event")
	}
}

// Close stops the writer after draining queued events.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}

// Query retrieves events matching the filter, newest first.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Get retrieves an event by ID.
func (l *Logger) Get(ctx context.Context, id string) (*Event, error) {
	return l.store.Get(ctx, id)
}

// Cleanup deletes events older than the retention window measured from now.
func (l *Logger) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	if l.config.Retention <= 0 {
		return 0, nil
	}
	count, err := l.store.Delete(ctx, now.Add(-l.config.Retention))
	if err != nil {
		return 0, fmt.Errorf("journal cleanup: %w", err)
	}
	if count > 0 {
		l.logger.Info().Int64("count", count).Msg("Cleaned up old journal events")
	}
	return count, nil
}

// Observe records a controller transition. It implements lockdown.Observer.
func (l *Logger) Observe(ctx context.Context, ev lockdown.Event) {
	event := &Event{
		Timestamp:      ev.Time,
		EpisodeID:      ev.EpisodeID,
		ViolationCount: ev.ViolationCount,
		Bypass:         ev.Bypass,
		Reason:         ev.Reason,
		RequestID:      logging.RequestIDFromContext(ctx),
	}
	if ev.Duration > 0 {
		event.DurationSeconds = ev.Duration.Seconds()
	}
	if !ev.Until.IsZero() {
		until := ev.Until
		event.Until = &until
	}

	switch ev.Kind {
	case lockdown.EventViolation:
		event.Type = EventTypeViolation
		event.Severity = SeverityCritical
		event.Description = fmt.Sprintf("Blocked keyword typed, locked for %s", ev.Duration)
	case lockdown.EventBypass:
		event.Type = EventTypeBypass
		event.Severity = SeverityCritical
		event.Description = fmt.Sprintf("Bypass attempt reported, penalty lock for %s", ev.Duration)
	case lockdown.EventReapplied:
		event.Type = EventTypeReapplied
		event.Severity = SeverityWarning
		event.Description = fmt.Sprintf("Lock resumed after restart, %s remaining", ev.Duration)
	case lockdown.EventUnlocked:
		event.Type = EventTypeUnlocked
		event.Severity = SeverityInfo
		event.Description = "Lock ended: " + ev.Reason
	case lockdown.EventDecayReset:
		event.Type = EventTypeDecayReset
		event.Severity = SeverityInfo
		event.Description = "Violation-free streak reached, escalation reset"
	case lockdown.EventManualReset:
		event.Type = EventTypeManualReset
		event.Severity = SeverityWarning
		event.Description = "Violation count reset by administrator"
	default:
		l.logger.Debug().Str("kind", string(ev.Kind)).Msg("Ignoring unknown lock event")
		return
	}
	l.Log(event)
}

// LogAdminAction records an admin API request.
func (l *Logger) LogAdminAction(ctx context.Context, action, remoteAddr string, metadata map[string]any) {
	l.Log(&Event{
		Type:        EventTypeAdminAction,
		Severity:    SeverityWarning,
		Reason:      action,
		Description: "Admin action: " + action,
		RequestID:   logging.RequestIDFromContext(ctx),
		RemoteAddr:  remoteAddr,
		Metadata:    mustJSON(metadata),
	})
}

// LogAuthFailure records a rejected admin token.
func (l *Logger) LogAuthFailure(ctx context.Context, route, remoteAddr string) {
	l.Log(&Event{
		Type:        EventTypeAuthFailure,
		Severity:    SeverityWarning,
		Reason:      route,
		Description: "Admin request rejected: invalid token",
		RequestID:   logging.RequestIDFromContext(ctx),
		RemoteAddr:  remoteAddr,
	})
}

// mustJSON converts a value to JSON, returning nil for nil or on error.
func mustJSON(v map[string]any) json.RawMessage {
	if len(v) == 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

var _ lockdown.Observer = (*Logger)(nil)
