package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// InvocationEvent describes one stage of a tool invocation
type InvocationEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Operation      string                 `json:"operation"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of invocation event
type EventType string

const (
	// InvocationStarted when a tool invocation begins
	InvocationStarted EventType = "invocation_started"
	// InvocationCompleted when a tool invocation finishes successfully
	InvocationCompleted EventType = "invocation_completed"
	// InvocationFailed when a tool invocation fails
	InvocationFailed EventType = "invocation_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event InvocationEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	NotifyObservers(ctx context.Context, event InvocationEvent)
}

// LoggingObserver logs invocation events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

// OnEvent handles invocation events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event InvocationEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"operation":       event.Operation,
		"source":          event.Source,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case InvocationStarted:
		o.logger.WithFields(fields).Info("Tool invocation started")
	case InvocationCompleted:
		o.logger.WithFields(fields).Info("Tool invocation completed")
	case InvocationFailed:
		o.logger.WithFields(fields).Error("Tool invocation failed")
	default:
		o.logger.WithFields(fields).Info("Invocation event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver aggregates invocation counters per operation
type MetricsObserver struct {
	mu         sync.RWMutex
	total      int64
	successful int64
	failed     int64
	totalTime  time.Duration
	perOp      map[string]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{perOp: make(map[string]int64)}
}

// OnEvent handles invocation events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event InvocationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case InvocationStarted:
		o.total++
		o.perOp[event.Operation]++
	case InvocationCompleted:
		o.successful++
		o.totalTime += event.ProcessingTime
	case InvocationFailed:
		o.failed++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avg := time.Duration(0)
	if o.successful > 0 {
		avg = o.totalTime / time.Duration(o.successful)
	}
	perOp := make(map[string]int64, len(o.perOp))
	for k, v := range o.perOp {
		perOp[k] = v
	}

	return map[string]interface{}{
		"total_invocations":      o.total,
		"successful_invocations": o.successful,
		"failed_invocations":     o.failed,
		"avg_processing_time":    avg,
		"per_operation":          perOp,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event InvocationEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
