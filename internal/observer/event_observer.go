package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EvidenceEvent represents a pipeline event
type EvidenceEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// EvidenceAnalyzed when a single document pipeline finishes
	EvidenceAnalyzed EventType = "evidence_analyzed"
	// EvidenceFailed when a single document pipeline aborts
	EvidenceFailed EventType = "evidence_failed"
	// NeuralFallback when the neural scorer failed and the heuristic answered
	NeuralFallback EventType = "neural_fallback"
	// ClaimAnalyzed when a whole bundle has been analyzed
	ClaimAnalyzed EventType = "claim_analyzed"
	// EvidenceFetched when a remote file was downloaded
	EvidenceFetched EventType = "evidence_fetched"
	// EvidenceFetchFailed when a remote download failed
	EvidenceFetchFailed EventType = "evidence_fetch_failed"
)

// Metadata keys understood by MetricsObserver
const (
	MetaStatus = "status"
	MetaMethod = "method"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event EvidenceEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event EvidenceEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event EvidenceEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
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

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case EvidenceAnalyzed:
		entry.Info("Evidence analyzed")
	case EvidenceFailed:
		entry.Error("Evidence analysis failed")
	case NeuralFallback:
		entry.Warn("Neural scorer unavailable, heuristic result used")
	case ClaimAnalyzed:
		entry.Info("Claim bundle analyzed")
	case EvidenceFetched:
		entry.Debug("Evidence fetched successfully")
	case EvidenceFetchFailed:
		entry.Error("Evidence fetch failed")
	default:
		entry.Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from pipeline events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	failedAnalyses      int64
	neuralFallbacks     int64
	claimsAnalyzed      int64
	fetches             int64
	failedFetches       int64
	totalProcessingTime time.Duration
	byStatus            map[string]int64
	byMethod            map[string]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		byStatus: make(map[string]int64),
		byMethod: make(map[string]int64),
	}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event EvidenceEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case EvidenceAnalyzed:
		o.totalAnalyses++
		o.totalProcessingTime += event.ProcessingTime
		if s, ok := event.Metadata[MetaStatus].(string); ok {
			o.byStatus[s]++
		}
		if m, ok := event.Metadata[MetaMethod].(string); ok {
			o.byMethod[m]++
		}
	case EvidenceFailed:
		o.failedAnalyses++
	case NeuralFallback:
		o.neuralFallbacks++
	case ClaimAnalyzed:
		o.claimsAnalyzed++
	case EvidenceFetched:
		o.fetches++
	case EvidenceFetchFailed:
		o.failedFetches++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns a snapshot of the counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.totalAnalyses > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.totalAnalyses)
	}

	return map[string]interface{}{
		"evidence_analyzed":     o.totalAnalyses,
		"evidence_failed":       o.failedAnalyses,
		"neural_fallbacks":      o.neuralFallbacks,
		"claims_analyzed":       o.claimsAnalyzed,
		"evidence_fetched":      o.fetches,
		"evidence_fetch_failed": o.failedFetches,
		"total_processing_time": o.totalProcessingTime.String(),
		"avg_processing_time":   avgProcessingTime.String(),
		"by_status":             copyCounts(o.byStatus),
		"by_method":             copyCounts(o.byMethod),
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event concurrently
func (p *EventPublisher) NotifyObservers(ctx context.Context, event EvidenceEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
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

// Wait blocks until every notification sent so far has been handled
func (p *EventPublisher) Wait() {
	p.wg.Wait()
}
