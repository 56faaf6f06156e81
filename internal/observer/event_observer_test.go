package observer

import (
	"context"
	"testing"
	"time"
)

func TestMetricsObserver_Counts(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, EvidenceEvent{EventType: EvidenceAnalyzed, ProcessingTime: 2 * time.Second,
		Metadata: map[string]interface{}{MetaStatus: "GENUINE", MetaMethod: "NEURAL"}})
	m.OnEvent(ctx, EvidenceEvent{EventType: EvidenceAnalyzed, ProcessingTime: 4 * time.Second,
		Metadata: map[string]interface{}{MetaStatus: "FRAUD", MetaMethod: "HEURISTIC"}})
	m.OnEvent(ctx, EvidenceEvent{EventType: EvidenceAnalyzed,
		Metadata: map[string]interface{}{MetaStatus: "FRAUD", MetaMethod: "HEURISTIC"}})
	m.OnEvent(ctx, EvidenceEvent{EventType: EvidenceFailed})
	m.OnEvent(ctx, EvidenceEvent{EventType: NeuralFallback})
	m.OnEvent(ctx, EvidenceEvent{EventType: ClaimAnalyzed})

	metrics := m.GetMetrics()
	if metrics["evidence_analyzed"].(int64) != 3 {
		t.Errorf("Expected 3 analyses, got %v", metrics["evidence_analyzed"])
	}
	if metrics["evidence_failed"].(int64) != 1 || metrics["neural_fallbacks"].(int64) != 1 || metrics["claims_analyzed"].(int64) != 1 {
		t.Errorf("Unexpected counters %v", metrics)
	}
	if metrics["avg_processing_time"] != "2s" {
		t.Errorf("Expected average 2s, got %v", metrics["avg_processing_time"])
	}

	byStatus := metrics["by_status"].(map[string]int64)
	if byStatus["FRAUD"] != 2 || byStatus["GENUINE"] != 1 {
		t.Errorf("Unexpected status counts %v", byStatus)
	}
	byMethod := metrics["by_method"].(map[string]int64)
	if byMethod["HEURISTIC"] != 2 || byMethod["NEURAL"] != 1 {
		t.Errorf("Unexpected method counts %v", byMethod)
	}
}

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, EvidenceEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string               { return "panicking" }

func TestEventPublisher_NotifyAndUnsubscribe(t *testing.T) {
	p := NewEventPublisher()
	metrics := NewMetricsObserver()
	p.Subscribe(metrics)
	p.Subscribe(panickingObserver{})

	p.NotifyObservers(context.Background(), EvidenceEvent{EventType: EvidenceFetched})
	p.Wait()

	if got := metrics.GetMetrics()["evidence_fetched"].(int64); got != 1 {
		t.Errorf("Expected 1 fetch, got %d", got)
	}

	p.Unsubscribe(metrics)
	p.NotifyObservers(context.Background(), EvidenceEvent{EventType: EvidenceFetched})
	p.Wait()

	if got := metrics.GetMetrics()["evidence_fetched"].(int64); got != 1 {
		t.Errorf("Expected unsubscribed observer to miss events, got %d", got)
	}
}
