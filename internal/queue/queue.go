package queue

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/unclebandit/adpilot-backend/internal/model"
)

// TopicStatusEvents carries campaign status transitions for in-process
// listeners (audit logging, future websocket fan-out).
const TopicStatusEvents = "campaign_status_events"

// StatusEvent is published on every campaign status transition.
type StatusEvent struct {
	TenantID   string               `json:"tenant_id"`
	CampaignID string               `json:"campaign_id"`
	From       model.CampaignStatus `json:"from"`
	To         model.CampaignStatus `json:"to"`
	Detail     string               `json:"detail,omitempty"`
}

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process pub/sub queue with retry
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("⚠️ event handler failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("event permanently dropped after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartStatusEventSubscriber logs every campaign status transition. It is
// the audit counterpart of the state machine: every transition applied by
// the dispatcher or the lifecycle endpoints shows up here.
func StartStatusEventSubscriber(q Queue) {
	err := q.Subscribe(TopicStatusEvents, func(payload any) error {
		ev, ok := payload.(StatusEvent)
		if !ok {
			log.Println("⚠️ invalid status event payload type")
			return nil // no retry
		}
		if ev.Detail != "" {
			log.Printf("📣 campaign %s (tenant %s): %s -> %s (%s)\n", ev.CampaignID, ev.TenantID, ev.From, ev.To, ev.Detail)
		} else {
			log.Printf("📣 campaign %s (tenant %s): %s -> %s\n", ev.CampaignID, ev.TenantID, ev.From, ev.To)
		}
		return nil
	})
	if err != nil {
		log.Println("⚠️ failed to subscribe to status events:", err)
	}
}
