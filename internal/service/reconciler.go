package service

import (
	"log"
	"time"
)

// Reconciler periodically fails automation records whose dispatch never got
// a callback, so an in-flight record cannot block a campaign forever.
type Reconciler struct {
	Automation *AutomationService
	Interval   time.Duration
	Deadline   time.Duration
}

// Constructor
func NewReconciler(automation *AutomationService, interval, deadline time.Duration) *Reconciler {
	return &Reconciler{
		Automation: automation,
		Interval:   interval,
		Deadline:   deadline,
	}
}

// Start runs the reconciliation loop until stop is closed.
func (r *Reconciler) Start(stop <-chan struct{}) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := r.Automation.ReconcileStale(r.Deadline)
			if err != nil {
				log.Println("⚠️ reconciliation pass failed:", err)
				continue
			}
			if n > 0 {
				log.Printf("⏰ reconciled %d stale automation record(s)\n", n)
			}
		case <-stop:
			return
		}
	}
}
