package jobs

import (
	"context"
	"log"
	"time"

	"council/internal/services"
)

// ExpiryJob periodically forces a terminal transition on Active proposals
// whose deadline has passed. The sweep is re-entrant: the listing query only
// returns still-Active rows and the status update is conditional, so running
// it twice never double-transitions a proposal.
type ExpiryJob struct {
	votingService *services.VotingService
	interval      time.Duration
	stopChan      chan struct{}
}

func NewExpiryJob(votingService *services.VotingService, interval time.Duration) *ExpiryJob {
	return &ExpiryJob{
		votingService: votingService,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the expiry loop. Blocks until Stop is called.
func (ej *ExpiryJob) Start() {
	log.Printf("[ExpiryJob] Starting proposal expiry job (interval: %v)", ej.interval)

	ticker := time.NewTicker(ej.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ej.sweep()
		case <-ej.stopChan:
			log.Println("[ExpiryJob] Stopping proposal expiry job")
			return
		}
	}
}

// Stop stops the expiry loop.
func (ej *ExpiryJob) Stop() {
	close(ej.stopChan)
}

func (ej *ExpiryJob) sweep() {
	ctx := context.Background()

	expired, err := ej.votingService.ExpireOverdue(ctx)
	if err != nil {
		log.Printf("[ExpiryJob] Error expiring proposals: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("[ExpiryJob] Transitioned %d overdue proposals", expired)
	}
}
