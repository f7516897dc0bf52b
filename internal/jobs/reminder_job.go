package jobs

import (
	"context"
	"log"
	"time"

	"council/internal/services"
)

// ReminderJob nudges voters who have not cast a ballot once a proposal is
// close to its deadline. Each proposal is reminded at most once.
type ReminderJob struct {
	votingService *services.VotingService
	interval      time.Duration
	lead          time.Duration
	stopChan      chan struct{}
}

func NewReminderJob(votingService *services.VotingService, interval, lead time.Duration) *ReminderJob {
	return &ReminderJob{
		votingService: votingService,
		interval:      interval,
		lead:          lead,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the reminder loop. Blocks until Stop is called.
func (rj *ReminderJob) Start() {
	log.Printf("[ReminderJob] Starting vote reminder job (interval: %v, lead: %v)", rj.interval, rj.lead)

	ticker := time.NewTicker(rj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rj.sweep()
		case <-rj.stopChan:
			log.Println("[ReminderJob] Stopping vote reminder job")
			return
		}
	}
}

// Stop stops the reminder loop.
func (rj *ReminderJob) Stop() {
	close(rj.stopChan)
}

func (rj *ReminderJob) sweep() {
	ctx := context.Background()

	reminded, err := rj.votingService.RemindPending(ctx, rj.lead)
	if err != nil {
		log.Printf("[ReminderJob] Error sending reminders: %v", err)
		return
	}
	if reminded > 0 {
		log.Printf("[ReminderJob] Sent reminders for %d proposals", reminded)
	}
}
