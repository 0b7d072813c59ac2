// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

func (s *ChallengeService) StartExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every hour: expire challenges whose 45-day window has passed
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			expired, err := s.ExpireDue()
			if err != nil {
				log.Printf("[Scheduler] Expiry sweep failed: %v", err)
				return
			}
			if expired > 0 {
				log.Printf("⌛ Expired %d challenge(s)", expired)
			}
		}),
	)
}
