package reminder

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Sender is the operation the scheduler triggers.
type Sender interface {
	SendWeeklyReminder(ctx context.Context, email string) error
}

// Scheduler sends the weekly reminder on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	sender    Sender
	recipient string
}

// NewScheduler validates schedule (standard five-field cron syntax) and registers the job.
func NewScheduler(schedule, recipient string, sender Sender) (*Scheduler, error) {
	if recipient == "" {
		return nil, fmt.Errorf("reminder recipient is not configured")
	}
	s := &Scheduler{
		cron:      cron.New(),
		sender:    sender,
		recipient: recipient,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	if err := s.sender.SendWeeklyReminder(context.Background(), s.recipient); err != nil {
		log.Errorf("scheduled weekly reminder failed: %v", err)
		return
	}
	log.Infof("scheduled weekly reminder sent to %s", s.recipient)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warnf("reminder job still running at shutdown: %v", ctx.Err())
	}
}
