package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron            *cron.Cron
	sessions        *controllers.SessionManager
	matcher         *controllers.WatchedMatcher
	pullSchedule    string
	rematchSchedule string
	logger          *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.Config, sessions *controllers.SessionManager, matcher *controllers.WatchedMatcher, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		sessions:        sessions,
		matcher:         matcher,
		pullSchedule:    cfg.PullSchedule,
		rematchSchedule: cfg.RematchSchedule,
		logger:          logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Pull-and-merge for every signed-in session
	if _, err := s.cron.AddFunc(s.pullSchedule, s.RunPull); err != nil {
		return fmt.Errorf("failed to add pull job: %w", err)
	}

	// Retry watched entries that found no match yet
	if _, err := s.cron.AddFunc(s.rematchSchedule, s.RunRematch); err != nil {
		return fmt.Errorf("failed to add rematch job: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"pull":    s.pullSchedule,
		"rematch": s.rematchSchedule,
	}).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunPull executes the pull job once
func (s *Scheduler) RunPull() {
	ctx := context.Background()
	pulled := 0

	for _, session := range s.sessions.Sessions() {
		if session.CurrentUserID() == "" {
			continue
		}
		if _, err := session.Sync.PullAndMerge(ctx); err != nil {
			if errors.Is(err, controllers.ErrNotAuthenticated) {
				continue
			}
			s.logger.WithError(err).WithField("device", session.DeviceID).Error("Pull job failed")
			continue
		}
		pulled++
	}

	s.logger.WithField("sessions", pulled).Debug("Pull job completed")
}

// RunRematch executes the watched rematch job once
func (s *Scheduler) RunRematch() {
	ctx := context.Background()
	resolved := 0

	for _, session := range s.sessions.Sessions() {
		resolved += s.matcher.MatchPending(ctx, session.Store)
	}

	s.logger.WithField("resolved", resolved).Debug("Rematch job completed")
}
