package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/rankboard/internal/lists"
	"github.com/amaumene/rankboard/internal/metrics"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/services/remote"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// ErrPushFailed wraps the last error of a push that ran out of retries
var ErrPushFailed = errors.New("push failed")

// PushKind is the remote operation a queued push performs
type PushKind string

const (
	PushCreate PushKind = "create"
	PushUpdate PushKind = "update"
	PushDelete PushKind = "delete"
)

// PushJob is one queued replication of a local change
type PushJob struct {
	Kind   PushKind
	ListID string
	List   *models.List     // for creates
	Patch  models.ListPatch // for updates
}

const pushQueueSize = 256

// PushQueue replicates one session's list changes to the remote store in the
// background. Callers never wait on it; progress is observable through Status.
type PushQueue struct {
	jobs    chan PushJob
	remote  RemoteStore
	session SessionProvider
	store   *lists.Store
	logger  *logrus.Logger

	maxRetries     int
	initialBackoff time.Duration

	mu     sync.Mutex
	status map[string]models.SyncStatus
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPushQueue creates the queue and starts its worker
func NewPushQueue(remoteStore RemoteStore, session SessionProvider, store *lists.Store, maxRetries int, initialBackoff time.Duration, logger *logrus.Logger) *PushQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &PushQueue{
		jobs:           make(chan PushJob, pushQueueSize),
		remote:         remoteStore,
		session:        session,
		store:          store,
		logger:         logger,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
		status:         make(map[string]models.SyncStatus),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue schedules a push without blocking
func (q *PushQueue) Enqueue(job PushJob) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.WithField("list", job.ListID).Warn("Push queue closed, change stays local")
		return
	}

	select {
	case q.jobs <- job:
		q.status[job.ListID] = models.SyncStatusPending
		q.store.SetSyncStatus(job.ListID, models.SyncStatusPending)
		metrics.PushQueueDepth.Inc()
	default:
		q.status[job.ListID] = models.SyncStatusFailed
		q.store.SetSyncStatus(job.ListID, models.SyncStatusFailed)
		q.logger.WithFields(logrus.Fields{
			"list": job.ListID,
			"kind": job.Kind,
		}).Error("Push queue full, dropping change")
	}
}

// Status returns the replication state of a list. The store is authoritative,
// since pulls mark lists synced there; the queue only remembers lists that
// have left the store.
func (q *PushQueue) Status(listID string) models.SyncStatus {
	if list, err := q.store.Get(listID); err == nil {
		if list.SyncStatus != "" {
			return list.SyncStatus
		}
		return models.SyncStatusLocalOnly
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if status, ok := q.status[listID]; ok {
		return status
	}
	return models.SyncStatusLocalOnly
}

func (q *PushQueue) setStatus(listID string, status models.SyncStatus) {
	q.mu.Lock()
	q.status[listID] = status
	q.mu.Unlock()
	q.store.SetSyncStatus(listID, status)
}

// Close stops accepting pushes and waits for the queued ones to finish
func (q *PushQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	<-q.done
	q.cancel()
}

func (q *PushQueue) run() {
	defer close(q.done)
	for job := range q.jobs {
		metrics.PushQueueDepth.Dec()
		q.process(job)
	}
}

func (q *PushQueue) process(job PushJob) {
	log := q.logger.WithFields(logrus.Fields{
		"list": job.ListID,
		"kind": job.Kind,
	})

	userID := q.session.CurrentUserID()
	if userID == "" {
		log.Debug("Session signed out, push skipped")
		metrics.PushAttempts.WithLabelValues(string(job.Kind), metrics.OutcomeSkipped).Inc()
		q.setStatus(job.ListID, models.SyncStatusLocalOnly)
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.initialBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(q.maxRetries)), q.ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := q.push(q.ctx, userID, job)
		switch {
		case err == nil:
			metrics.PushAttempts.WithLabelValues(string(job.Kind), metrics.OutcomeOK).Inc()
			return nil
		case errors.Is(err, ErrNotAuthenticated):
			metrics.PushAttempts.WithLabelValues(string(job.Kind), metrics.OutcomeSkipped).Inc()
			return backoff.Permanent(err)
		}
		metrics.PushAttempts.WithLabelValues(string(job.Kind), metrics.OutcomeError).Inc()
		log.WithError(err).WithField("attempt", attempt).Debug("Push attempt failed")
		return err
	}, policy)

	if errors.Is(err, ErrNotAuthenticated) {
		log.Debug("Remote refused an unauthenticated push, change stays local")
		q.setStatus(job.ListID, models.SyncStatusLocalOnly)
		return
	}
	if err != nil {
		err = fmt.Errorf("%w after %d attempts: %v", ErrPushFailed, attempt, err)
		log.WithError(err).Error("Giving up on push, local state kept")
		q.setStatus(job.ListID, models.SyncStatusFailed)
		return
	}

	log.WithField("attempts", attempt).Debug("Push completed")
	q.setStatus(job.ListID, models.SyncStatusSynced)
}

func (q *PushQueue) push(ctx context.Context, userID string, job PushJob) error {
	switch job.Kind {
	case PushCreate:
		return q.create(ctx, userID, job.List)

	case PushUpdate:
		err := q.remote.UpdateList(ctx, userID, job.ListID, job.Patch)
		if errors.Is(err, remote.ErrNotFound) {
			// Never reached the server; send the whole list instead
			list, getErr := q.store.Get(job.ListID)
			if getErr != nil {
				return backoff.Permanent(getErr)
			}
			return q.create(ctx, userID, list)
		}
		return err

	case PushDelete:
		err := q.remote.DeleteList(ctx, userID, job.ListID)
		if errors.Is(err, remote.ErrNotFound) {
			return nil
		}
		return err
	}
	return backoff.Permanent(fmt.Errorf("unknown push kind %q", job.Kind))
}

func (q *PushQueue) create(ctx context.Context, userID string, list *models.List) error {
	if list == nil {
		return backoff.Permanent(errors.New("create push without a list"))
	}
	created, err := q.remote.CreateList(ctx, userID, list)
	if err != nil {
		return err
	}
	if created != nil && created.ShareCode != nil &&
		(list.ShareCode == nil || *list.ShareCode != *created.ShareCode) {
		q.store.SetShareCode(list.ID, *created.ShareCode)
	}
	return nil
}
