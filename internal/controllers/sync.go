package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/amaumene/rankboard/internal/lists"
	"github.com/amaumene/rankboard/internal/metrics"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/sirupsen/logrus"
)

// SyncController reconciles a session's published lists with the remote store
type SyncController struct {
	store   *lists.Store
	remote  RemoteStore
	session SessionProvider
	pushes  *PushQueue
	logger  *logrus.Logger

	pullMu sync.Mutex
}

// NewSyncController creates a new sync controller
func NewSyncController(store *lists.Store, remoteStore RemoteStore, session SessionProvider, pushes *PushQueue, logger *logrus.Logger) *SyncController {
	return &SyncController{
		store:   store,
		remote:  remoteStore,
		session: session,
		pushes:  pushes,
		logger:  logger,
	}
}

// MergeResult summarizes one pull-and-merge
type MergeResult struct {
	Remote    int `json:"remote"`    // lists taken from the remote store
	LocalOnly int `json:"localOnly"` // local lists the remote does not know
	Pushed    int `json:"pushed"`    // local-only lists queued for creation
}

// MergeLists combines local and remote collections: every remote list wins over
// a local one with the same id, local lists unknown remotely are kept.
func MergeLists(local, remote []*models.List) []*models.List {
	remoteIDs := make(map[string]struct{}, len(remote))
	merged := make([]*models.List, 0, len(local)+len(remote))

	for _, list := range remote {
		remoteIDs[list.ID] = struct{}{}
		synced := list.Clone()
		synced.Kind = models.ListKindPublished
		synced.SyncStatus = models.SyncStatusSynced
		merged = append(merged, synced)
	}
	for _, list := range local {
		if _, ok := remoteIDs[list.ID]; ok {
			continue
		}
		merged = append(merged, list.Clone())
	}
	return merged
}

// PullAndMerge fetches the user's lists and merges them into the local store.
// A signed-out session gets ErrNotAuthenticated back. Pulls of one session
// run one at a time.
func (c *SyncController) PullAndMerge(ctx context.Context) (*MergeResult, error) {
	c.pullMu.Lock()
	defer c.pullMu.Unlock()

	userID := c.session.CurrentUserID()
	if userID == "" {
		metrics.SyncRuns.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil, ErrNotAuthenticated
	}

	log := c.logger.WithFields(logrus.Fields{
		"device": c.store.DeviceID(),
		"user":   userID,
	})

	remoteLists, err := c.remote.FetchLists(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			metrics.SyncRuns.WithLabelValues(metrics.OutcomeSkipped).Inc()
			return nil, ErrNotAuthenticated
		}
		metrics.SyncRuns.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to fetch remote lists: %w", err)
	}

	local := c.store.MergePublished(func(local []*models.List) []*models.List {
		return MergeLists(local, remoteLists)
	})

	result := &MergeResult{Remote: len(remoteLists)}
	remoteIDs := make(map[string]struct{}, len(remoteLists))
	for _, list := range remoteLists {
		remoteIDs[list.ID] = struct{}{}
	}

	for _, list := range local {
		if _, ok := remoteIDs[list.ID]; ok || list.IsDeleted() {
			continue
		}
		result.LocalOnly++
		switch list.SyncStatus {
		case models.SyncStatusSynced:
			// Removed on another device; kept locally, not recreated
			continue
		case models.SyncStatusPending:
			// Already queued
			continue
		}
		c.pushes.Enqueue(PushJob{Kind: PushCreate, ListID: list.ID, List: list})
		result.Pushed++
	}

	metrics.SyncRuns.WithLabelValues(metrics.OutcomeOK).Inc()
	log.WithFields(logrus.Fields{
		"remote":     result.Remote,
		"local_only": result.LocalOnly,
		"pushed":     result.Pushed,
	}).Info("Pulled and merged lists")

	return result, nil
}

// Status returns the replication state of a list
func (c *SyncController) Status(listID string) models.SyncStatus {
	return c.pushes.Status(listID)
}
