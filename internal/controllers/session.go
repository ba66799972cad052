package controllers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/lists"
	"github.com/amaumene/rankboard/internal/metrics"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/services/remote"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotAuthenticated is the defined result of remote calls made by a signed-out session
	ErrNotAuthenticated = remote.ErrNotAuthenticated

	// ErrMissingDevice is returned when a session is requested without a device id
	ErrMissingDevice = errors.New("device id is required")
)

// RemoteStore is the shared document store published lists replicate to
type RemoteStore interface {
	FetchLists(ctx context.Context, userID string) ([]*models.List, error)
	CreateList(ctx context.Context, userID string, list *models.List) (*models.List, error)
	UpdateList(ctx context.Context, userID, listID string, patch models.ListPatch) error
	DeleteList(ctx context.Context, userID, listID string) error
	FindByShareCode(ctx context.Context, code string) (*models.List, error)
	ShareCodeExists(ctx context.Context, code string) (bool, error)
}

// SessionProvider exposes the signed-in user, "" when signed out
type SessionProvider interface {
	CurrentUserID() string
}

// Session is one device's state: its list store, sync controller and push queue
type Session struct {
	DeviceID string
	Store    *lists.Store
	Sync     *SyncController
	Pushes   *PushQueue

	mu     sync.RWMutex
	userID string
}

// CurrentUserID returns the signed-in user
func (s *Session) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// SetUserID signs the session in ("" signs it out)
func (s *Session) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// onChange turns a local list mutation into a queued push
func (s *Session) onChange(change lists.Change) {
	if s.CurrentUserID() == "" {
		return
	}

	job := PushJob{ListID: change.ListID}
	switch change.Kind {
	case lists.ChangeCreated:
		job.Kind = PushCreate
		job.List = change.List
	case lists.ChangeUpdated:
		job.Kind = PushUpdate
		job.Patch = change.Patch
	case lists.ChangeDeleted:
		job.Kind = PushDelete
	default:
		return
	}
	s.Pushes.Enqueue(job)
}

// signInPullTimeout bounds the pull started when a session signs in
const signInPullTimeout = 30 * time.Second

// SessionManager creates sessions on first use and keeps them by device id
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	pulls    sync.WaitGroup

	cfg       *config.Config
	db        *models.Database
	remote    RemoteStore
	allocator *lists.ShareCodeAllocator
	logger    *logrus.Logger
}

// NewSessionManager creates a manager. db and remoteStore may be nil.
func NewSessionManager(cfg *config.Config, db *models.Database, remoteStore RemoteStore, logger *logrus.Logger) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		db:       db,
		remote:   remoteStore,
		logger:   logger,
	}
	m.allocator = lists.NewShareCodeAllocator(m, logger)
	return m
}

// Get returns the device's session, creating it if needed. A non-empty userID
// signs the session in.
func (m *SessionManager) Get(deviceID, userID string) (*Session, error) {
	if deviceID == "" {
		return nil, ErrMissingDevice
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[deviceID]
	if !ok {
		var err error
		session, err = m.newSession(deviceID)
		if err != nil {
			return nil, err
		}
		m.sessions[deviceID] = session
		metrics.Sessions.Inc()
	}

	if userID != "" && session.CurrentUserID() != userID {
		session.SetUserID(userID)
		m.logger.WithFields(logrus.Fields{
			"device": deviceID,
			"user":   userID,
		}).Info("Session signed in")
		if m.cfg.PullOnSignIn {
			m.pullInBackground(session)
		}
	}
	return session, nil
}

// pullInBackground merges the signed-in user's remote lists into the session
func (m *SessionManager) pullInBackground(session *Session) {
	m.pulls.Add(1)
	go func() {
		defer m.pulls.Done()

		ctx, cancel := context.WithTimeout(context.Background(), signInPullTimeout)
		defer cancel()

		if _, err := session.Sync.PullAndMerge(ctx); err != nil && !errors.Is(err, ErrNotAuthenticated) {
			m.logger.WithError(err).WithField("device", session.DeviceID).Warn("Sign-in pull failed")
		}
	}()
}

func (m *SessionManager) newSession(deviceID string) (*Session, error) {
	store, err := lists.NewStore(deviceID, m.db, m.allocator, m.cfg.MaxTempListItems, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", deviceID, err)
	}

	session := &Session{DeviceID: deviceID, Store: store}
	remoteStore := m.remote
	if remoteStore == nil {
		remoteStore = offlineRemote{}
	}
	session.Pushes = NewPushQueue(remoteStore, session, store, m.cfg.PushMaxRetries, m.cfg.PushInitialBackoff, m.logger)
	session.Sync = NewSyncController(store, remoteStore, session, session.Pushes, m.logger)
	store.Observe(session.onChange)

	m.logger.WithField("device", deviceID).Debug("Session created")
	return session, nil
}

// Sessions returns every live session ordered by device id
func (m *SessionManager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

// Close waits for sign-in pulls, then drains every session's push queue
func (m *SessionManager) Close() {
	m.pulls.Wait()
	for _, s := range m.Sessions() {
		s.Pushes.Close()
	}
}

// ShareCodeExists checks the local database, then the remote store
func (m *SessionManager) ShareCodeExists(ctx context.Context, code string) (bool, error) {
	if m.db != nil {
		_, err := m.db.FindListByShareCode(code)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return false, err
		}
	}
	if m.remote == nil {
		return false, nil
	}
	return m.remote.ShareCodeExists(ctx, code)
}

// FindShared looks a share code up in the session's own lists, then remotely.
// nil means no list carries the code.
func (m *SessionManager) FindShared(ctx context.Context, session *Session, code string) (*models.List, error) {
	if list := session.Store.FindByShareCode(code); list != nil {
		return list, nil
	}
	if m.remote == nil {
		return nil, nil
	}
	list, err := m.remote.FindByShareCode(ctx, code)
	if errors.Is(err, remote.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// offlineRemote stands in when no remote store is configured
type offlineRemote struct{}

func (offlineRemote) FetchLists(context.Context, string) ([]*models.List, error) {
	return nil, ErrNotAuthenticated
}

func (offlineRemote) CreateList(context.Context, string, *models.List) (*models.List, error) {
	return nil, ErrNotAuthenticated
}

func (offlineRemote) UpdateList(context.Context, string, string, models.ListPatch) error {
	return ErrNotAuthenticated
}

func (offlineRemote) DeleteList(context.Context, string, string) error {
	return ErrNotAuthenticated
}

func (offlineRemote) FindByShareCode(context.Context, string) (*models.List, error) {
	return nil, remote.ErrNotFound
}

func (offlineRemote) ShareCodeExists(context.Context, string) (bool, error) {
	return false, nil
}
