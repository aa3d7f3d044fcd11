package notes

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

type StoreMode string

const (
	StoreModeLocal  StoreMode = "local"
	StoreModeRemote StoreMode = "remote"
)

// RemoteRepo is the extra surface a remote adapter provides on top of the
// repository contract before it can become the active store.
type RemoteRepo interface {
	Repo
	Setup(ctx context.Context) error
	AccountStatus(ctx context.Context) AccountStatus
}

// Switchboard owns which adapter is currently active and mediates hot swap
// between the local and the remote store. Each swap produces a new Service
// instance - consumers must re-fetch the accessors after switching instead
// of caching the service reference.
type Switchboard struct {
	mutex    sync.RWMutex
	mode     StoreMode
	repo     Repo
	service  *Service
	newLocal func() (Repo, error)
	remote   RemoteRepo
}

// NewSwitchboard starts local-active on the given adapter. newLocal mints a
// fresh local adapter on every switch back to local; remote may be nil when
// no remote store is configured.
func NewSwitchboard(local Repo, newLocal func() (Repo, error), remote RemoteRepo) *Switchboard {
	return &Switchboard{
		mode:     StoreModeLocal,
		repo:     local,
		service:  NewService(local),
		newLocal: newLocal,
		remote:   remote,
	}
}

func (sb *Switchboard) Mode() StoreMode {
	sb.mutex.RLock()
	defer sb.mutex.RUnlock()
	return sb.mode
}

// Repo returns the currently active repository contract.
func (sb *Switchboard) Repo() Repo {
	sb.mutex.RLock()
	defer sb.mutex.RUnlock()
	return sb.repo
}

// Service returns the notes service wrapping the currently active adapter.
func (sb *Switchboard) Service() *Service {
	sb.mutex.RLock()
	defer sb.mutex.RUnlock()
	return sb.service
}

// UseRemote runs the remote adapter's setup and swaps it in on success. On
// failure the switchboard stays local-active - there is no partial switch.
// Idempotent when already remote-active.
func (sb *Switchboard) UseRemote(ctx context.Context) error {
	sb.mutex.Lock()
	defer sb.mutex.Unlock()

	if sb.mode == StoreModeRemote {
		return nil
	}
	if sb.remote == nil {
		return ErrRemoteNotConfigured
	}

	if err := sb.remote.Setup(ctx); err != nil {
		return fmt.Errorf("remote store setup: %w", err)
	}

	sb.closeActive()
	sb.repo = sb.remote
	sb.service = NewService(sb.remote)
	sb.mode = StoreModeRemote

	log.Debugf("notes store switched to remote")
	return nil
}

// UseLocal unconditionally rebinds a fresh local adapter - the local store
// needs no setup step. Fails only if the adapter cannot be constructed.
func (sb *Switchboard) UseLocal() error {
	sb.mutex.Lock()
	defer sb.mutex.Unlock()

	local, err := sb.newLocal()
	if err != nil {
		return fmt.Errorf("bind local store: %w", err)
	}

	if sb.mode == StoreModeLocal {
		sb.closeActive()
	}
	sb.repo = local
	sb.service = NewService(local)
	sb.mode = StoreModeLocal

	log.Debugf("notes store switched to local")
	return nil
}

// AccountStatus reports the remote account availability, or no-account when
// no remote store is configured at all.
func (sb *Switchboard) AccountStatus(ctx context.Context) AccountStatus {
	sb.mutex.RLock()
	remote := sb.remote
	sb.mutex.RUnlock()

	if remote == nil {
		return AccountStatusNoAccount
	}
	return remote.AccountStatus(ctx)
}

// closeActive tears down a replaced local adapter so its execution context
// does not linger. The remote adapter is injected and stays open - callers
// may switch back to it.
func (sb *Switchboard) closeActive() {
	if sb.repo == sb.remote {
		return
	}
	if closer, ok := sb.repo.(interface{ Close() }); ok {
		closer.Close()
	}
}
