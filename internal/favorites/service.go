// Package favorites stores the places a user marked and keeps open views of
// those marks in sync.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/piratesdroid/travel-guide/internal/watch"
)

// ErrLoginRequired is returned when a signed-out user tries to change a favorite.
var ErrLoginRequired = errors.New("login required to manage favorites")

// Store persists favorites.
type Store interface {
	SetFavorite(ctx context.Context, uid, placeID string) error
	DeleteFavorite(ctx context.Context, uid, placeID string) error
	IsFavorite(ctx context.Context, uid, placeID string) (bool, error)
	ListFavorites(ctx context.Context, uid string) ([]string, error)
}

// Service changes favorites and notifies watchers of the changed key.
type Service struct {
	store Store

	mu      sync.Mutex
	watched map[string]*watch.Value[bool]
}

// NewService creates a service over store.
func NewService(store Store) *Service {
	return &Service{store: store, watched: make(map[string]*watch.Value[bool])}
}

func key(uid, placeID string) string { return uid + "/" + placeID }

// Set marks placeID as a favorite of uid.
func (s *Service) Set(ctx context.Context, uid, placeID string) error {
	if uid == "" {
		return ErrLoginRequired
	}
	if err := s.store.SetFavorite(ctx, uid, placeID); err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	s.publish(uid, placeID, true)
	return nil
}

// Remove clears the mark.
func (s *Service) Remove(ctx context.Context, uid, placeID string) error {
	if uid == "" {
		return ErrLoginRequired
	}
	if err := s.store.DeleteFavorite(ctx, uid, placeID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	s.publish(uid, placeID, false)
	return nil
}

// Toggle flips the mark and returns the new state.
func (s *Service) Toggle(ctx context.Context, uid, placeID string) (bool, error) {
	if uid == "" {
		return false, ErrLoginRequired
	}
	on, err := s.IsFavorite(ctx, uid, placeID)
	if err != nil {
		return false, err
	}
	if on {
		return false, s.Remove(ctx, uid, placeID)
	}
	return true, s.Set(ctx, uid, placeID)
}

// IsFavorite reports the stored state.
func (s *Service) IsFavorite(ctx context.Context, uid, placeID string) (bool, error) {
	if uid == "" {
		return false, nil
	}
	on, err := s.store.IsFavorite(ctx, uid, placeID)
	if err != nil {
		return false, fmt.Errorf("read favorite: %w", err)
	}
	return on, nil
}

// List returns the favorited place IDs of uid.
func (s *Service) List(ctx context.Context, uid string) ([]string, error) {
	if uid == "" {
		return nil, ErrLoginRequired
	}
	ids, err := s.store.ListFavorites(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return ids, nil
}

// Watch calls handler with the current state of the mark and again on every
// change made through this service, until unsubscribe is called.
func (s *Service) Watch(ctx context.Context, uid, placeID string, handler func(bool)) (unsubscribe func(), err error) {
	k := key(uid, placeID)

	s.mu.Lock()
	v, ok := s.watched[k]
	s.mu.Unlock()

	if !ok {
		on, err := s.IsFavorite(ctx, uid, placeID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if v, ok = s.watched[k]; !ok {
			v = watch.NewValue(on)
			s.watched[k] = v
		}
		s.mu.Unlock()
	}

	unsub := v.Subscribe(handler)
	return func() {
		unsub()
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.watched[k]; ok && cur == v && v.Subscribers() == 0 {
			delete(s.watched, k)
		}
	}, nil
}

func (s *Service) publish(uid, placeID string, on bool) {
	s.mu.Lock()
	v, ok := s.watched[key(uid, placeID)]
	s.mu.Unlock()
	if ok {
		v.Set(on)
	}
}
