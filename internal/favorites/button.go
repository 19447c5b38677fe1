package favorites

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/piratesdroid/travel-guide/internal/auth"
	"github.com/piratesdroid/travel-guide/internal/watch"
)

// ButtonState is what the favorite button shows.
type ButtonState struct {
	SignedIn  bool `json:"signed_in"`
	Favorited bool `json:"favorited"`
}

// Button is the favorite control of one place page. It follows the signed-in
// user and the stored mark, and calls render whenever either changes.
type Button struct {
	svc     *Service
	placeID string
	render  func(ButtonState)
	log     *slog.Logger

	mu        sync.Mutex
	user      *auth.User
	favorited bool
	unsubFav  func()
	unsubUser func()
}

// NewButton wires the button to users and starts rendering.
func NewButton(ctx context.Context, svc *Service, placeID string, users *watch.Value[*auth.User], render func(ButtonState), log *slog.Logger) *Button {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Button{svc: svc, placeID: placeID, render: render, log: log}
	unsub := users.Subscribe(func(u *auth.User) { b.onUser(ctx, u) })

	b.mu.Lock()
	b.unsubUser = unsub
	b.mu.Unlock()
	return b
}

func (b *Button) onUser(ctx context.Context, u *auth.User) {
	b.mu.Lock()
	if b.unsubFav != nil {
		b.unsubFav()
		b.unsubFav = nil
	}
	b.user = u
	b.favorited = false
	b.mu.Unlock()

	if u == nil {
		b.emit()
		return
	}

	unsub, err := b.svc.Watch(ctx, u.ID, b.placeID, func(on bool) {
		b.mu.Lock()
		if b.user == nil || b.user.ID != u.ID {
			b.mu.Unlock()
			return
		}
		b.favorited = on
		b.mu.Unlock()
		b.emit()
	})
	if err != nil {
		b.log.Warn("watch favorite failed",
			slog.String("place_id", b.placeID),
			slog.String("uid", u.ID),
			slog.Any("err", err),
		)
		b.emit()
		return
	}

	b.mu.Lock()
	b.unsubFav = unsub
	b.mu.Unlock()
}

// State returns what the button currently shows.
func (b *Button) State() ButtonState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ButtonState{SignedIn: b.user != nil, Favorited: b.favorited}
}

// Click toggles the mark for the signed-in user.
func (b *Button) Click(ctx context.Context) error {
	b.mu.Lock()
	u := b.user
	b.mu.Unlock()
	if u == nil {
		return ErrLoginRequired
	}
	_, err := b.svc.Toggle(ctx, u.ID, b.placeID)
	return err
}

// Close stops following the user and the mark.
func (b *Button) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubUser != nil {
		b.unsubUser()
		b.unsubUser = nil
	}
	if b.unsubFav != nil {
		b.unsubFav()
		b.unsubFav = nil
	}
}

func (b *Button) emit() {
	if b.render != nil {
		b.render(b.State())
	}
}
