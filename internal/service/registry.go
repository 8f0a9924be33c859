package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/events"
	"github.com/phrazzld/sciencepath/internal/store"
)

// Clock returns the current time.
type Clock func() time.Time

// Registry owns the list of learner profiles and the active-user pointer.
// It is not safe for concurrent use; Engine serialises access.
type Registry struct {
	store   *store.Adapter
	emitter events.Emitter
	now     Clock
	logger  *slog.Logger

	users    []domain.User
	activeID string
}

// NewRegistry creates an empty Registry. Call Reload to read persisted state.
func NewRegistry(st *store.Adapter, emitter events.Emitter, now Clock, logger *slog.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:   st,
		emitter: emitter,
		now:     now,
		logger:  logger.With(slog.String("component", "user_registry")),
		users:   []domain.User{},
	}
}

// Reload replaces the in-memory registry with the persisted one. Missing or
// malformed data loads as an empty registry. An active marker naming an
// unknown user is ignored.
func (r *Registry) Reload(ctx context.Context) {
	keys := r.store.Keys()

	users := store.GetJSON[[]domain.User](ctx, r.store, keys.Users()).Or(nil)
	if users == nil {
		users = []domain.User{}
	}
	r.users = users

	r.activeID = ""
	if id := store.GetJSON[string](ctx, r.store, keys.ActiveUser()).Or(""); id != "" {
		if r.indexOf(id) >= 0 {
			r.activeID = id
		} else {
			r.logger.WarnContext(ctx, "active user marker names unknown user", slog.String("user_id", id))
		}
	}

	r.logger.DebugContext(ctx, "registry loaded",
		slog.Int("user_count", len(r.users)),
		slog.String("active_user_id", r.activeID))
}

// AddUser creates a learner named name and persists the list.
func (r *Registry) AddUser(ctx context.Context, name string) (*domain.User, error) {
	user, err := domain.NewUser(name, r.now())
	if err != nil {
		return nil, err
	}

	r.users = append(r.users, *user)
	_ = r.store.SetJSON(ctx, r.store.Keys().Users(), r.users)

	r.logger.InfoContext(ctx, "user added", slog.String("user_id", user.ID))
	created := *user
	return &created, nil
}

// SelectUser makes id the active learner and refreshes its LastActive.
func (r *Registry) SelectUser(ctx context.Context, id string) error {
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}

	r.users[i].Touch(r.now())
	r.activeID = id

	ops, err := r.writeOps(r.users, id)
	if err == nil {
		_ = r.store.Apply(ctx, ops)
	}

	r.logger.InfoContext(ctx, "user selected", slog.String("user_id", id))
	r.emit(ctx, events.UserSelected, id)
	return nil
}

// DeleteUser removes id and its progress ledger in one atomic batch. An
// unknown id is a no-op. When the batch fails nothing changes and the error
// wraps domain.ErrStorage.
func (r *Registry) DeleteUser(ctx context.Context, id string) error {
	i := r.indexOf(id)
	if i < 0 {
		return nil
	}

	remaining := slices.Delete(slices.Clone(r.users), i, i+1)
	keys := r.store.Keys()

	data, err := json.Marshal(remaining)
	if err != nil {
		return NewServiceError("delete user", "failed to encode users", err)
	}
	ops := []store.Op{
		store.SetOp(keys.Users(), data),
		store.DeleteOp(keys.Progress(id)),
	}
	if r.activeID == id {
		ops = append(ops, store.DeleteOp(keys.ActiveUser()))
	}

	if err := r.store.Apply(ctx, ops); err != nil {
		r.logger.ErrorContext(ctx, "failed to delete user",
			slog.String("user_id", id),
			slog.String("error", err.Error()))
		return NewServiceError("delete user", "storage batch failed", err)
	}

	r.users = remaining
	if r.activeID == id {
		r.activeID = ""
	}

	r.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id))
	r.emit(ctx, events.UserDeleted, id)
	return nil
}

// Logout clears the active pointer and its marker. Profiles and ledgers
// are untouched.
func (r *Registry) Logout(ctx context.Context) {
	id := r.activeID
	if id == "" {
		return
	}
	r.activeID = ""
	_ = r.store.Remove(ctx, r.store.Keys().ActiveUser())

	r.logger.InfoContext(ctx, "user logged out", slog.String("user_id", id))
	r.emit(ctx, events.UserLoggedOut, id)
}

// CurrentUser returns the active learner.
func (r *Registry) CurrentUser() (domain.User, bool) {
	i := r.indexOf(r.activeID)
	if r.activeID == "" || i < 0 {
		return domain.User{}, false
	}
	return r.users[i], true
}

// CurrentID returns the active learner's id, or "".
func (r *Registry) CurrentID() string {
	return r.activeID
}

// Users returns a copy of every profile in creation order.
func (r *Registry) Users() []domain.User {
	return slices.Clone(r.users)
}

// User looks a profile up by id.
func (r *Registry) User(id string) (domain.User, bool) {
	i := r.indexOf(id)
	if i < 0 {
		return domain.User{}, false
	}
	return r.users[i], true
}

func (r *Registry) indexOf(id string) int {
	return slices.IndexFunc(r.users, func(u domain.User) bool { return u.ID == id })
}

func (r *Registry) writeOps(users []domain.User, activeID string) ([]store.Op, error) {
	keys := r.store.Keys()
	usersData, err := json.Marshal(users)
	if err != nil {
		return nil, err
	}
	activeData, err := json.Marshal(activeID)
	if err != nil {
		return nil, err
	}
	return []store.Op{
		store.SetOp(keys.Users(), usersData),
		store.SetOp(keys.ActiveUser(), activeData),
	}, nil
}

func (r *Registry) emit(ctx context.Context, eventType, userID string) {
	if err := events.Emit(ctx, r.emitter, eventType, events.UserPayload{UserID: userID}); err != nil {
		r.logger.ErrorContext(ctx, "failed to emit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
