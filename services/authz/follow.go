package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services"
	"go.uber.org/zap"
)

// ActorDirectory resolves whether an actor id exists.
type ActorDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// FollowStore persists directed follow edges.
type FollowStore interface {
	// Add inserts follower->followee and reports whether a new edge was written.
	Add(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	// Remove deletes follower->followee and reports whether an edge existed.
	Remove(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	ListFollowing(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error)
}

// FollowObserver is notified, inside the mutation's transaction, when a
// new edge is created. Re-following an existing edge does not notify.
type FollowObserver interface {
	Followed(ctx context.Context, followerID, followeeID uuid.UUID) error
}

// TxRunner runs fn inside a transaction, handing it the tx-scoped context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// FollowGraph is the only writer of the follow relation.
type FollowGraph struct {
	actors   ActorDirectory
	store    FollowStore
	locker   Locker
	runTx    TxRunner
	observer FollowObserver
	logger   *zap.Logger
}

// FollowGraphOption configures optional FollowGraph collaborators.
type FollowGraphOption func(*FollowGraph)

// WithLocker replaces the default in-process edge locker.
func WithLocker(l Locker) FollowGraphOption {
	return func(g *FollowGraph) { g.locker = l }
}

// WithTransactions runs each mutation inside a transaction.
func WithTransactions(run TxRunner) FollowGraphOption {
	return func(g *FollowGraph) { g.runTx = run }
}

// WithObserver registers a FollowObserver.
func WithObserver(o FollowObserver) FollowGraphOption {
	return func(g *FollowGraph) { g.observer = o }
}

// NewFollowGraph creates a FollowGraph.
func NewFollowGraph(actors ActorDirectory, store FollowStore, logger *zap.Logger, opts ...FollowGraphOption) *FollowGraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &FollowGraph{
		actors: actors,
		store:  store,
		locker: NewLocalLocker(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Follow adds the edge actor->target. Following an already-followed actor
// succeeds without change.
func (g *FollowGraph) Follow(ctx context.Context, actor Actor, targetID uuid.UUID) error {
	if actor.ID == targetID {
		return services.ErrCannotFollowSelf
	}
	if err := g.requireActor(ctx, targetID); err != nil {
		return err
	}

	return g.mutate(ctx, actor.ID, targetID, func(ctx context.Context) error {
		created, err := g.store.Add(ctx, actor.ID, targetID)
		if errors.Is(err, repositories.ErrNotFound) {
			// target deleted after the existence check
			return services.ErrUserNotFound.WithDetail("user_id", targetID.String())
		}
		if err != nil {
			return services.WrapStorage("failed to add follow edge", err)
		}
		if !created {
			return nil
		}

		g.logger.Info("follow edge created",
			zap.String("follower_id", actor.ID.String()),
			zap.String("followee_id", targetID.String()),
		)
		if g.observer == nil {
			return nil
		}
		if err := g.observer.Followed(ctx, actor.ID, targetID); err != nil {
			return asStorage("failed to record follow notification", err)
		}
		return nil
	})
}

// Unfollow removes the edge actor->target. Removing an absent edge succeeds.
func (g *FollowGraph) Unfollow(ctx context.Context, actor Actor, targetID uuid.UUID) error {
	if actor.ID == targetID {
		return services.ErrCannotUnfollowSelf
	}
	if err := g.requireActor(ctx, targetID); err != nil {
		return err
	}

	return g.mutate(ctx, actor.ID, targetID, func(ctx context.Context) error {
		removed, err := g.store.Remove(ctx, actor.ID, targetID)
		if err != nil {
			return services.WrapStorage("failed to remove follow edge", err)
		}
		if removed {
			g.logger.Info("follow edge removed",
				zap.String("follower_id", actor.ID.String()),
				zap.String("followee_id", targetID.String()),
			)
		}
		return nil
	})
}

// IsFollowing reports whether the edge actor->other exists.
func (g *FollowGraph) IsFollowing(ctx context.Context, actorID, otherID uuid.UUID) (bool, error) {
	ok, err := g.store.Exists(ctx, actorID, otherID)
	if err != nil {
		return false, services.WrapStorage("failed to read follow edge", err)
	}
	return ok, nil
}

// FollowingSet returns every actor the given actor follows at call time.
func (g *FollowGraph) FollowingSet(ctx context.Context, actorID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := g.store.ListFollowing(ctx, actorID)
	if err != nil {
		return nil, services.WrapStorage("failed to list followed actors", err)
	}
	return ids, nil
}

func (g *FollowGraph) requireActor(ctx context.Context, id uuid.UUID) error {
	ok, err := g.actors.Exists(ctx, id)
	if err != nil {
		return services.WrapStorage("failed to resolve target actor", err)
	}
	if !ok {
		return services.ErrUserNotFound.WithDetail("user_id", id.String())
	}
	return nil
}

// mutate holds the edge lock for the whole write, including the transaction
// commit, so concurrent calls on one pair are applied one at a time.
func (g *FollowGraph) mutate(ctx context.Context, followerID, followeeID uuid.UUID, fn func(ctx context.Context) error) error {
	unlock, err := g.locker.Lock(ctx, edgeKey(followerID, followeeID))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return services.NewDomainError(services.ErrorTypeStorage, services.ErrLockTimeout.Message, err)
		}
		return services.WrapStorage("failed to acquire follow edge lock", err)
	}
	defer unlock()

	if g.runTx == nil {
		return fn(ctx)
	}
	if err := g.runTx(ctx, fn); err != nil {
		return asStorage("follow edge transaction failed", err)
	}
	return nil
}

func edgeKey(followerID, followeeID uuid.UUID) string {
	return "follow:" + followerID.String() + ":" + followeeID.String()
}

func asStorage(message string, err error) error {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return services.WrapStorage(message, err)
}
