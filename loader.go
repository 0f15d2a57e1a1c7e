package fixturearmy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KyberNetwork/logger"
)

// Loader builds the fixture once and hands the same result to every test.
//
// When the environment implements Snapshotter the chain state is snapshotted
// right after the first build, and every later Load reverts to it, so each
// test starts from freshly deployed contracts without redeploying them.
// Environments that can't snapshot get a new build on every Load.
type Loader struct {
	mu sync.Mutex

	builder *Builder

	result     *Result
	snapshotID string
}

// NewLoader creates a loader for the fixture deployed into env
func NewLoader(env Environment, opts ...Option) *Loader {
	return &Loader{
		builder: NewBuilder(env, opts...),
	}
}

// Load returns the fixture, reverting the environment to the state right
// after the fixture was first deployed. Failed builds are not cached.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshotter, canSnapshot := l.builder.env.(Snapshotter)

	if l.result != nil && canSnapshot {
		if err := snapshotter.Revert(ctx, l.snapshotID); err != nil {
			id := l.snapshotID
			// the snapshot is gone, the next load starts over
			l.result, l.snapshotID = nil, ""
			return nil, errors.Join(ErrFixtureRevert, fmt.Errorf("snapshot %s: %w", id, err))
		}
		// reverting consumes the snapshot
		id, err := snapshotter.Snapshot(ctx)
		if err != nil {
			l.result, l.snapshotID = nil, ""
			return nil, errors.Join(ErrFixtureSnapshot, err)
		}
		logger.WithFields(logger.Fields{
			"snapshot": id,
		}).Debug("fixture loader: reverted to fixture snapshot")
		l.snapshotID = id
		return l.result, nil
	}

	result, err := l.builder.BuildContext(ctx)
	if err != nil {
		return nil, err
	}

	if canSnapshot {
		id, err := snapshotter.Snapshot(ctx)
		if err != nil {
			return nil, errors.Join(ErrFixtureSnapshot, err)
		}
		logger.WithFields(logger.Fields{
			"snapshot": id,
		}).Debug("fixture loader: fixture snapshotted")
		l.result = result
		l.snapshotID = id
	}

	return result, nil
}

// Reset forgets the cached fixture, the next Load builds a new one
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.result = nil
	l.snapshotID = ""
}

// Cached reports whether a fixture snapshot is held
func (l *Loader) Cached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result != nil
}
