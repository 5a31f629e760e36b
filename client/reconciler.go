package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Sean4E/PMHub2/realtime"
)

// MutationState tracks one pending local mutation through its lifecycle.
type MutationState int

const (
	StateApplied MutationState = iota
	StateConfirmed
	StateRolledBack
)

// Broadcast is a server event naming an entity, as received off the socket.
type Broadcast struct {
	Event realtime.EventKind
	Data  json.RawMessage
}

// MergeFunc folds a broadcast into the local view of an entity. It returns
// the entity's new serialized state and whether the entity still exists
// (false for deletes).
type MergeFunc func(entityID string, current json.RawMessage, b Broadcast) (json.RawMessage, bool)

type pendingMutation struct {
	snapshot json.RawMessage
	existed  bool
	queued   []Broadcast
}

// Reconciler keeps a client's local view of entities consistent while
// optimistic mutations are in flight. A mutation is applied locally first
// (Applied), then confirmed against the server's authoritative response or
// rolled back to an exact pre-mutation snapshot. Broadcasts that name an
// entity with an unresolved mutation are queued and replayed once the
// mutation resolves, so the eventual Confirmed state cannot clobber them.
type Reconciler struct {
	mu      sync.Mutex
	view    map[string]json.RawMessage
	pending map[string]*pendingMutation
	merge   MergeFunc
}

// NewReconciler builds a reconciler. merge may be nil, in which case a
// broadcast's payload replaces the entity wholesale.
func NewReconciler(merge MergeFunc) *Reconciler {
	if merge == nil {
		merge = func(_ string, _ json.RawMessage, b Broadcast) (json.RawMessage, bool) {
			return b.Data, true
		}
	}
	return &Reconciler{
		view:    make(map[string]json.RawMessage),
		pending: make(map[string]*pendingMutation),
		merge:   merge,
	}
}

// Get returns the entity's current local state.
func (r *Reconciler) Get(entityID string) (json.RawMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.view[entityID]
	return data, ok
}

// Pending reports whether the entity has an unresolved local mutation.
func (r *Reconciler) Pending(entityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[entityID]
	return ok
}

// Apply records a serializable snapshot of the entity and installs the
// optimistic state. One mutation per entity may be in flight at a time.
func (r *Reconciler) Apply(entityID string, optimistic interface{}) error {
	data, err := json.Marshal(optimistic)
	if err != nil {
		return fmt.Errorf("failed to serialize optimistic state: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[entityID]; ok {
		return fmt.Errorf("mutation already pending for entity %s", entityID)
	}

	snapshot, existed := r.view[entityID]
	r.pending[entityID] = &pendingMutation{snapshot: snapshot, existed: existed}
	r.view[entityID] = data
	return nil
}

// Confirm resolves the pending mutation with the server's authoritative
// state, then replays any broadcasts queued while it was in flight.
func (r *Reconciler) Confirm(entityID string, authoritative interface{}) error {
	data, err := json.Marshal(authoritative)
	if err != nil {
		return fmt.Errorf("failed to serialize authoritative state: %v", err)
	}

	r.mu.Lock()
	p, ok := r.pending[entityID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("no pending mutation for entity %s", entityID)
	}
	delete(r.pending, entityID)
	r.view[entityID] = data
	queued := p.queued
	r.mu.Unlock()

	r.replay(entityID, queued)
	return nil
}

// Rollback restores the exact pre-mutation snapshot, then replays queued
// broadcasts.
func (r *Reconciler) Rollback(entityID string) error {
	r.mu.Lock()
	p, ok := r.pending[entityID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("no pending mutation for entity %s", entityID)
	}
	delete(r.pending, entityID)
	if p.existed {
		r.view[entityID] = p.snapshot
	} else {
		delete(r.view, entityID)
	}
	queued := p.queued
	r.mu.Unlock()

	r.replay(entityID, queued)
	return nil
}

// Merge folds a broadcast into the local view. While the entity has an
// unresolved mutation the broadcast is queued instead of applied. The
// pending check and the merge happen under one lock acquisition so a
// mutation applied in between cannot be overwritten.
func (r *Reconciler) Merge(entityID string, b Broadcast) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[entityID]; ok {
		p.queued = append(p.queued, b)
		return
	}
	r.mergeLocked(entityID, b)
}

// mergeLocked applies one broadcast to the view. Callers hold r.mu; the
// merge func therefore must not call back into the reconciler.
func (r *Reconciler) mergeLocked(entityID string, b Broadcast) {
	next, exists := r.merge(entityID, r.view[entityID], b)
	if exists {
		r.view[entityID] = next
	} else {
		delete(r.view, entityID)
	}
}

func (r *Reconciler) replay(entityID string, queued []Broadcast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range queued {
		r.mergeLocked(entityID, b)
	}
}

// Mutate drives one optimistic mutation end to end: apply locally, run the
// persistence call, confirm with the server's authoritative result or roll
// back on failure. There is no timeout: resolution is driven solely by the
// persistence call's outcome.
func (r *Reconciler) Mutate(ctx context.Context, entityID string, optimistic interface{}, persist func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := r.Apply(entityID, optimistic); err != nil {
		return nil, err
	}

	authoritative, err := persist(ctx)
	if err != nil {
		if rbErr := r.Rollback(entityID); rbErr != nil {
			return nil, fmt.Errorf("persistence failed (%v) and rollback failed: %v", err, rbErr)
		}
		return nil, err
	}

	if err := r.Confirm(entityID, authoritative); err != nil {
		return nil, err
	}
	return authoritative, nil
}
