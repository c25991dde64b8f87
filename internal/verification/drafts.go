package verification

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"SanduqVerify/internal/core/domain"
	"SanduqVerify/internal/core/ports"
	"SanduqVerify/internal/shared/metrics"
)

// SnapshotSource hands the manager the current session snapshot plus
// the dirty flag at the moment a save fires. Supplied by the
// controller so the manager never touches the session directly.
type SnapshotSource func() (snap domain.DraftSnapshot, dirty bool)

// SavedCallback tells the controller a snapshot landed in the store so
// it can clear the dirty flag and stamp LastSavedAt.
type SavedCallback func(snap domain.DraftSnapshot)

// DraftPersistenceManager debounces autosaves and serializes every
// write to the draft store: at most one write is in flight, and when
// requests pile up only the newest data is written next. Save failures
// never surface to the caller; the dirty flag stays set and the next
// trigger retries.
type DraftPersistenceManager struct {
	mu      sync.Mutex
	log     zerolog.Logger
	store   ports.DraftStore
	bus     ports.EventBus
	metrics *metrics.Metrics
	collect SnapshotSource
	saved   SavedCallback
	delay   time.Duration
	ctx     context.Context

	timer    *time.Timer
	inFlight bool
	pending  *saveRequest
	closed   bool
}

type saveRequest struct {
	snap     domain.DraftSnapshot
	complete bool
	waiters  []chan error
}

// NewDraftPersistenceManager wires the manager. ctx bounds the lifetime
// of every store call; the controller cancels it on teardown.
func NewDraftPersistenceManager(
	ctx context.Context,
	store ports.DraftStore,
	bus ports.EventBus,
	collect SnapshotSource,
	saved SavedCallback,
	delay time.Duration,
	m *metrics.Metrics,
	baseLogger *zerolog.Logger,
) *DraftPersistenceManager {
	return &DraftPersistenceManager{
		log:     baseLogger.With().Str("component", "draft_manager").Logger(),
		store:   store,
		bus:     bus,
		metrics: m,
		collect: collect,
		saved:   saved,
		delay:   delay,
		ctx:     ctx,
	}
}

// ScheduleAutosave resets the debounce timer. Rapid successive calls
// coalesce into a single save when the quiet period elapses.
func (m *DraftPersistenceManager) ScheduleAutosave() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.delay, m.autosaveFire)
}

// SaveNow cancels any pending debounce timer and saves immediately,
// superseding it. The write is a no-op when the session is not dirty.
func (m *DraftPersistenceManager) SaveNow() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	m.saveIfDirty()
}

// Commit writes the given snapshot synchronously through the same
// serialized path as autosaves, so it can never race or reorder with
// them. When complete is set, the terminal submission marker is written
// alongside the snapshot. This backs the persistence phase of a step
// submission: the caller needs the outcome before committing session
// state.
func (m *DraftPersistenceManager) Commit(snap domain.DraftSnapshot, complete bool) error {
	done := make(chan error, 1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.enqueueLocked(&saveRequest{snap: snap, complete: complete, waiters: []chan error{done}})
	m.mu.Unlock()

	return <-done
}

// autosaveFire runs when the debounce timer elapses uninterrupted.
func (m *DraftPersistenceManager) autosaveFire() {
	m.saveIfDirty()
}

func (m *DraftPersistenceManager) saveIfDirty() {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}

	// collect takes the controller's lock; never call it under m.mu.
	snap, dirty := m.collect()
	if !dirty {
		m.metrics.ObserveDraftSave("skipped")
		return
	}

	m.mu.Lock()
	if !m.closed {
		m.enqueueLocked(&saveRequest{snap: snap})
	}
	m.mu.Unlock()
}

// enqueueLocked hands a request to the serialized writer. While a
// write is in flight the newest request parks in the single pending
// slot; waiters of a superseded request are answered by the write that
// carries the newer data.
func (m *DraftPersistenceManager) enqueueLocked(req *saveRequest) {
	if m.inFlight {
		if m.pending != nil {
			req.complete = req.complete || m.pending.complete
			req.waiters = append(m.pending.waiters, req.waiters...)
		}
		m.pending = req
		return
	}
	m.inFlight = true
	go m.writeLoop(req)
}

func (m *DraftPersistenceManager) writeLoop(req *saveRequest) {
	for {
		err := m.write(req)

		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()

		// Callbacks run before inFlight is released so a subsequent
		// write can never report its newer snapshot first.
		if err != nil {
			m.metrics.ObserveDraftSave("error")
			m.log.Warn().Err(err).Msg("Draft save failed; will retry on next trigger")
		} else {
			m.metrics.ObserveDraftSave("ok")
			if !closed {
				m.saved(req.snap)
				if m.bus != nil {
					_ = m.bus.Publish(m.ctx, ports.TopicDraftSaved, ports.DraftSavedEvent{
						SavedAt: req.snap.SavedAt.UnixMilli(),
					})
				}
			}
		}
		for _, w := range req.waiters {
			w <- err
		}

		m.mu.Lock()
		next := m.pending
		m.pending = nil
		if next == nil {
			m.inFlight = false
		}
		m.mu.Unlock()

		if next == nil {
			return
		}
		req = next
	}
}

// write performs one store write: form data, step index, autosave
// timestamp, and the terminal marker when the submission completed.
func (m *DraftPersistenceManager) write(req *saveRequest) error {
	payload, err := json.Marshal(req.snap.FormData)
	if err != nil {
		return err
	}
	if err := m.store.Put(m.ctx, ports.KeyVerificationData, string(payload)); err != nil {
		return err
	}
	if err := m.store.Put(m.ctx, ports.KeyCurrentStep, strconv.Itoa(req.snap.CurrentStep)); err != nil {
		return err
	}
	if err := m.store.Put(m.ctx, ports.KeyAutosaveTimestamp, strconv.FormatInt(req.snap.SavedAt.UnixMilli(), 10)); err != nil {
		return err
	}
	if req.complete {
		if err := m.store.Put(m.ctx, ports.KeySubmissionStatus, ports.SubmissionComplete); err != nil {
			return err
		}
	}
	return nil
}

// Restore reads the draft store and rebuilds the last snapshot. It
// returns nil when the draft is missing, corrupt, or its step index is
// out of bounds for the configured steps; restoration failures are
// never fatal and the caller starts a fresh session.
func (m *DraftPersistenceManager) Restore(stepCount int) *domain.DraftSnapshot {
	raw, ok, err := m.store.Get(m.ctx, ports.KeyVerificationData)
	if err != nil {
		m.metrics.ObserveDraftRestore("error")
		m.log.Warn().Err(err).Msg("Draft restore failed; starting fresh")
		return nil
	}
	if !ok {
		m.metrics.ObserveDraftRestore("empty")
		return nil
	}

	var formData map[string]string
	if err := json.Unmarshal([]byte(raw), &formData); err != nil {
		m.metrics.ObserveDraftRestore("corrupt")
		m.log.Warn().Err(err).Msg("Stored draft is corrupt; starting fresh")
		return nil
	}

	stepRaw, ok, err := m.store.Get(m.ctx, ports.KeyCurrentStep)
	if err != nil {
		m.metrics.ObserveDraftRestore("error")
		m.log.Warn().Err(err).Msg("Draft restore failed; starting fresh")
		return nil
	}
	step := 0
	if ok {
		step, err = strconv.Atoi(stepRaw)
		if err != nil {
			m.metrics.ObserveDraftRestore("corrupt")
			m.log.Warn().Err(err).Str("current_step", stepRaw).Msg("Stored step index is corrupt; starting fresh")
			return nil
		}
	}
	if step < 0 || step >= stepCount {
		m.metrics.ObserveDraftRestore("out_of_bounds")
		m.log.Warn().Int("current_step", step).Int("steps", stepCount).Msg("Stored step index is out of bounds; starting fresh")
		return nil
	}

	savedAt := time.Time{}
	if tsRaw, ok, err := m.store.Get(m.ctx, ports.KeyAutosaveTimestamp); err == nil && ok {
		if ms, err := strconv.ParseInt(tsRaw, 10, 64); err == nil {
			savedAt = time.UnixMilli(ms)
		}
	}

	m.metrics.ObserveDraftRestore("ok")
	return &domain.DraftSnapshot{FormData: formData, CurrentStep: step, SavedAt: savedAt}
}

// SubmissionComplete reports whether a previous session already
// submitted the terminal step.
func (m *DraftPersistenceManager) SubmissionComplete() bool {
	v, ok, err := m.store.Get(m.ctx, ports.KeySubmissionStatus)
	return err == nil && ok && v == ports.SubmissionComplete
}

// Close cancels the pending debounce timer and marks the manager dead.
// An in-flight write may still finish, but its completion no longer
// calls back into the controller.
func (m *DraftPersistenceManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
