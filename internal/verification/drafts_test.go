package verification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SanduqVerify/internal/core/domain"
	"SanduqVerify/internal/core/ports"
	"SanduqVerify/internal/shared/metrics"
)

// --- Fakes ---

// fakeStore is a controllable in-memory DraftStore: it counts writes,
// can fail on demand and can hold writes open on a gate channel.
type fakeStore struct {
	mu       sync.Mutex
	values   map[string]string
	puts     map[string]int
	failPuts error
	gate     chan struct{} // when set, Put blocks until the gate closes
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string), puts: make(map[string]int)}
}

func (s *fakeStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil && key == ports.KeyVerificationData {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPuts != nil {
		return s.failPuts
	}
	s.values[key] = value
	s.puts[key]++
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *fakeStore) writeCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[key]
}

func (s *fakeStore) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *fakeStore) setFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts = err
}

// sessionState stands in for the controller's session: it feeds the
// manager snapshots and records the saved callback.
type sessionState struct {
	mu    sync.Mutex
	snap  domain.DraftSnapshot
	dirty bool
}

func (h *sessionState) set(formData map[string]string, step int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap = domain.DraftSnapshot{FormData: formData, CurrentStep: step, SavedAt: time.Now()}
	h.dirty = true
}

func (h *sessionState) collect() (domain.DraftSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap, h.dirty
}

func (h *sessionState) saved(snap domain.DraftSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snap.Equal(snap) {
		h.dirty = false
	}
}

func (h *sessionState) isDirty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirty
}

func newTestDraftManager(t *testing.T, store ports.DraftStore, state *sessionState, delay time.Duration) *DraftPersistenceManager {
	t.Helper()
	nopLogger := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())
	mgr := NewDraftPersistenceManager(context.Background(), store, nil, state.collect, state.saved, delay, m, &nopLogger)
	t.Cleanup(mgr.Close)
	return mgr
}

// --- Tests ---

func TestScheduleAutosave_CoalescesRapidEdits(t *testing.T) {
	store := newFakeStore()
	state := &sessionState{}
	mgr := newTestDraftManager(t, store, state, 30*time.Millisecond)

	// Three rapid edits inside the debounce window.
	state.set(map[string]string{"firstName": "S"}, 0)
	mgr.ScheduleAutosave()
	state.set(map[string]string{"firstName": "Sa"}, 0)
	mgr.ScheduleAutosave()
	state.set(map[string]string{"firstName": "Sara"}, 0)
	mgr.ScheduleAutosave()

	require.Eventually(t, func() bool {
		return store.writeCount(ports.KeyVerificationData) > 0
	}, time.Second, 5*time.Millisecond)

	// Exactly one write, carrying the third edit's data.
	assert.Equal(t, 1, store.writeCount(ports.KeyVerificationData))
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(store.value(ports.KeyVerificationData)), &got))
	assert.Equal(t, "Sara", got["firstName"])
}

func TestAutosave_SkipsWhenClean(t *testing.T) {
	store := newFakeStore()
	state := &sessionState{}
	state.snap = domain.DraftSnapshot{FormData: map[string]string{}}
	mgr := newTestDraftManager(t, store, state, 10*time.Millisecond)

	mgr.ScheduleAutosave()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, store.writeCount(ports.KeyVerificationData))
}

func TestSaveNow_IdenticalDataWritesOnce(t *testing.T) {
	store := newFakeStore()
	state := &sessionState{}
	mgr := newTestDraftManager(t, store, state, time.Hour) // debounce never fires

	state.set(map[string]string{"city": "Tehran"}, 1)
	mgr.SaveNow()

	require.Eventually(t, func() bool { return !state.isDirty() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.writeCount(ports.KeyVerificationData))

	// Second save of identical data is a no-op: the dirty flag is down.
	mgr.SaveNow()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, store.writeCount(ports.KeyVerificationData))
}

func TestSaveFailure_IsSilentAndRetried(t *testing.T) {
	store := newFakeStore()
	store.setFailure(errors.New("disk full"))
	state := &sessionState{}
	mgr := newTestDraftManager(t, store, state, time.Hour)

	state.set(map[string]string{"city": "Tehran"}, 1)
	mgr.SaveNow()

	// The failure never surfaces and the state stays dirty.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, state.isDirty())
	assert.Equal(t, 0, store.writeCount(ports.KeyVerificationData))

	// The next trigger retries and succeeds.
	store.setFailure(nil)
	mgr.SaveNow()
	require.Eventually(t, func() bool { return !state.isDirty() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.writeCount(ports.KeyVerificationData))
}

func TestCommit_SurfacesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.setFailure(errors.New("connection reset"))
	state := &sessionState{}
	mgr := newTestDraftManager(t, store, state, time.Hour)

	err := mgr.Commit(domain.DraftSnapshot{FormData: map[string]string{"a": "b"}, SavedAt: time.Now()}, false)
	assert.Error(t, err)
}

func TestCommit_SupersedesInFlightAutosave(t *testing.T) {
	store := newFakeStore()
	gate := make(chan struct{})
	store.gate = gate
	state := &sessionState{}
	mgr := newTestDraftManager(t, store, state, 5*time.Millisecond)

	// Kick off an autosave that blocks inside the store.
	state.set(map[string]string{"v": "stale"}, 0)
	mgr.ScheduleAutosave()
	time.Sleep(30 * time.Millisecond) // let the debounce fire and the write park on the gate

	done := make(chan error, 1)
	go func() {
		done <- mgr.Commit(domain.DraftSnapshot{
			FormData:    map[string]string{"v": "fresh"},
			CurrentStep: 1,
			SavedAt:     time.Now(),
		}, false)
	}()

	time.Sleep(20 * time.Millisecond)
	store.mu.Lock()
	store.gate = nil
	store.mu.Unlock()
	close(gate)

	require.NoError(t, <-done)

	// The commit's data was written after the stale write, never before.
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(store.value(ports.KeyVerificationData)), &got))
	assert.Equal(t, "fresh", got["v"])
	assert.Equal(t, "1", store.value(ports.KeyCurrentStep))
}

func TestCommit_WritesTerminalMarker(t *testing.T) {
	store := newFakeStore()
	state := &sessionState{}
	mgr := newTestDraftManager(t, store, state, time.Hour)

	require.NoError(t, mgr.Commit(domain.DraftSnapshot{
		FormData:    map[string]string{"done": "yes"},
		CurrentStep: 4,
		SavedAt:     time.Now(),
	}, true))

	assert.Equal(t, ports.SubmissionComplete, store.value(ports.KeySubmissionStatus))
	assert.True(t, mgr.SubmissionComplete())
}

func TestRestore_RoundTrip(t *testing.T) {
	store := newFakeStore()
	state := &sessionState{}
	mgr := newTestDraftManager(t, store, state, time.Hour)

	saved := domain.DraftSnapshot{
		FormData:    map[string]string{"firstName": "Sara", "city": "Tehran"},
		CurrentStep: 2,
		SavedAt:     time.Now(),
	}
	require.NoError(t, mgr.Commit(saved, false))

	snap := mgr.Restore(5)
	require.NotNil(t, snap)
	assert.Equal(t, saved.FormData, snap.FormData)
	assert.Equal(t, 2, snap.CurrentStep)
}

func TestRestore_NeverFatal(t *testing.T) {
	state := &sessionState{}

	// 1. Missing draft.
	mgr := newTestDraftManager(t, newFakeStore(), state, time.Hour)
	assert.Nil(t, mgr.Restore(5))

	// 2. Corrupt payload.
	store := newFakeStore()
	store.values[ports.KeyVerificationData] = "{not json"
	mgr = newTestDraftManager(t, store, state, time.Hour)
	assert.Nil(t, mgr.Restore(5))

	// 3. Step index out of bounds for the configured steps.
	store = newFakeStore()
	payload, _ := json.Marshal(map[string]string{"firstName": "Sara"})
	store.values[ports.KeyVerificationData] = string(payload)
	store.values[ports.KeyCurrentStep] = "99"
	mgr = newTestDraftManager(t, store, state, time.Hour)
	assert.Nil(t, mgr.Restore(5))

	// 4. Unparseable step index.
	store.values[ports.KeyCurrentStep] = "two"
	mgr = newTestDraftManager(t, store, state, time.Hour)
	assert.Nil(t, mgr.Restore(5))
}

func TestClose_DropsPendingAutosave(t *testing.T) {
	store := newFakeStore()
	state := &sessionState{}
	mgr := newTestDraftManager(t, store, state, 20*time.Millisecond)

	state.set(map[string]string{"v": "1"}, 0)
	mgr.ScheduleAutosave()
	mgr.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, store.writeCount(ports.KeyVerificationData))
}
