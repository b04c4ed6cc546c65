package workout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memStructured struct {
	mu   sync.Mutex
	rows map[string]Workout

	insertErr      error
	markErr        error
	deleteXrefErr  error
	listErr        error
	beforeMarkSync func(id string)
}

func newMemStructured() *memStructured {
	return &memStructured{rows: map[string]Workout{}}
}

func (m *memStructured) Insert(_ context.Context, w Workout) (Workout, error) {
	if m.insertErr != nil {
		return Workout{}, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	m.rows[w.ID] = w
	return w, nil
}

func (m *memStructured) MarkSynced(_ context.Context, id string) error {
	if m.beforeMarkSync != nil {
		m.beforeMarkSync(id)
	}
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	w.SyncStatus = SyncSynced
	m.rows[id] = w
	return nil
}

func (m *memStructured) DeleteByID(_ context.Context, ownerID, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok || w.OwnerID != ownerID {
		return "", ErrNotFound
	}
	delete(m.rows, id)
	return w.XrefID, nil
}

func (m *memStructured) DeleteByXref(_ context.Context, ownerID, xref string) (int64, error) {
	if m.deleteXrefErr != nil {
		return 0, m.deleteXrefErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, w := range m.rows {
		if w.XrefID == xref && w.OwnerID == ownerID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memStructured) List(_ context.Context, f Filter) ([]Workout, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Workout
	for _, w := range m.rows {
		if w.OwnerID == f.OwnerID && inRange(w.ScheduledDate, f) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memStructured) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memLegacy struct {
	mu   sync.Mutex
	rows map[string]LegacyWorkout

	insertErr     error
	deleteIDErr   error
	deleteXrefErr error
	// failAfter makes the n+1th insert fail with insertErr.
	failAfter int
	inserts   int
}

func newMemLegacy() *memLegacy {
	return &memLegacy{rows: map[string]LegacyWorkout{}, failAfter: -1}
}

func (m *memLegacy) Insert(_ context.Context, w LegacyWorkout) (LegacyWorkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil && (m.failAfter < 0 || m.inserts >= m.failAfter) {
		return LegacyWorkout{}, m.insertErr
	}
	m.inserts++
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	m.rows[w.ID] = w
	return w, nil
}

func (m *memLegacy) DeleteByID(_ context.Context, ownerID, id string) (string, error) {
	if m.deleteIDErr != nil {
		return "", m.deleteIDErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok || w.OwnerID != ownerID {
		return "", ErrNotFound
	}
	delete(m.rows, id)
	return w.XrefID, nil
}

func (m *memLegacy) DeleteByXref(_ context.Context, ownerID, xref string) (int64, error) {
	if m.deleteXrefErr != nil {
		return 0, m.deleteXrefErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, w := range m.rows {
		if w.XrefID == xref && w.OwnerID == ownerID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memLegacy) List(_ context.Context, f Filter) ([]LegacyWorkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LegacyWorkout
	for _, w := range m.rows {
		if w.OwnerID == f.OwnerID && inRange(w.Date, f) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memLegacy) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func inRange(t time.Time, f Filter) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Before(f.To) {
		return false
	}
	return true
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]string
}

func (p *recordingPublisher) Broadcast(ownerID string, payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]string{}
	}
	p.events[ownerID] = append(p.events[ownerID], string(payload))
}
