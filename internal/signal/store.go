package signal

import (
	"sync"
	"time"
)

// Record pairs a stored signal with its receipt time.
type Record struct {
	Signal     Signal    `json:"signal"`
	ReceivedAt time.Time `json:"received_at"`
}

// Store holds the most recently received signal per session. Ingestion is
// last-write-wins in emission order: a signal whose timestamp is older
// than the stored one for the same session is discarded, so a reordering
// transport cannot roll a session's state backwards.
//
// The store never clears a record on its own. If the push channel
// disconnects, the last-known signal stays available and staleness is
// implied by its age.
type Store struct {
	mu      sync.RWMutex
	latest  map[string]Record
	journal *Journal
	subs    map[int]chan Signal
	nextSub int
}

// NewStore returns an empty signal store.
func NewStore() *Store {
	return &Store{
		latest: make(map[string]Record),
		subs:   make(map[int]chan Signal),
	}
}

// AttachJournal loads previously journaled signals into the store and
// persists every subsequently accepted signal. Journaled records lose to
// any fresher signal already in memory.
func (s *Store) AttachJournal(j *Journal) error {
	restored, err := j.LoadAll()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.journal = j
	for _, rec := range restored {
		existing, ok := s.latest[rec.Signal.Session]
		if ok && !newerThan(rec.Signal, existing.Signal) {
			continue
		}
		s.latest[rec.Signal.Session] = rec
	}
	s.mu.Unlock()
	return nil
}

// Ingest validates and stores a signal. Returns true if the signal was
// accepted, false if it was rejected as invalid or discarded as stale.
// Accepted signals are fanned out to subscribers and journaled.
func (s *Store) Ingest(sig Signal) (bool, error) {
	if err := sig.Validate(); err != nil {
		return false, err
	}
	if sig.ID == "" {
		sig.ID = newID()
	}
	sig.ReceivedAt = time.Now()

	s.mu.Lock()
	existing, ok := s.latest[sig.Session]
	if ok && !newerThan(sig, existing.Signal) {
		s.mu.Unlock()
		return false, nil
	}
	rec := Record{Signal: sig, ReceivedAt: sig.ReceivedAt}
	s.latest[sig.Session] = rec
	journal := s.journal
	for _, ch := range s.subs {
		select {
		case ch <- sig:
		default:
			// Slow subscriber: drop rather than block ingestion.
		}
	}
	s.mu.Unlock()

	if journal != nil {
		if err := journal.Save(rec); err != nil {
			return true, err
		}
	}
	return true, nil
}

// newerThan reports whether a is strictly newer than b by emission
// timestamp. Equal timestamps count as newer so a re-emitted signal
// refreshes the record.
func newerThan(a, b Signal) bool {
	at, aok := a.Time()
	bt, bok := b.Time()
	if !aok || !bok {
		return true
	}
	return !at.Before(bt)
}

// Latest returns the most recent signal for a session, if any.
func (s *Store) Latest(session string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.latest[session]
	return rec, ok
}

// All returns the latest record for every session.
func (s *Store) All() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.latest))
	for k, v := range s.latest {
		out[k] = v
	}
	return out
}

// Forget drops the record for a session. Used when a session is killed
// and its name may be reused.
func (s *Store) Forget(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.latest, session)
}

// Subscribe returns a channel receiving every accepted signal and a
// cancel function. The channel is buffered; signals are dropped rather
// than blocking ingestion when a subscriber falls behind.
func (s *Store) Subscribe() (<-chan Signal, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Signal, 64)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
