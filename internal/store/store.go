package store

import (
	"fmt"
	"sort"

	"github.com/contestlog/qsocore/internal/opmodel"
	"github.com/contestlog/qsocore/internal/qso"
)

// Store is the authoritative in-memory collection of QSO records.
// The zero value is not usable; construct with New.
type Store struct {
	records map[qso.ID]qso.Record
	order   []qso.ID // live ids, kept sorted ascending: canonical order
	nextID  qso.ID
}

// New returns an empty store with its id counter at 0 (the first
// insert assigns id 1).
func New() *Store {
	return &Store{
		records: make(map[qso.ID]qso.Record),
	}
}

// NextID returns the id the next unpinned insert will be assigned,
// without consuming it.
func (s *Store) NextID() qso.ID {
	return s.nextID + 1
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return len(s.order)
}

// Get returns a deep copy of the live record with the given id.
func (s *Store) Get(id qso.ID) (qso.Record, bool) {
	rec, ok := s.records[id]
	if !ok {
		return qso.Record{}, false
	}
	return rec.Clone(), true
}

// IterCanonical calls fn once per live record in canonical (ascending
// id) order. Iteration stops early if fn returns false.
func (s *Store) IterCanonical(fn func(qso.Record) bool) {
	for _, id := range s.order {
		if !fn(s.records[id].Clone()) {
			return
		}
	}
}

// Records returns a snapshot slice of all live records in canonical order.
func (s *Store) Records() []qso.Record {
	out := make([]qso.Record, 0, len(s.order))
	s.IterCanonical(func(r qso.Record) bool {
		out = append(out, r)
		return true
	})
	return out
}

// RevertInsert fully undoes an Insert as if it had never been
// applied, restoring the id counter as well as removing the record.
// This differs from a normal compensating Delete (which intentionally
// leaves the counter advanced, since ids are never reused): it exists
// only for the runtime's queue-full rollback path, where the op never
// entered the journal and so never truly happened.
func (s *Store) RevertInsert(id qso.ID) {
	delete(s.records, id)
	s.removeSorted(id)
	if id == s.nextID {
		s.nextID--
	}
}

// Apply applies op to the store, returning the effect needed to
// derive its inverse. On failure, the store is left completely
// unchanged: apply failures are deterministic and never partially
// mutate state.
func (s *Store) Apply(op opmodel.Op) (Effect, error) {
	switch v := op.(type) {
	case opmodel.Insert:
		return s.applyInsert(v.Draft)
	case opmodel.Edit:
		return s.applyEdit(v.Patch)
	case opmodel.Delete:
		return s.applyDelete(v.ID)
	default:
		return Effect{}, fmt.Errorf("store: apply: unsupported op %T (undo/redo must be resolved before reaching the store)", op)
	}
}

func (s *Store) applyInsert(draft qso.Draft) (Effect, error) {
	var id qso.ID
	if draft.PinnedID != nil {
		id = *draft.PinnedID
		if _, exists := s.records[id]; exists {
			return Effect{}, &IDCollisionError{ID: id}
		}
	} else {
		id = s.nextID + 1
	}

	rec := draft.ToRecord(id)
	s.records[id] = rec
	s.insertSorted(id)

	if id > s.nextID {
		s.nextID = id
	}

	return Effect{InsertedID: id}, nil
}

func (s *Store) applyEdit(patch qso.Patch) (Effect, error) {
	rec, ok := s.records[patch.ID]
	if !ok {
		return Effect{}, &UnknownIDError{ID: patch.ID}
	}

	updated, prior := patch.ApplyTo(rec)
	s.records[patch.ID] = updated

	return Effect{PriorPatch: prior}, nil
}

func (s *Store) applyDelete(id qso.ID) (Effect, error) {
	rec, ok := s.records[id]
	if !ok {
		return Effect{}, &UnknownIDError{ID: id}
	}

	delete(s.records, id)
	s.removeSorted(id)

	return Effect{RemovedRecord: rec.Clone()}, nil
}

// insertSorted inserts id into the ascending-sorted order slice.
// Pinned inserts (undo-of-delete, replay) can reintroduce an id lower
// than the current maximum, so a plain append is not sufficient.
func (s *Store) insertSorted(id qso.ID) {
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= id })
	s.order = append(s.order, 0)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = id
}

func (s *Store) removeSorted(id qso.ID) {
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= id })
	if i < len(s.order) && s.order[i] == id {
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
}
