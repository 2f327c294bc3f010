package directory

import "github.com/sarchlab/soclib/mem/memcache/internal/copyset"

// An Entry is the coherence state of one line.
type Entry struct {
	Valid   bool
	Dirty   bool
	Tag     uint64
	Lock    bool
	IsCnt   bool
	DCopies copyset.CopySet
	ICopies copyset.CopySet
	Count   int
}

// AddCopy registers a sharer. The entry switches to counter mode when the
// number of sharers would exceed copiesLimit.
func (e *Entry) AddCopy(srcID int, instruction bool, copiesLimit int) {
	if e.IsCnt {
		e.Count++
		return
	}

	copies := &e.DCopies
	if instruction {
		copies = &e.ICopies
	}

	if copies.Has(srcID) {
		return
	}

	if e.Count+1 > copiesLimit {
		e.IsCnt = true
		e.DCopies = copyset.CopySet{}
		e.ICopies = copyset.CopySet{}
		e.Count++

		return
	}

	copies.Add(srcID)
	e.Count++
}

// RemoveCopy unregisters a sharer and tells if the sharer was counted. In
// counter mode every removal is counted until the count drops to zero, which
// brings the entry back to vector mode.
func (e *Entry) RemoveCopy(srcID int, instruction bool) bool {
	if e.IsCnt {
		if e.Count == 0 {
			return false
		}

		e.Count--
		if e.Count == 0 {
			e.IsCnt = false
		}

		return true
	}

	copies := &e.DCopies
	if instruction {
		copies = &e.ICopies
	}

	if !copies.Has(srcID) {
		return false
	}

	copies.Remove(srcID)
	e.Count--

	return true
}

// HasCopies tells if any cache may hold the line.
func (e Entry) HasCopies() bool {
	return e.Count > 0
}

// Consistent tells if the sharer count matches the copy vectors. It is always
// true in counter mode.
func (e Entry) Consistent() bool {
	if e.IsCnt {
		return true
	}

	return e.Count == e.DCopies.Count()+e.ICopies.Count()
}
