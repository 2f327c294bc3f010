// Package upt implements the update table, which counts the coherence
// acknowledgements that a multicast update or an invalidate is waiting for.
package upt

import (
	"log"

	"github.com/sarchlab/soclib/mem/memcache/internal/copyset"
	"github.com/sarchlab/soclib/sim"
)

// RspKind tells which response is sent when an entry completes.
type RspKind int

// Response kinds.
const (
	RspNone RspKind = iota
	RspWrite
	RspSC
)

// AckKey identifies an acknowledger: a requester and the kind of cache (data
// or instruction) that holds the copy.
func AckKey(srcID int, instruction bool) int {
	k := srcID * 2
	if instruction {
		k++
	}

	return k
}

// KeySrcID returns the requester of an acknowledger key.
func KeySrcID(key int) int {
	return key / 2
}

// KeyInstruction tells if an acknowledger key names an instruction cache.
func KeyInstruction(key int) bool {
	return key%2 == 1
}

// An Entry is a coherence transaction waiting for acknowledgements. Tag
// changes every time the entry is reused so that late acknowledgements can be
// told apart.
type Entry struct {
	Valid    bool
	IsUpdate bool
	Brdcast  bool
	NeedRsp  bool

	SrcID, TrdID, PktID int

	NLine   uint64
	Count   int
	Pending copyset.CopySet
	Tag     uint64

	RspKind RspKind
	Src     sim.RemotePort
	ReqID   string
}

// SetArgs describes a new entry. Count is the number of members of Pending.
type SetArgs struct {
	IsUpdate bool
	Brdcast  bool
	NeedRsp  bool

	SrcID, TrdID, PktID int

	NLine   uint64
	Pending copyset.CopySet

	RspKind RspKind
	Src     sim.RemotePort
	ReqID   string
}

// Table is a fixed-size update table.
type Table struct {
	entries []Entry
	nextTag uint64
}

// New creates a table with depth entries.
func New(depth int) *Table {
	if depth <= 0 {
		log.Panicf("update table depth must be positive, got %d", depth)
	}

	return &Table{entries: make([]Entry, depth)}
}

// Depth returns the number of entries.
func (t *Table) Depth() int {
	return len(t.entries)
}

// IsFull tells if every entry is in use.
func (t *Table) IsFull() bool {
	for _, e := range t.entries {
		if !e.Valid {
			return false
		}
	}

	return true
}

// NumValid returns the number of entries in use.
func (t *Table) NumValid() int {
	n := 0

	for _, e := range t.entries {
		if e.Valid {
			n++
		}
	}

	return n
}

// Set allocates an entry. It returns false if the table is full.
func (t *Table) Set(args SetArgs) (int, bool) {
	for i, e := range t.entries {
		if e.Valid {
			continue
		}

		t.nextTag++
		t.entries[i] = Entry{
			Valid:    true,
			IsUpdate: args.IsUpdate,
			Brdcast:  args.Brdcast,
			NeedRsp:  args.NeedRsp,
			SrcID:    args.SrcID,
			TrdID:    args.TrdID,
			PktID:    args.PktID,
			NLine:    args.NLine,
			Count:    args.Pending.Count(),
			Pending:  args.Pending,
			Tag:      t.nextTag,
			RspKind:  args.RspKind,
			Src:      args.Src,
			ReqID:    args.ReqID,
		}

		return i, true
	}

	return 0, false
}

// Decrement removes an acknowledger from an entry. An acknowledger that is not
// pending is not counted. The remaining count is returned.
func (t *Table) Decrement(index, key int) (remaining int, counted bool) {
	e := &t.entries[index]

	if !e.Valid {
		log.Panicf("decrementing free update table entry %d", index)
	}

	if !e.Pending.Has(key) {
		return e.Count, false
	}

	e.Pending.Remove(key)
	e.Count--

	return e.Count, true
}

// Clear frees an entry.
func (t *Table) Clear(index int) {
	t.entries[index] = Entry{}
}

// Read returns an entry.
func (t *Table) Read(index int) Entry {
	return t.entries[index]
}

// Matches tells if an acknowledgement tagged with tag belongs to the current
// use of the entry.
func (t *Table) Matches(index int, tag uint64) bool {
	if index < 0 || index >= len(t.entries) {
		return false
	}

	e := t.entries[index]

	return e.Valid && e.Tag == tag
}

// SearchBrdcast finds the broadcast invalidate in flight for a line.
func (t *Table) SearchBrdcast(nline uint64) (int, bool) {
	for i, e := range t.entries {
		if e.Valid && e.Brdcast && e.NLine == nline {
			return i, true
		}
	}

	return 0, false
}

// SearchInval finds an invalidate in flight for a line.
func (t *Table) SearchInval(nline uint64) (int, bool) {
	for i, e := range t.entries {
		if e.Valid && !e.IsUpdate && e.NLine == nline {
			return i, true
		}
	}

	return 0, false
}

// SearchPending finds an entry of a line that waits for the acknowledger.
func (t *Table) SearchPending(nline uint64, key int) (int, bool) {
	for i, e := range t.entries {
		if e.Valid && e.NLine == nline && e.Pending.Has(key) {
			return i, true
		}
	}

	return 0, false
}
