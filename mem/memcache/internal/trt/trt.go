// Package trt implements the transaction table, which tracks the requests
// sent to the external memory.
package trt

import (
	"log"

	"github.com/sarchlab/soclib/sim"
)

// An Entry is an outstanding external memory transaction. A Read entry is a
// line fetch (GET), otherwise it is a line write-back (PUT).
type Entry struct {
	Valid bool
	Read  bool
	NLine uint64

	SrcID, TrdID, PktID int

	ProcRead    bool
	SingleWord  bool
	LL          bool
	Instruction bool
	WordIndex   int
	Length      int

	BE       []uint8
	Data     []uint32
	RspError bool

	Src   sim.RemotePort
	ReqID string
}

// SetArgs describes a new entry.
type SetArgs struct {
	Read  bool
	NLine uint64

	SrcID, TrdID, PktID int

	ProcRead    bool
	SingleWord  bool
	LL          bool
	Instruction bool
	WordIndex   int
	Length      int

	BE   []uint8
	Data []uint32

	Src   sim.RemotePort
	ReqID string
}

// Table is a fixed-size transaction table.
type Table struct {
	wordsPerLine int
	entries      []Entry
}

// New creates a table with depth entries for lines of wordsPerLine words.
func New(depth, wordsPerLine int) *Table {
	if depth <= 0 {
		log.Panicf("transaction table depth must be positive, got %d", depth)
	}

	return &Table{
		wordsPerLine: wordsPerLine,
		entries:      make([]Entry, depth),
	}
}

// Depth returns the number of entries.
func (t *Table) Depth() int {
	return len(t.entries)
}

// HitRead finds the fetch in flight for a line.
func (t *Table) HitRead(nline uint64) (bool, int) {
	for i, e := range t.entries {
		if e.Valid && e.Read && e.NLine == nline {
			return true, i
		}
	}

	return false, 0
}

// HitWrite tells if a write-back of the line is in flight.
func (t *Table) HitWrite(nline uint64) bool {
	for _, e := range t.entries {
		if e.Valid && !e.Read && e.NLine == nline {
			return true
		}
	}

	return false
}

// Full tells if there is no free entry. When there is one, its index is
// returned.
func (t *Table) Full() (bool, int) {
	for i, e := range t.entries {
		if !e.Valid {
			return false, i
		}
	}

	return true, 0
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

// Set fills an entry. Missing byte enables and data are zero.
func (t *Table) Set(index int, args SetArgs) {
	e := Entry{
		Valid:       true,
		Read:        args.Read,
		NLine:       args.NLine,
		SrcID:       args.SrcID,
		TrdID:       args.TrdID,
		PktID:       args.PktID,
		ProcRead:    args.ProcRead,
		SingleWord:  args.SingleWord,
		LL:          args.LL,
		Instruction: args.Instruction,
		WordIndex:   args.WordIndex,
		Length:      args.Length,
		BE:          make([]uint8, t.wordsPerLine),
		Data:        make([]uint32, t.wordsPerLine),
		Src:         args.Src,
		ReqID:       args.ReqID,
	}

	copy(e.BE, args.BE)
	copy(e.Data, args.Data)

	t.entries[index] = e
}

// WriteDataMask merges a write into an entry. Bytes enabled by be overwrite
// the entry, the others are kept.
func (t *Table) WriteDataMask(index int, be []uint8, data []uint32) {
	e := &t.entries[index]
	t.mustBeValid(index)

	for i := 0; i < t.wordsPerLine && i < len(be); i++ {
		mask := byteMask(be[i])
		e.Data[i] = e.Data[i]&^mask | data[i]&mask
		e.BE[i] |= be[i]
	}
}

// WriteRsp stores one word coming from the external memory. Bytes already
// written by the processor are kept.
func (t *Table) WriteRsp(index, word int, data uint32, rspErr bool) {
	e := &t.entries[index]
	t.mustBeValid(index)

	mask := byteMask(e.BE[word])
	e.Data[word] = e.Data[word]&mask | data&^mask
	e.RspError = e.RspError || rspErr
}

// Read returns a copy of an entry.
func (t *Table) Read(index int) Entry {
	e := t.entries[index]
	e.BE = append([]uint8(nil), e.BE...)
	e.Data = append([]uint32(nil), e.Data...)

	return e
}

// Erase frees an entry.
func (t *Table) Erase(index int) {
	t.entries[index] = Entry{}
}

// Reset frees every entry.
func (t *Table) Reset() {
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
}

func (t *Table) mustBeValid(index int) {
	if !t.entries[index].Valid {
		log.Panicf("transaction table entry %d is not valid", index)
	}
}

func byteMask(be uint8) uint32 {
	mask := uint32(0)

	for i := 0; i < 4; i++ {
		if be&(1<<i) != 0 {
			mask |= 0xff << (8 * i)
		}
	}

	return mask
}
