// Package atomictab keeps the LL/SC reservations of the requesters.
package atomictab

import "log"

type reservation struct {
	valid bool
	addr  uint64
}

// Table holds one reservation per requester.
type Table struct {
	lineBytes uint64
	entries   []reservation
}

// New creates a table for numRequesters requesters.
func New(numRequesters int, lineBytes uint64) *Table {
	if numRequesters <= 0 || lineBytes == 0 {
		log.Panicf("invalid atomic table %d requesters, %d bytes per line",
			numRequesters, lineBytes)
	}

	return &Table{
		lineBytes: lineBytes,
		entries:   make([]reservation, numRequesters),
	}
}

// Set records a reservation, replacing the previous one of the requester.
func (t *Table) Set(srcID int, addr uint64) {
	t.entries[srcID] = reservation{valid: true, addr: addr}
}

// IsAtomic tells if the requester holds a reservation on the address.
func (t *Table) IsAtomic(srcID int, addr uint64) bool {
	if srcID < 0 || srcID >= len(t.entries) {
		return false
	}

	r := t.entries[srcID]

	return r.valid && r.addr == addr
}

// Reservation returns the address reserved by a requester.
func (t *Table) Reservation(srcID int) (uint64, bool) {
	r := t.entries[srcID]
	return r.addr, r.valid
}

// Clear drops the reservation of a requester.
func (t *Table) Clear(srcID int) {
	if srcID < 0 || srcID >= len(t.entries) {
		return
	}

	t.entries[srcID] = reservation{}
}

// Reset drops every reservation on a line.
func (t *Table) Reset(nline uint64) {
	for i, r := range t.entries {
		if r.valid && r.addr/t.lineBytes == nline {
			t.entries[i] = reservation{}
		}
	}
}
