// Package directory stores the coherence state of the lines held by the
// memory cache.
package directory

import "log"

// Directory is a set-associative store of Entries.
type Directory struct {
	numSets      int
	numWays      int
	wordsPerLine int
	sets         [][]Entry
	victimFinder VictimFinder
}

// New creates an empty directory.
func New(numSets, numWays, wordsPerLine int, vf VictimFinder) *Directory {
	if numSets <= 0 || numWays <= 0 || wordsPerLine <= 0 {
		log.Panicf("invalid directory geometry %d sets x %d ways x %d words",
			numSets, numWays, wordsPerLine)
	}

	d := &Directory{
		numSets:      numSets,
		numWays:      numWays,
		wordsPerLine: wordsPerLine,
		victimFinder: vf,
	}
	d.Reset()

	return d
}

// NumSets returns the number of sets.
func (d *Directory) NumSets() int { return d.numSets }

// NumWays returns the number of ways.
func (d *Directory) NumWays() int { return d.numWays }

// WordsPerLine returns the number of 32-bit words in a line.
func (d *Directory) WordsPerLine() int { return d.wordsPerLine }

// LineBytes returns the size of a line in bytes.
func (d *Directory) LineBytes() uint64 { return uint64(d.wordsPerLine) * 4 }

// NLine returns the line number of an address.
func (d *Directory) NLine(addr uint64) uint64 {
	return addr / d.LineBytes()
}

// LineAddr returns the address of the first byte of a line.
func (d *Directory) LineAddr(nline uint64) uint64 {
	return nline * d.LineBytes()
}

// SetOf returns the set a line maps to.
func (d *Directory) SetOf(nline uint64) int {
	return int(nline % uint64(d.numSets))
}

// TagOf returns the tag of a line.
func (d *Directory) TagOf(nline uint64) uint64 {
	return nline / uint64(d.numSets)
}

// NLineOf rebuilds the line number from a set and a tag.
func (d *Directory) NLineOf(set int, tag uint64) uint64 {
	return tag*uint64(d.numSets) + uint64(set)
}

// WordIndex returns the index of the word addressed inside its line.
func (d *Directory) WordIndex(addr uint64) int {
	return int(addr%d.LineBytes()) / 4
}

// Read looks up the line holding the address. A miss is not an error.
func (d *Directory) Read(addr uint64) (Entry, int, bool) {
	return d.ReadLine(d.NLine(addr))
}

// ReadLine looks up a line by its line number.
func (d *Directory) ReadLine(nline uint64) (Entry, int, bool) {
	set := d.sets[d.SetOf(nline)]
	tag := d.TagOf(nline)

	for way, e := range set {
		if e.Valid && e.Tag == tag {
			return e, way, true
		}
	}

	return Entry{}, 0, false
}

// Get returns the entry at a position.
func (d *Directory) Get(set, way int) Entry {
	return d.sets[set][way]
}

// Write stores the entry at a position.
func (d *Directory) Write(set, way int, e Entry) {
	if !e.Valid {
		e = Entry{}
	}

	d.sets[set][way] = e
}

// Select chooses the way to replace in a set. It fails only when every way is
// locked.
func (d *Directory) Select(set int) (Entry, int, bool) {
	way, ok := d.victimFinder.FindVictim(set, d.sets[set])
	if !ok {
		return Entry{}, 0, false
	}

	return d.sets[set][way], way, true
}

// Visit records an access for recency-based victim finders.
func (d *Directory) Visit(set, way int) {
	d.victimFinder.Visit(set, way)
}

// Inval clears an entry.
func (d *Directory) Inval(set, way int) {
	d.sets[set][way] = Entry{}
}

// Reset clears every entry.
func (d *Directory) Reset() {
	d.sets = make([][]Entry, d.numSets)
	for i := range d.sets {
		d.sets[i] = make([]Entry, d.numWays)
	}
}

// ForEach calls f for each valid entry.
func (d *Directory) ForEach(f func(set, way int, e Entry)) {
	for s, ways := range d.sets {
		for w, e := range ways {
			if e.Valid {
				f(s, w, e)
			}
		}
	}
}
