// Package datastore holds the data of the lines cached by the memory cache.
package datastore

// Store is organized as sets of ways of lines of 32-bit words.
type Store struct {
	numSets, numWays, wordsPerLine int
	data                           []uint32
}

// New creates a zeroed store.
func New(numSets, numWays, wordsPerLine int) *Store {
	return &Store{
		numSets:      numSets,
		numWays:      numWays,
		wordsPerLine: wordsPerLine,
		data:         make([]uint32, numSets*numWays*wordsPerLine),
	}
}

func (s *Store) offset(set, way, word int) int {
	return (set*s.numWays+way)*s.wordsPerLine + word
}

// ReadWord returns one word.
func (s *Store) ReadWord(set, way, word int) uint32 {
	return s.data[s.offset(set, way, word)]
}

// ReadLine returns a copy of a line.
func (s *Store) ReadLine(set, way int) []uint32 {
	start := s.offset(set, way, 0)
	return append([]uint32(nil), s.data[start:start+s.wordsPerLine]...)
}

// WriteWord writes the bytes of data enabled by be.
func (s *Store) WriteWord(set, way, word int, data uint32, be uint8) {
	i := s.offset(set, way, word)
	mask := ByteMask(be)
	s.data[i] = s.data[i]&^mask | data&mask
}

// WriteLine replaces a line.
func (s *Store) WriteLine(set, way int, data []uint32) {
	copy(s.data[s.offset(set, way, 0):], data[:s.wordsPerLine])
}

// ByteMask expands a 4-bit byte enable.
func ByteMask(be uint8) uint32 {
	mask := uint32(0)

	for i := 0; i < 4; i++ {
		if be&(1<<i) != 0 {
			mask |= 0xff << (8 * i)
		}
	}

	return mask
}
