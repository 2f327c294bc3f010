package xram

import "sync"

// Storage holds the memory content as sparse words. Words never written read
// as zero.
type Storage struct {
	lock  sync.RWMutex
	words map[uint64]uint32
}

// NewStorage creates an empty storage.
func NewStorage() *Storage {
	return &Storage{words: make(map[uint64]uint32)}
}

// Read returns the word at a word-aligned address.
func (s *Storage) Read(addr uint64) uint32 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.words[addr&^3]
}

// Write sets the word at a word-aligned address.
func (s *Storage) Write(addr uint64, data uint32) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.words[addr&^3] = data
}

// ReadBurst returns n consecutive words starting at addr.
func (s *Storage) ReadBurst(addr uint64, n int) []uint32 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	data := make([]uint32, n)
	for i := range data {
		data[i] = s.words[(addr&^3)+uint64(4*i)]
	}

	return data
}

// WriteBurst stores consecutive words starting at addr.
func (s *Storage) WriteBurst(addr uint64, data []uint32) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i, d := range data {
		s.words[(addr&^3)+uint64(4*i)] = d
	}
}
