// Package copyset provides a fixed-capacity set of requester IDs.
package copyset

import (
	"log"
	"math/bits"
)

// MaxMembers is the largest number of distinct IDs a CopySet can hold.
const MaxMembers = 256

const numWords = MaxMembers / 64

// A CopySet is a bit vector indexed by requester ID. The zero value is an empty
// set. CopySets are values: assigning one copies it.
type CopySet struct {
	words [numWords]uint64
}

func check(id int) {
	if id < 0 || id >= MaxMembers {
		log.Panicf("copy set member %d out of range", id)
	}
}

// Add inserts the ID.
func (s *CopySet) Add(id int) {
	check(id)
	s.words[id/64] |= 1 << (uint(id) % 64)
}

// Remove deletes the ID.
func (s *CopySet) Remove(id int) {
	check(id)
	s.words[id/64] &^= 1 << (uint(id) % 64)
}

// Has tells if the ID is in the set.
func (s CopySet) Has(id int) bool {
	check(id)
	return s.words[id/64]&(1<<(uint(id)%64)) != 0
}

// Count returns the number of members.
func (s CopySet) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}

	return n
}

// Empty tells if there is no member.
func (s CopySet) Empty() bool {
	return s == CopySet{}
}

// Members returns the IDs in increasing order.
func (s CopySet) Members() []int {
	var ids []int

	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			ids = append(ids, i*64+b)
			w &^= 1 << uint(b)
		}
	}

	return ids
}

// Union returns the members of both sets.
func (s CopySet) Union(o CopySet) CopySet {
	for i := range s.words {
		s.words[i] |= o.words[i]
	}

	return s
}

// Of builds a set from IDs.
func Of(ids ...int) CopySet {
	s := CopySet{}
	for _, id := range ids {
		s.Add(id)
	}

	return s
}
