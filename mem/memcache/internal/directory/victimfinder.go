package directory

// A VictimFinder decides which way of a set is replaced by an incoming line.
type VictimFinder interface {
	FindVictim(set int, ways []Entry) (way int, ok bool)
	Visit(set, way int)
}

// RoundRobinVictimFinder walks the ways of each set in turn.
type RoundRobinVictimFinder struct {
	next []int
}

// NewRoundRobinVictimFinder creates a round-robin finder for numSets sets.
func NewRoundRobinVictimFinder(numSets int) *RoundRobinVictimFinder {
	return &RoundRobinVictimFinder{next: make([]int, numSets)}
}

// FindVictim returns the first invalid unlocked way, otherwise the next
// unlocked way in round-robin order.
func (f *RoundRobinVictimFinder) FindVictim(set int, ways []Entry) (int, bool) {
	for i, e := range ways {
		if !e.Valid && !e.Lock {
			return i, true
		}
	}

	n := len(ways)
	for i := 0; i < n; i++ {
		way := (f.next[set] + i) % n
		if !ways[way].Lock {
			f.next[set] = (way + 1) % n
			return way, true
		}
	}

	return 0, false
}

// Visit does nothing.
func (f *RoundRobinVictimFinder) Visit(set, way int) {}

// LRUVictimFinder evicts the least recently used way.
type LRUVictimFinder struct {
	queues [][]int
}

// NewLRUVictimFinder creates an LRU finder.
func NewLRUVictimFinder(numSets, numWays int) *LRUVictimFinder {
	f := &LRUVictimFinder{queues: make([][]int, numSets)}

	for s := range f.queues {
		f.queues[s] = make([]int, numWays)
		for w := range f.queues[s] {
			f.queues[s][w] = w
		}
	}

	return f
}

// FindVictim returns an invalid unlocked way if there is one, otherwise the
// least recently used unlocked way.
func (f *LRUVictimFinder) FindVictim(set int, ways []Entry) (int, bool) {
	for _, way := range f.queues[set] {
		if !ways[way].Valid && !ways[way].Lock {
			return way, true
		}
	}

	for _, way := range f.queues[set] {
		if !ways[way].Lock {
			return way, true
		}
	}

	return 0, false
}

// Visit moves the way to the most recently used position.
func (f *LRUVictimFinder) Visit(set, way int) {
	q := f.queues[set]

	for i, w := range q {
		if w == way {
			copy(q[i:], q[i+1:])
			q[len(q)-1] = way

			return
		}
	}
}
