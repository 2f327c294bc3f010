package ccagent

// lineCache is a fully associative private cache with FIFO replacement.
type lineCache struct {
	capacity int
	lines    map[uint64][]uint32
	order    []uint64
}

func newLineCache(capacity int) *lineCache {
	return &lineCache{
		capacity: capacity,
		lines:    make(map[uint64][]uint32),
	}
}

func (c *lineCache) get(nline uint64) ([]uint32, bool) {
	l, ok := c.lines[nline]
	return l, ok
}

func (c *lineCache) full() bool {
	return len(c.lines) >= c.capacity
}

// victim returns the oldest line.
func (c *lineCache) victim() uint64 {
	return c.order[0]
}

func (c *lineCache) install(nline uint64, data []uint32) {
	if _, ok := c.lines[nline]; !ok {
		c.order = append(c.order, nline)
	}

	c.lines[nline] = append([]uint32(nil), data...)
}

func (c *lineCache) drop(nline uint64) bool {
	if _, ok := c.lines[nline]; !ok {
		return false
	}

	delete(c.lines, nline)

	for i, n := range c.order {
		if n == nline {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	return true
}
