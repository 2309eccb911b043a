package storage

// Ledger records every path written during one run and the number of bytes
// written to it. Entries are only ever added.
type Ledger struct {
	order []string
	bytes map[string]int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{bytes: make(map[string]int)}
}

// Record stores n bytes for path. Recording the same path twice keeps its
// original position and replaces the count.
func (l *Ledger) Record(path string, n int) {
	if _, ok := l.bytes[path]; !ok {
		l.order = append(l.order, path)
	}
	l.bytes[path] = n
}

// Bytes returns the byte count recorded for path.
func (l *Ledger) Bytes(path string) (int, bool) {
	n, ok := l.bytes[path]
	return n, ok
}

// Len returns the number of recorded paths.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Paths returns the recorded paths in write order.
func (l *Ledger) Paths() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Total returns the sum of all recorded byte counts.
func (l *Ledger) Total() int {
	total := 0
	for _, n := range l.bytes {
		total += n
	}
	return total
}

// Map returns a copy of the path to byte count mapping.
func (l *Ledger) Map() map[string]int {
	out := make(map[string]int, len(l.bytes))
	for p, n := range l.bytes {
		out[p] = n
	}
	return out
}
