package analytics

// Ledger is an insertion-ordered map of accumulators. Touch inserts a fresh
// accumulator the first time a key is seen and returns the same pointer on
// every later call, so callers always mutate in place.
type Ledger[K comparable, V any] struct {
	index  map[K]int
	keys   []K
	values []*V
	init   func(K) *V
}

// NewLedger returns an empty ledger. init builds the zero-valued accumulator
// for a new key; when nil, new(V) is used.
func NewLedger[K comparable, V any](init func(K) *V) *Ledger[K, V] {
	if init == nil {
		init = func(K) *V { return new(V) }
	}
	return &Ledger[K, V]{
		index: make(map[K]int),
		init:  init,
	}
}

// Touch returns the accumulator for key, creating it if absent.
func (l *Ledger[K, V]) Touch(key K) *V {
	if i, ok := l.index[key]; ok {
		return l.values[i]
	}
	v := l.init(key)
	l.index[key] = len(l.keys)
	l.keys = append(l.keys, key)
	l.values = append(l.values, v)
	return v
}

// Len is the number of distinct keys touched.
func (l *Ledger[K, V]) Len() int {
	return len(l.keys)
}

// Each visits every entry in first-touch order.
func (l *Ledger[K, V]) Each(fn func(key K, value *V)) {
	for i, k := range l.keys {
		fn(k, l.values[i])
	}
}

// set is a string set that remembers nothing but membership.
type set map[string]struct{}

func (s set) add(v string) {
	s[v] = struct{}{}
}
