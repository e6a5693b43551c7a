package wordlist

// Aggregator collects candidates in insertion order, keeping only the first
// occurrence of each.
type Aggregator struct {
	seen  map[string]struct{}
	items []string
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Add appends candidates not seen before and reports how many were new.
func (a *Aggregator) Add(candidates ...string) int {
	added := 0
	for _, c := range candidates {
		if _, ok := a.seen[c]; ok {
			continue
		}
		a.seen[c] = struct{}{}
		a.items = append(a.items, c)
		added++
	}
	return added
}

// Len returns the number of unique candidates.
func (a *Aggregator) Len() int { return len(a.items) }

// Candidates returns the unique candidates in first-occurrence order.
func (a *Aggregator) Candidates() []string {
	out := make([]string, len(a.items))
	copy(out, a.items)
	return out
}

// Aggregate concatenates the sequences in order and removes duplicates,
// keeping each candidate at its first position.
func Aggregate(seqs ...[]string) []string {
	a := NewAggregator()
	for _, seq := range seqs {
		a.Add(seq...)
	}
	return a.Candidates()
}
