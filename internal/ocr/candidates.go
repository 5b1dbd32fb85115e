package ocr

// Candidates walks a ranked provider list, yielding at most max identifiers.
// The zero value yields nothing.
type Candidates struct {
	ids  []string
	max  int
	next int
}

// NewCandidates bounds ids to max entries. A non-positive max means no bound.
func NewCandidates(ids []string, max int) *Candidates {
	if max <= 0 || max > len(ids) {
		max = len(ids)
	}
	return &Candidates{ids: ids, max: max}
}

// Next returns the next candidate in rank order, or false once the bound or
// the end of the list is reached.
func (c *Candidates) Next() (string, bool) {
	if c == nil || c.next >= c.max {
		return "", false
	}
	id := c.ids[c.next]
	c.next++
	return id, true
}

// Len is the number of candidates this iterator will yield in total.
func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return c.max
}
