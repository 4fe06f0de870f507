package initseq

import "bytes"

// Declaration is a snapshot of one catalog entry: the placeholder as it was
// last declared, plus its payload once one has been injected.
type Declaration struct {
	Placeholder
	Payload []byte
	Filled  bool
}

type entry struct {
	decl    Placeholder
	payload []byte
	filled  bool
}

func (e *entry) snapshot() Declaration {
	return Declaration{
		Placeholder: e.decl,
		Payload:     bytes.Clone(e.payload),
		Filled:      e.filled,
	}
}

// catalog maps placeholder names to entries. Iteration follows the order in
// which names were first declared, so error reports are reproducible.
type catalog struct {
	index   map[string]*entry
	ordered []*entry
}

func newCatalog() *catalog {
	return &catalog{index: make(map[string]*entry)}
}

// declare records p. A later declaration of the same name replaces size and
// address and drops any payload, keeping the name's original slot.
func (c *catalog) declare(p Placeholder) (redeclared bool) {
	if e, ok := c.index[p.Name]; ok {
		*e = entry{decl: p}
		return true
	}
	e := &entry{decl: p}
	c.index[p.Name] = e
	c.ordered = append(c.ordered, e)
	return false
}

func (c *catalog) get(name string) (*entry, bool) {
	e, ok := c.index[name]
	return e, ok
}

func (c *catalog) firstUnfilled() (*entry, bool) {
	for _, e := range c.ordered {
		if !e.filled {
			return e, true
		}
	}
	return nil, false
}

func (c *catalog) len() int { return len(c.ordered) }
