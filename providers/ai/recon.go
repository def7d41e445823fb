package ai

import (
	"sort"
	"strings"
)

/*
	GENERIC STREAM RECONSTRUCTION

	Every streaming provider delivers the same abstract thing under
	different field names: ordered deltas addressed to indexed content
	blocks, plus latest-wins top-level metadata. The two helpers here
	implement the shared folding logic once:

	  - BlockAccumulator: indexed content blocks built by append-only
	    concatenation of deltas, emitted in ascending index order.
	  - PartCoalescer: reasoning summaries delivered as discrete indexed
	    parts, where an explicit "done" value for a part beats its
	    accumulated deltas.

	Adapters own the wire decoding and feed these helpers; they never
	re-implement the ordering or concatenation rules.
*/

// Block accumulates one content block's deltas. Text and reasoning fragments
// are appended in arrival order, never replaced or reordered. Scalar
// attributes (signatures, partial tool-call JSON) are tracked separately.
type Block struct {
	Kind      string
	text      strings.Builder
	reasoning strings.Builder
	attrs     map[string]string
}

// AppendText concatenates a text delta onto the block.
func (b *Block) AppendText(delta string) {
	b.text.WriteString(delta)
}

// AppendReasoning concatenates a reasoning/thinking delta onto the block.
func (b *Block) AppendReasoning(delta string) {
	b.reasoning.WriteString(delta)
}

// SetAttr records a latest-wins scalar attribute.
func (b *Block) SetAttr(key, value string) {
	if b.attrs == nil {
		b.attrs = make(map[string]string)
	}
	b.attrs[key] = value
}

// AppendAttr concatenates onto an accumulating attribute (e.g. incremental
// tool-input JSON).
func (b *Block) AppendAttr(key, delta string) {
	if b.attrs == nil {
		b.attrs = make(map[string]string)
	}
	b.attrs[key] += delta
}

// Text returns the block's concatenated text.
func (b *Block) Text() string { return b.text.String() }

// Reasoning returns the block's concatenated reasoning text.
func (b *Block) Reasoning() string { return b.reasoning.String() }

// Attr returns a recorded attribute, empty when unset.
func (b *Block) Attr(key string) string { return b.attrs[key] }

// IndexedBlock pairs a block with its wire index for ordered emission.
type IndexedBlock struct {
	Index int
	*Block
}

// BlockAccumulator maps content-block indices to their accumulators.
// Indices may arrive in any order; Ordered always emits ascending.
type BlockAccumulator struct {
	blocks map[int]*Block
}

// NewBlockAccumulator returns an empty accumulator.
func NewBlockAccumulator() *BlockAccumulator {
	return &BlockAccumulator{blocks: make(map[int]*Block)}
}

// Start registers a block at index with its declared kind, replacing any
// placeholder created earlier by a delta that raced ahead of its start event.
func (a *BlockAccumulator) Start(index int, kind string) *Block {
	block, ok := a.blocks[index]
	if !ok {
		block = &Block{}
		a.blocks[index] = block
	}
	block.Kind = kind
	return block
}

// Block returns the accumulator at index, creating one with the given kind
// when a delta arrives for an index that never had a start event.
func (a *BlockAccumulator) Block(index int, kind string) *Block {
	block, ok := a.blocks[index]
	if !ok {
		block = &Block{Kind: kind}
		a.blocks[index] = block
	}
	return block
}

// Len returns the number of registered blocks.
func (a *BlockAccumulator) Len() int { return len(a.blocks) }

// Ordered returns the blocks sorted by ascending index. Each block appears
// exactly once with its full concatenated content.
func (a *BlockAccumulator) Ordered() []IndexedBlock {
	indices := make([]int, 0, len(a.blocks))
	for index := range a.blocks {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	ordered := make([]IndexedBlock, 0, len(indices))
	for _, index := range indices {
		ordered = append(ordered, IndexedBlock{Index: index, Block: a.blocks[index]})
	}
	return ordered
}

// donePart records an authoritative "done" value for a summary part. A nil
// index means the wire omitted the part index on the done event.
type donePart struct {
	index *int
	text  string
}

// PartCoalescer merges reasoning summaries that arrive as discrete indexed
// parts. Each part may produce raw deltas, an authoritative done value, or
// both; the done value wins when present, and deltas only fill in for parts
// whose done value never arrived.
type PartCoalescer struct {
	deltas map[int][]string
	done   []donePart
}

// NewPartCoalescer returns an empty coalescer.
func NewPartCoalescer() *PartCoalescer {
	return &PartCoalescer{deltas: make(map[int][]string)}
}

// AppendDelta records a raw delta for the part at index.
func (c *PartCoalescer) AppendDelta(index int, delta string) {
	c.deltas[index] = append(c.deltas[index], delta)
}

// MarkDone records the authoritative final text for the part at index, in
// done-arrival order.
func (c *PartCoalescer) MarkDone(index int, text string) {
	c.done = append(c.done, donePart{index: &index, text: text})
}

// MarkDoneUnindexed records a done value whose part index was absent from
// the wire. Its text is used verbatim; no delta fallback is possible.
func (c *PartCoalescer) MarkDoneUnindexed(text string) {
	c.done = append(c.done, donePart{text: text})
}

// Empty reports whether the coalescer saw no parts at all.
func (c *PartCoalescer) Empty() bool {
	return len(c.done) == 0 && len(c.deltas) == 0
}

// Parts returns the coalesced part texts: done values first in done-arrival
// order (falling back to that part's accumulated deltas when the done text
// was empty), then any parts that only ever produced deltas, in ascending
// part-index order.
func (c *PartCoalescer) Parts() []string {
	var parts []string
	used := make(map[int]bool)

	for _, done := range c.done {
		if done.text != "" {
			parts = append(parts, done.text)
			if done.index != nil {
				used[*done.index] = true
			}
			continue
		}
		if done.index != nil {
			if deltas := c.deltas[*done.index]; len(deltas) > 0 {
				parts = append(parts, strings.Join(deltas, ""))
				used[*done.index] = true
			}
		}
	}

	leftover := make([]int, 0, len(c.deltas))
	for index := range c.deltas {
		if !used[index] {
			leftover = append(leftover, index)
		}
	}
	sort.Ints(leftover)
	for _, index := range leftover {
		if deltas := c.deltas[index]; len(deltas) > 0 {
			parts = append(parts, strings.Join(deltas, ""))
		}
	}

	return parts
}

// Join returns the coalesced parts joined with sep, empty when no part
// produced any text.
func (c *PartCoalescer) Join(sep string) string {
	return strings.Join(c.Parts(), sep)
}
