package day

import "github.com/sadopc/focusring/internal/errs"

// Snapshot is the full set of blocks of one date, indexed by slot.
type Snapshot struct {
	Date   string
	Blocks []Block
}

// EmptySnapshot returns 80 unfilled blocks for date.
func EmptySnapshot(date string) Snapshot {
	blocks := make([]Block, SlotsPerDay)
	for i := range blocks {
		blocks[i] = EmptyBlock(date, i)
	}
	return Snapshot{Date: date, Blocks: blocks}
}

// NewSnapshot places the given blocks into an otherwise empty day. Blocks
// for other dates or out-of-range slots are rejected.
func NewSnapshot(date string, blocks []Block) (Snapshot, error) {
	s := EmptySnapshot(date)
	for _, b := range blocks {
		if err := ValidateSlot(b.Slot); err != nil {
			return Snapshot{}, err
		}
		if b.Date != "" && b.Date != date {
			return Snapshot{}, errs.Errorf("build snapshot", errs.InvalidArgument, "block for %s in snapshot of %s", b.Date, date)
		}
		b.Date = date
		b.StartTime = StartTime(b.Slot)
		s.Blocks[b.Slot] = b
	}
	return s, nil
}

// Block returns the block at slot.
func (s Snapshot) Block(slot int) (Block, error) {
	if err := ValidateSlot(slot); err != nil {
		return Block{}, err
	}
	if slot >= len(s.Blocks) {
		return EmptyBlock(s.Date, slot), nil
	}
	return s.Blocks[slot], nil
}

// Clone copies the block slice so the result can be modified freely.
func (s Snapshot) Clone() Snapshot {
	blocks := make([]Block, len(s.Blocks))
	copy(blocks, s.Blocks)
	return Snapshot{Date: s.Date, Blocks: blocks}
}

// With returns a copy of s with the block at b.Slot replaced.
func (s Snapshot) With(b Block) Snapshot {
	out := s.Clone()
	if b.Slot >= 0 && b.Slot < len(out.Blocks) {
		out.Blocks[b.Slot] = b
	}
	return out
}

// FilledCount counts blocks with a category.
func (s Snapshot) FilledCount() int {
	n := 0
	for _, b := range s.Blocks {
		if b.Filled() {
			n++
		}
	}
	return n
}
