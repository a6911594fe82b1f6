package utxo

import "github.com/btcsuite/btcd/wire"

// Diff is a pending change to the utxo set: outputs to add and outpoints to
// remove. Adding an outpoint that is pending removal cancels the removal and
// vice versa, so applying a Diff is order independent.
type Diff struct {
	toAdd    map[wire.OutPoint]*Entry
	toRemove map[wire.OutPoint]struct{}
}

// NewDiff returns an empty Diff.
func NewDiff() *Diff {
	return &Diff{
		toAdd:    make(map[wire.OutPoint]*Entry),
		toRemove: make(map[wire.OutPoint]struct{}),
	}
}

// Add schedules entry to be added under outpoint.
func (d *Diff) Add(outpoint wire.OutPoint, entry *Entry) {
	delete(d.toRemove, outpoint)
	d.toAdd[outpoint] = entry
}

// Remove schedules outpoint to be removed. Removing an output added earlier
// in the same Diff simply drops the addition.
func (d *Diff) Remove(outpoint wire.OutPoint) {
	if _, ok := d.toAdd[outpoint]; ok {
		delete(d.toAdd, outpoint)
		return
	}
	d.toRemove[outpoint] = struct{}{}
}

// Added returns the entry pending addition under outpoint, if any.
func (d *Diff) Added(outpoint wire.OutPoint) (*Entry, bool) {
	entry, ok := d.toAdd[outpoint]
	return entry, ok
}

// IsRemoved returns whether outpoint is pending removal.
func (d *Diff) IsRemoved(outpoint wire.OutPoint) bool {
	_, ok := d.toRemove[outpoint]
	return ok
}

// ToAdd returns the pending additions.
func (d *Diff) ToAdd() map[wire.OutPoint]*Entry {
	return d.toAdd
}

// ToRemove returns the pending removals.
func (d *Diff) ToRemove() map[wire.OutPoint]struct{} {
	return d.toRemove
}
