package utxo

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
)

func testOutpoint(firstByte byte, index uint32) wire.OutPoint {
	var hash chainhash.Hash
	hash[0] = firstByte
	hash[31] = 0xaa
	return *wire.NewOutPoint(&hash, index)
}

func TestEntryCode(t *testing.T) {
	tests := []struct {
		entry *Entry
		want  uint32
	}{
		{NewEntry(1, nil, 0, false), 0},
		{NewEntry(1, nil, 0, true), 1},
		{NewEntry(1, nil, 100, false), 200},
		{NewEntry(1, nil, 100, true), 201},
	}
	for i, test := range tests {
		if got := test.entry.Code(); got != test.want {
			t.Errorf("test %d: got code %d, want %d", i, got, test.want)
		}
	}
}

func TestEntrySerialization(t *testing.T) {
	entry := NewEntry(5000000000, []byte{0x51}, 110, true)
	serialized, err := SerializeEntryToBytes(entry)
	if err != nil {
		t.Fatalf("SerializeEntryToBytes: %s", err)
	}
	want := []byte{0xdd, 0x00, 0xf2, 0x05, 0x2a, 0x01, 0x00, 0x00, 0x00, 0x01, 0x51}
	if !bytes.Equal(serialized, want) {
		t.Fatalf("unexpected serialization %x, want %x", serialized, want)
	}
	deserialized, err := DeserializeEntryFromBytes(serialized)
	if err != nil {
		t.Fatalf("DeserializeEntryFromBytes: %s", err)
	}
	if !deserialized.Equal(entry) {
		t.Fatalf("entry changed through serialization: %s", spew.Sdump(deserialized))
	}

	if _, err := DeserializeEntryFromBytes(append(serialized, 0x00)); err == nil {
		t.Fatalf("trailing bytes were accepted")
	}
	if _, err := DeserializeEntryFromBytes(serialized[:5]); err == nil {
		t.Fatalf("truncated entry was accepted")
	}
}

func TestOutpointKeyOrdering(t *testing.T) {
	outpoints := []wire.OutPoint{
		testOutpoint(0x01, 256),
		testOutpoint(0x01, 1),
		testOutpoint(0x00, 7),
		testOutpoint(0x02, 0),
	}
	for i := 0; i < len(outpoints); i++ {
		for j := 0; j < len(outpoints); j++ {
			keyLess := bytes.Compare(OutpointKey(&outpoints[i]), OutpointKey(&outpoints[j])) < 0
			if keyLess != Less(&outpoints[i], &outpoints[j]) {
				t.Fatalf("key order disagrees with Less for %s and %s", outpoints[i], outpoints[j])
			}
		}
	}

	key := OutpointKey(&outpoints[0])
	decoded, err := OutpointFromKey(key)
	if err != nil {
		t.Fatalf("OutpointFromKey: %s", err)
	}
	if *decoded != outpoints[0] {
		t.Fatalf("got %s, want %s", decoded, outpoints[0])
	}
	if _, err := OutpointFromKey(key[1:]); err == nil {
		t.Fatalf("short key was accepted")
	}
}

func TestDiffCancellation(t *testing.T) {
	created := testOutpoint(0x01, 0)
	existing := testOutpoint(0x02, 0)
	entry := NewEntry(10, []byte{0x51}, 5, false)

	diff := NewDiff()
	diff.Add(created, entry)
	diff.Remove(created)
	diff.Remove(existing)

	if len(diff.ToAdd()) != 0 {
		t.Fatalf("an output created and spent in the same diff is still pending addition")
	}
	if diff.IsRemoved(created) {
		t.Fatalf("an output created and spent in the same diff must not be removed from storage")
	}
	if !diff.IsRemoved(existing) {
		t.Fatalf("spending a stored output was not recorded")
	}

	diff.Add(existing, entry)
	if diff.IsRemoved(existing) {
		t.Fatalf("re-adding an output did not cancel its removal")
	}
	if added, ok := diff.Added(existing); !ok || added != entry {
		t.Fatalf("re-added output is not pending addition")
	}
}

func TestBlockUndoSerialization(t *testing.T) {
	undo := &BlockUndo{SpentOutputs: []SpentOutput{
		{Outpoint: testOutpoint(0x03, 1), Entry: NewEntry(1, []byte{0x51}, 1, true)},
		{Outpoint: testOutpoint(0x04, 70000), Entry: NewEntry(2, []byte{0x6a, 0x01, 0x02}, 2, false)},
	}}
	serialized, err := undo.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %s", err)
	}
	deserialized, err := DeserializeBlockUndo(serialized)
	if err != nil {
		t.Fatalf("DeserializeBlockUndo: %s", err)
	}
	if len(deserialized.SpentOutputs) != len(undo.SpentOutputs) {
		t.Fatalf("got %d spent outputs, want %d", len(deserialized.SpentOutputs), len(undo.SpentOutputs))
	}
	for i, spent := range deserialized.SpentOutputs {
		if spent.Outpoint != undo.SpentOutputs[i].Outpoint || !spent.Entry.Equal(undo.SpentOutputs[i].Entry) {
			t.Fatalf("spent output %d changed: %s", i, spew.Sdump(spent))
		}
	}

	empty, err := (&BlockUndo{}).Bytes()
	if err != nil {
		t.Fatalf("Bytes: %s", err)
	}
	if !bytes.Equal(empty, []byte{0x00}) {
		t.Fatalf("empty journal serialized to %x", empty)
	}
	if _, err := DeserializeBlockUndo(serialized[:len(serialized)-1]); err == nil {
		t.Fatalf("truncated journal was accepted")
	}
}

func TestCollectionIterator(t *testing.T) {
	collection := map[wire.OutPoint]*Entry{
		testOutpoint(0x02, 0): NewEntry(3, nil, 3, false),
		testOutpoint(0x01, 2): NewEntry(2, nil, 2, false),
		testOutpoint(0x01, 1): NewEntry(1, nil, 1, false),
	}
	it := NewCollectionIterator(collection)
	var amounts []int64
	for it.Next() {
		_, entry, err := it.Get()
		if err != nil {
			t.Fatalf("Get: %s", err)
		}
		amounts = append(amounts, entry.Amount())
	}
	if len(amounts) != 3 || amounts[0] != 1 || amounts[1] != 2 || amounts[2] != 3 {
		t.Fatalf("iterator did not visit outpoints canonically: %v", amounts)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}
	if err := it.Close(); err == nil {
		t.Fatalf("closing twice unexpectedly succeeded")
	}
}
