package utxosnapshot

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
)

func TestMetadataLayout(t *testing.T) {
	metadata := &Metadata{
		Network:      wire.TestNet,
		BaseHash:     chainhash.Hash{0x01, 0x02, 0x03},
		BaseHeight:   100,
		CoinsCount:   101,
		ChainTxCount: 102,
	}
	var buf bytes.Buffer
	err := metadata.Serialize(&buf)
	if err != nil {
		t.Fatalf("TestMetadataLayout: Serialize unexpectedly failed: %s", err)
	}
	serialized := buf.Bytes()
	if len(serialized) != MetadataSize || MetadataSize != 63 {
		t.Fatalf("TestMetadataLayout: expected a 63 byte header but got %d bytes", len(serialized))
	}
	if !bytes.Equal(serialized[:5], []byte{'u', 't', 'x', 'o', 0xff}) {
		t.Fatalf("TestMetadataLayout: unexpected magic %x", serialized[:5])
	}
	if binary.LittleEndian.Uint16(serialized[5:]) != 2 {
		t.Fatalf("TestMetadataLayout: unexpected version %x", serialized[5:7])
	}
	if binary.LittleEndian.Uint32(serialized[7:]) != uint32(wire.TestNet) {
		t.Fatalf("TestMetadataLayout: unexpected network magic %x", serialized[7:11])
	}
	if !bytes.Equal(serialized[11:43], metadata.BaseHash[:]) {
		t.Fatalf("TestMetadataLayout: unexpected base hash %x", serialized[11:43])
	}
	if binary.LittleEndian.Uint32(serialized[43:]) != 100 {
		t.Fatalf("TestMetadataLayout: unexpected base height %x", serialized[43:47])
	}
	if binary.LittleEndian.Uint64(serialized[47:]) != 101 {
		t.Fatalf("TestMetadataLayout: unexpected coins count %x", serialized[47:55])
	}
	if binary.LittleEndian.Uint64(serialized[55:]) != 102 {
		t.Fatalf("TestMetadataLayout: unexpected chain tx count %x", serialized[55:63])
	}

	deserialized, err := DeserializeMetadata(bytes.NewReader(serialized))
	if err != nil {
		t.Fatalf("TestMetadataLayout: DeserializeMetadata unexpectedly failed: %s", err)
	}
	if !reflect.DeepEqual(deserialized, metadata) {
		t.Fatalf("TestMetadataLayout: expected %s but got %s", spew.Sdump(metadata), spew.Sdump(deserialized))
	}
}

func TestDeserializeMetadataErrors(t *testing.T) {
	var valid bytes.Buffer
	err := (&Metadata{Network: wire.MainNet}).Serialize(&valid)
	if err != nil {
		t.Fatalf("TestDeserializeMetadataErrors: Serialize unexpectedly failed: %s", err)
	}

	badMagic := append([]byte{}, valid.Bytes()...)
	badMagic[4] = 0x00
	badVersion := append([]byte{}, valid.Bytes()...)
	badVersion[5] = 0x03

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", valid.Bytes()[:MetadataSize-1]},
		{"bad magic", badMagic},
		{"bad version", badVersion},
	}
	for _, test := range tests {
		_, err := DeserializeMetadata(bytes.NewReader(test.data))
		if err == nil {
			t.Errorf("TestDeserializeMetadataErrors (%s): DeserializeMetadata unexpectedly succeeded", test.name)
		}
	}
}

func TestPatchCoinsCount(t *testing.T) {
	dir := t.TempDir()
	file, err := os.Create(filepath.Join(dir, "header"))
	if err != nil {
		t.Fatalf("TestPatchCoinsCount: Create unexpectedly failed: %s", err)
	}
	defer file.Close()

	err = (&Metadata{Network: wire.TestNet3, BaseHeight: 7}).Serialize(file)
	if err != nil {
		t.Fatalf("TestPatchCoinsCount: Serialize unexpectedly failed: %s", err)
	}
	err = patchCoinsCount(file, 12345)
	if err != nil {
		t.Fatalf("TestPatchCoinsCount: patchCoinsCount unexpectedly failed: %s", err)
	}
	_, err = file.Seek(0, 0)
	if err != nil {
		t.Fatalf("TestPatchCoinsCount: Seek unexpectedly failed: %s", err)
	}
	metadata, err := DeserializeMetadata(file)
	if err != nil {
		t.Fatalf("TestPatchCoinsCount: DeserializeMetadata unexpectedly failed: %s", err)
	}
	if metadata.CoinsCount != 12345 || metadata.BaseHeight != 7 || metadata.Network != wire.TestNet3 {
		t.Fatalf("TestPatchCoinsCount: unexpected metadata %s", spew.Sdump(metadata))
	}
}
