package utxosnapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/davecgh/go-spew/spew"
)

func TestReaderReadsSerializedCoins(t *testing.T) {
	coins := testCoins()
	path, written := serializeToFileForTest(t, "TestReaderReadsSerializedCoins", coins)

	reader, err := OpenReader(path)
	if err != nil {
		t.Fatalf("TestReaderReadsSerializedCoins: OpenReader unexpectedly failed: %s", err)
	}
	defer reader.Close()

	if *reader.Metadata != written.metadata {
		t.Fatalf("TestReaderReadsSerializedCoins: expected header %s but got %s",
			spew.Sdump(written.metadata), spew.Sdump(reader.Metadata))
	}
	read := make(map[wire.OutPoint]*utxo.Entry)
	for reader.Next() {
		outpoint, entry, err := reader.Get()
		if err != nil {
			t.Fatalf("TestReaderReadsSerializedCoins: Get unexpectedly failed: %s", err)
		}
		read[*outpoint] = entry
	}
	if reader.Err() != nil {
		t.Fatalf("TestReaderReadsSerializedCoins: iteration unexpectedly failed: %s", reader.Err())
	}
	if len(read) != len(coins) {
		t.Fatalf("TestReaderReadsSerializedCoins: expected %d coins but read %d", len(coins), len(read))
	}
	for outpoint, entry := range coins {
		if !read[outpoint].Equal(entry) {
			t.Fatalf("TestReaderReadsSerializedCoins: coin %s read as %s, expected %s",
				outpoint, spew.Sdump(read[outpoint]), spew.Sdump(entry))
		}
	}
}

func TestVerifyFileRejectsCorruptFiles(t *testing.T) {
	path, _ := serializeToFileForTest(t, "TestVerifyFileRejectsCorruptFiles", testCoins())
	data := readFileForTest(t, "TestVerifyFileRejectsCorruptFiles", path)

	_, err := VerifyFile(path)
	if err != nil {
		t.Fatalf("TestVerifyFileRejectsCorruptFiles: VerifyFile of a valid file unexpectedly failed: %s", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", data[:len(data)-1]},
		{"trailing data", append(append([]byte{}, data...), 0x00)},
		{"header only", data[:MetadataSize]},
	}
	for _, test := range tests {
		corruptPath := filepath.Join(t.TempDir(), "corrupt.dat")
		err := os.WriteFile(corruptPath, test.data, 0644)
		if err != nil {
			t.Fatalf("TestVerifyFileRejectsCorruptFiles (%s): WriteFile unexpectedly failed: %s", test.name, err)
		}
		_, err = VerifyFile(corruptPath)
		if err == nil {
			t.Fatalf("TestVerifyFileRejectsCorruptFiles (%s): VerifyFile unexpectedly succeeded", test.name)
		}
	}
}

func TestVerifyFileChecksAssumeUTXO(t *testing.T) {
	assumeUTXO := chainconfig.MainNetParams.AssumeUTXO[0]
	path := filepath.Join(t.TempDir(), "mainnet.dat")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("TestVerifyFileChecksAssumeUTXO: Create unexpectedly failed: %s", err)
	}
	header := Metadata{
		Network:      wire.MainNet,
		BaseHash:     assumeUTXO.BlockHash,
		BaseHeight:   assumeUTXO.Height,
		ChainTxCount: assumeUTXO.ChainTxCount,
	}
	_, err = serializeSnapshot(file, header, utxo.NewCollectionIterator(testCoins()))
	if err != nil {
		t.Fatalf("TestVerifyFileChecksAssumeUTXO: serializeSnapshot unexpectedly failed: %s", err)
	}
	err = file.Close()
	if err != nil {
		t.Fatalf("TestVerifyFileChecksAssumeUTXO: Close unexpectedly failed: %s", err)
	}

	_, err = VerifyFile(path)
	if err == nil || !strings.Contains(err.Error(), "content hash") {
		t.Fatalf("TestVerifyFileChecksAssumeUTXO: expected a content hash mismatch but got %v", err)
	}
}
