// snapshotverify reads a UTXO snapshot file, checks its structure and
// prints the digests recomputed from its contents.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	jsoniter "github.com/json-iterator/go"

	"github.com/chainsnap/chainsnapd/domain/utxosnapshot"
)

type configFlags struct {
	JSON bool `short:"j" long:"json" description:"Print the result as JSON"`
	Args struct {
		Path string `positional-arg-name:"SNAPSHOT" required:"true"`
	} `positional-args:"yes"`
}

type verifyOutput struct {
	Path         string `json:"path"`
	Network      string `json:"network,omitempty"`
	BaseHash     string `json:"base_hash"`
	BaseHeight   int32  `json:"base_height"`
	CoinsCount   uint64 `json:"coins_count"`
	ChainTxCount uint64 `json:"nchaintx"`
	Transactions uint64 `json:"transactions"`
	TxOutSetHash string `json:"txoutset_hash"`
	MuHash       string `json:"muhash"`
	AssumeUTXO   bool   `json:"assumeutxo_verified"`
}

func main() {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.Default)
	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	result, err := utxosnapshot.VerifyFile(cfg.Args.Path)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("snapshot %s is invalid: %s", cfg.Args.Path, err))
	}

	output := toOutput(cfg.Args.Path, result)
	if cfg.JSON {
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(output, "", "  ")
		if err != nil {
			printErrorAndExit(err.Error())
		}
		fmt.Println(string(data))
		return
	}

	network := output.Network
	if network == "" {
		network = "unknown"
	}
	fmt.Printf("path:          %s\n", output.Path)
	fmt.Printf("network:       %s\n", network)
	fmt.Printf("base block:    %s (height %d)\n", output.BaseHash, output.BaseHeight)
	fmt.Printf("coins:         %d\n", output.CoinsCount)
	fmt.Printf("transactions:  %d\n", output.Transactions)
	fmt.Printf("nchaintx:      %d\n", output.ChainTxCount)
	fmt.Printf("txoutset hash: %s\n", output.TxOutSetHash)
	fmt.Printf("muhash:        %s\n", output.MuHash)
	if output.AssumeUTXO {
		fmt.Println("matches the assumeutxo data of the network")
	}
}

func toOutput(path string, result *utxosnapshot.VerifyResult) *verifyOutput {
	return &verifyOutput{
		Path:         path,
		Network:      result.Network,
		BaseHash:     result.Metadata.BaseHash.String(),
		BaseHeight:   result.Metadata.BaseHeight,
		CoinsCount:   result.Metadata.CoinsCount,
		ChainTxCount: result.Metadata.ChainTxCount,
		Transactions: result.Transactions,
		TxOutSetHash: result.TxOutSetHash.String(),
		MuHash:       result.MuHash,
		AssumeUTXO:   result.AssumeUTXOKnown,
	}
}

func printErrorAndExit(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
