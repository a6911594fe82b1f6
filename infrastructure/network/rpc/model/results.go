package model

// DumpTxOutSetResult models the data from the dumptxoutset command.
type DumpTxOutSetResult struct {
	CoinsWritten uint64 `json:"coins_written"`
	BaseHash     string `json:"base_hash"`
	BaseHeight   int32  `json:"base_height"`
	Path         string `json:"path"`
	TxOutSetHash string `json:"txoutset_hash"`
	MuHash       string `json:"muhash"`
	NChainTx     uint64 `json:"nchaintx"`
}

// GetTxOutSetInfoResult models the data from the gettxoutsetinfo command.
type GetTxOutSetInfoResult struct {
	Height         int32   `json:"height"`
	BestBlock      string  `json:"bestblock"`
	TxOuts         uint64  `json:"txouts"`
	Transactions   uint64  `json:"transactions"`
	BogoSize       uint64  `json:"bogosize"`
	HashSerialized string  `json:"hash_serialized"`
	MuHash         string  `json:"muhash"`
	TotalAmount    float64 `json:"total_amount"`
}

// GetNetworkInfoResult models the data returned from the getnetworkinfo
// command.
type GetNetworkInfoResult struct {
	Version         int      `json:"version"`
	Subversion      string   `json:"subversion"`
	Network         string   `json:"network"`
	NetworkActive   bool     `json:"networkactive"`
	Connections     int      `json:"connections"`
	LocalAddresses  []string `json:"localaddresses"`
	ProtocolVersion uint32   `json:"protocolversion"`
}
