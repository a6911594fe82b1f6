package rpcclient

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

// DumpTxOutSet writes a UTXO snapshot to path on the server side. dumpType
// may be empty, and rollback may be nil.
func (c *Client) DumpTxOutSet(path string, dumpType string, rollback *model.RollbackTarget) (*model.DumpTxOutSetResult, error) {
	params := []interface{}{path}
	if dumpType != "" || rollback != nil {
		params = append(params, dumpType)
	}
	if rollback != nil {
		params = append(params, &model.DumpTxOutSetOptions{Rollback: rollback})
	}

	result := &model.DumpTxOutSetResult{}
	err := c.Call(model.MethodDumpTxOutSet, params, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetTxOutSetInfo returns statistics of the UTXO set at the tip.
func (c *Client) GetTxOutSetInfo() (*model.GetTxOutSetInfoResult, error) {
	result := &model.GetTxOutSetInfoResult{}
	err := c.Call(model.MethodGetTxOutSetInfo, nil, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetBlockCount returns the height of the tip.
func (c *Client) GetBlockCount() (int64, error) {
	var count int64
	err := c.Call(model.MethodGetBlockCount, nil, &count)
	return count, err
}

// GetBestBlockHash returns the hash of the tip.
func (c *Client) GetBestBlockHash() (*chainhash.Hash, error) {
	return c.callForHash(model.MethodGetBestBlockHash, nil)
}

// GetBlockHash returns the hash of the active chain block at height.
func (c *Client) GetBlockHash(height int32) (*chainhash.Hash, error) {
	return c.callForHash(model.MethodGetBlockHash, []interface{}{height})
}

func (c *Client) callForHash(method string, params []interface{}) (*chainhash.Hash, error) {
	var hashString string
	err := c.Call(method, params, &hashString)
	if err != nil {
		return nil, err
	}
	hash, err := chainhash.NewHashFromStr(hashString)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hash %q", hashString)
	}
	return hash, nil
}

// GetNetworkInfo returns the P2P network state of the node.
func (c *Client) GetNetworkInfo() (*model.GetNetworkInfoResult, error) {
	result := &model.GetNetworkInfoResult{}
	err := c.Call(model.MethodGetNetworkInfo, nil, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetNetworkActive enables or disables all P2P network activity and returns
// the new state.
func (c *Client) SetNetworkActive(active bool) (bool, error) {
	var state bool
	err := c.Call(model.MethodSetNetworkActive, []interface{}{active}, &state)
	return state, err
}

// GenerateToAddress mines numBlocks blocks paying to address and returns
// their hashes.
func (c *Client) GenerateToAddress(numBlocks int, address string) ([]*chainhash.Hash, error) {
	var hashStrings []string
	err := c.Call(model.MethodGenerateToAddress, []interface{}{numBlocks, address}, &hashStrings)
	if err != nil {
		return nil, err
	}
	hashes := make([]*chainhash.Hash, len(hashStrings))
	for i, hashString := range hashStrings {
		hashes[i], err = chainhash.NewHashFromStr(hashString)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hash %q", hashString)
		}
	}
	return hashes, nil
}

// DebugLevel dynamically sets the debug logging level to the passed level
// specification.
//
// The levelspec can be either a debug level or of the form:
//
//	<subsystem>=<level>,<subsystem2>=<level2>,...
//
// Additionally, the special keyword 'show' can be used to get a list of the
// available subsystems.
func (c *Client) DebugLevel(levelSpec string) (string, error) {
	var result string
	err := c.Call(model.MethodDebugLevel, []interface{}{levelSpec}, &result)
	return result, err
}

// Stop asks the node to shut down.
func (c *Client) Stop() (string, error) {
	var result string
	err := c.Call(model.MethodStop, nil, &result)
	return result, err
}

// Uptime returns the number of seconds the node has been running.
func (c *Client) Uptime() (int64, error) {
	var uptime int64
	err := c.Call(model.MethodUptime, nil, &uptime)
	return uptime, err
}
