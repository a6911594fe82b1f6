package model

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Method names of the supported commands.
const (
	MethodDumpTxOutSet      = "dumptxoutset"
	MethodGetTxOutSetInfo   = "gettxoutsetinfo"
	MethodGetBlockCount     = "getblockcount"
	MethodGetBestBlockHash  = "getbestblockhash"
	MethodGetBlockHash      = "getblockhash"
	MethodGetNetworkInfo    = "getnetworkinfo"
	MethodSetNetworkActive  = "setnetworkactive"
	MethodGenerateToAddress = "generatetoaddress"
	MethodDebugLevel        = "debuglevel"
	MethodStop              = "stop"
	MethodUptime            = "uptime"
)

// DumpTxOutSetCmd defines the dumptxoutset JSON-RPC command.
type DumpTxOutSetCmd struct {
	Path    string
	Type    *string
	Options *DumpTxOutSetOptions
}

// DumpTxOutSetOptions are the named options of dumptxoutset.
type DumpTxOutSetOptions struct {
	Rollback *RollbackTarget `json:"rollback,omitempty"`
}

// RollbackTarget is either a block height or a block hash.
type RollbackTarget struct {
	Height *int32
	Hash   *string
}

// UnmarshalJSON accepts a JSON number or a JSON string.
func (r *RollbackTarget) UnmarshalJSON(data []byte) error {
	var height int32
	if err := json.Unmarshal(data, &height); err == nil {
		r.Height = &height
		return nil
	}
	var hash string
	if err := json.Unmarshal(data, &hash); err == nil {
		r.Hash = &hash
		return nil
	}
	return errors.Errorf("rollback must be a block height or a block hash, got %s", data)
}

// MarshalJSON encodes the height or hash that is set.
func (r RollbackTarget) MarshalJSON() ([]byte, error) {
	if r.Height != nil {
		return json.Marshal(*r.Height)
	}
	if r.Hash != nil {
		return json.Marshal(*r.Hash)
	}
	return []byte("null"), nil
}

// GetTxOutSetInfoCmd defines the gettxoutsetinfo JSON-RPC command.
type GetTxOutSetInfoCmd struct{}

// GetBlockCountCmd defines the getblockcount JSON-RPC command.
type GetBlockCountCmd struct{}

// GetBestBlockHashCmd defines the getbestblockhash JSON-RPC command.
type GetBestBlockHashCmd struct{}

// GetBlockHashCmd defines the getblockhash JSON-RPC command.
type GetBlockHashCmd struct {
	Height int32
}

// GetNetworkInfoCmd defines the getnetworkinfo JSON-RPC command.
type GetNetworkInfoCmd struct{}

// SetNetworkActiveCmd defines the setnetworkactive JSON-RPC command.
type SetNetworkActiveCmd struct {
	State bool
}

// GenerateToAddressCmd defines the generatetoaddress JSON-RPC command.
type GenerateToAddressCmd struct {
	NumBlocks int
	Address   string
}

// DebugLevelCmd defines the debuglevel JSON-RPC command.
type DebugLevelCmd struct {
	LevelSpec string
}

// StopCmd defines the stop JSON-RPC command.
type StopCmd struct{}

// UptimeCmd defines the uptime JSON-RPC command.
type UptimeCmd struct{}

type commandInfo struct {
	params   []string
	required int

	// options names the trailing object parameter whose fields may also
	// be passed as top level named parameters.
	options string

	parse func(params []jsoniter.RawMessage) (interface{}, error)
}

var commands = map[string]commandInfo{
	MethodDumpTxOutSet: {
		params:   []string{"path", "type", "options"},
		required: 1,
		options:  "options",
		parse: func(params []jsoniter.RawMessage) (interface{}, error) {
			cmd := &DumpTxOutSetCmd{}
			if _, err := param(params, 0, &cmd.Path); err != nil {
				return nil, err
			}
			var dumpType string
			ok, err := param(params, 1, &dumpType)
			if err != nil {
				return nil, err
			}
			if ok {
				cmd.Type = &dumpType
			}
			options := &DumpTxOutSetOptions{}
			ok, err = param(params, 2, options)
			if err != nil {
				return nil, err
			}
			if ok {
				cmd.Options = options
			}
			return cmd, nil
		},
	},
	MethodGetTxOutSetInfo: {
		parse: func([]jsoniter.RawMessage) (interface{}, error) { return &GetTxOutSetInfoCmd{}, nil },
	},
	MethodGetBlockCount: {
		parse: func([]jsoniter.RawMessage) (interface{}, error) { return &GetBlockCountCmd{}, nil },
	},
	MethodGetBestBlockHash: {
		parse: func([]jsoniter.RawMessage) (interface{}, error) { return &GetBestBlockHashCmd{}, nil },
	},
	MethodGetBlockHash: {
		params:   []string{"height"},
		required: 1,
		parse: func(params []jsoniter.RawMessage) (interface{}, error) {
			cmd := &GetBlockHashCmd{}
			_, err := param(params, 0, &cmd.Height)
			return cmd, err
		},
	},
	MethodGetNetworkInfo: {
		parse: func([]jsoniter.RawMessage) (interface{}, error) { return &GetNetworkInfoCmd{}, nil },
	},
	MethodSetNetworkActive: {
		params:   []string{"state"},
		required: 1,
		parse: func(params []jsoniter.RawMessage) (interface{}, error) {
			cmd := &SetNetworkActiveCmd{}
			_, err := param(params, 0, &cmd.State)
			return cmd, err
		},
	},
	MethodGenerateToAddress: {
		params:   []string{"nblocks", "address"},
		required: 2,
		parse: func(params []jsoniter.RawMessage) (interface{}, error) {
			cmd := &GenerateToAddressCmd{}
			if _, err := param(params, 0, &cmd.NumBlocks); err != nil {
				return nil, err
			}
			_, err := param(params, 1, &cmd.Address)
			return cmd, err
		},
	},
	MethodDebugLevel: {
		params:   []string{"levelspec"},
		required: 1,
		parse: func(params []jsoniter.RawMessage) (interface{}, error) {
			cmd := &DebugLevelCmd{}
			_, err := param(params, 0, &cmd.LevelSpec)
			return cmd, err
		},
	},
	MethodStop: {
		parse: func([]jsoniter.RawMessage) (interface{}, error) { return &StopCmd{}, nil },
	},
	MethodUptime: {
		parse: func([]jsoniter.RawMessage) (interface{}, error) { return &UptimeCmd{}, nil },
	},
}

// RegisteredMethods returns the sorted names of all supported methods.
func RegisteredMethods() []string {
	methods := make([]string, 0, len(commands))
	for method := range commands {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

func isNull(raw jsoniter.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

// param decodes params[index] into v. It returns false when the parameter
// is absent or null.
func param(params []jsoniter.RawMessage, index int, v interface{}) (bool, error) {
	if index >= len(params) || isNull(params[index]) {
		return false, nil
	}
	err := json.Unmarshal(params[index], v)
	if err != nil {
		return false, errors.Wrapf(err, "invalid parameter %d", index+1)
	}
	return true, nil
}

// positionalParams converts the raw params of a request to positional form.
func positionalParams(info commandInfo, rawParams jsoniter.RawMessage) ([]jsoniter.RawMessage, error) {
	trimmed := bytes.TrimSpace(rawParams)
	if isNull(trimmed) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var params []jsoniter.RawMessage
		err := json.Unmarshal(trimmed, &params)
		if err != nil {
			return nil, err
		}
		return params, nil
	case '{':
		var named map[string]jsoniter.RawMessage
		err := json.Unmarshal(trimmed, &named)
		if err != nil {
			return nil, err
		}
		return namedToPositional(info, named)
	default:
		return nil, errors.New("params must be an array or an object")
	}
}

func namedToPositional(info commandInfo, named map[string]jsoniter.RawMessage) ([]jsoniter.RawMessage, error) {
	index := make(map[string]int, len(info.params))
	for i, name := range info.params {
		index[name] = i
	}

	positional := make([]jsoniter.RawMessage, len(info.params))
	options := make(map[string]jsoniter.RawMessage)
	var unknown []string
	for name, value := range named {
		if i, ok := index[name]; ok {
			positional[i] = value
			continue
		}
		if info.options == "" {
			unknown = append(unknown, name)
			continue
		}
		options[name] = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.Errorf("unknown named parameter %s", strings.Join(unknown, ", "))
	}

	if len(options) > 0 {
		i := index[info.options]
		if !isNull(positional[i]) {
			return nil, errors.Errorf("parameter %s conflicts with field of %s", firstKey(options), info.options)
		}
		encoded, err := json.Marshal(options)
		if err != nil {
			return nil, err
		}
		positional[i] = encoded
	}

	// Trailing absent parameters are dropped so that the count check only
	// sees what was passed.
	last := len(positional)
	for last > 0 && isNull(positional[last-1]) {
		last--
	}
	return positional[:last], nil
}

func firstKey(m map[string]jsoniter.RawMessage) string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys[0]
}

// ParseCommand decodes the params of method into its command struct. The
// returned error is an *RPCError carrying ErrRPCMethodNotFound or
// ErrRPCInvalidParams.
func ParseCommand(method string, rawParams jsoniter.RawMessage) (interface{}, error) {
	info, ok := commands[method]
	if !ok {
		return nil, NewRPCError(ErrRPCMethodNotFound, "Method not found")
	}

	params, err := positionalParams(info, rawParams)
	if err != nil {
		return nil, NewRPCError(ErrRPCInvalidParams, err.Error())
	}
	if len(params) > len(info.params) {
		return nil, NewRPCError(ErrRPCInvalidParams, fmt.Sprintf(
			"%s takes at most %d parameters, got %d", method, len(info.params), len(params)))
	}
	for i := 0; i < info.required; i++ {
		if i >= len(params) || isNull(params[i]) {
			return nil, NewRPCError(ErrRPCInvalidParams, fmt.Sprintf(
				"%s requires parameter %s", method, info.params[i]))
		}
	}

	cmd, err := info.parse(params)
	if err != nil {
		return nil, NewRPCError(ErrRPCInvalidParams, err.Error())
	}
	return cmd, nil
}
