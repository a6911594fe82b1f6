// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package model

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RPCErrorCode represents an error code to be used as a part of an RPCError
// which is in turn used in a JSON-RPC Response object.
type RPCErrorCode int

// Standard JSON-RPC 2.0 errors, also used by JSON-RPC 1.0 servers.
const (
	ErrRPCInvalidRequest RPCErrorCode = -32600
	ErrRPCMethodNotFound RPCErrorCode = -32601
	ErrRPCInvalidParams  RPCErrorCode = -32602
	ErrRPCInternal       RPCErrorCode = -32603
	ErrRPCParse          RPCErrorCode = -32700
)

// General application defined errors.
const (
	ErrRPCMisc                RPCErrorCode = -1
	ErrRPCInvalidAddressOrKey RPCErrorCode = -5
	ErrRPCInvalidParameter    RPCErrorCode = -8
)

// RPCError represents an error that is used as a part of a JSON-RPC Response
// object.
type RPCError struct {
	Code    RPCErrorCode `json:"code"`
	Message string       `json:"message"`
}

// Error returns a string describing the RPC error. This satisfies the
// builtin error interface.
func (e RPCError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// NewRPCError constructs and returns a new JSON-RPC error that is suitable
// for use in a JSON-RPC Response object.
func NewRPCError(code RPCErrorCode, message string) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
	}
}

// Request is a JSON-RPC 1.0 request. Params is either a positional array or
// an object of named parameters.
type Request struct {
	JSONRPC string              `json:"jsonrpc,omitempty"`
	Method  string              `json:"method"`
	Params  jsoniter.RawMessage `json:"params"`
	ID      interface{}         `json:"id"`
}

// Response is the server side JSON-RPC 1.0 response. Exactly one of Result
// and Error is non-null.
type Response struct {
	Result interface{} `json:"result"`
	Error  *RPCError   `json:"error"`
	ID     interface{} `json:"id"`
}

// RawResponse is a Response whose result is left undecoded.
type RawResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *RPCError           `json:"error"`
	ID     interface{}         `json:"id"`
}

// NewRequest returns a request for method with the given positional
// parameters.
func NewRequest(id interface{}, method string, params []interface{}) (*Request, error) {
	if params == nil {
		params = []interface{}{}
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &Request{
		JSONRPC: "1.0",
		Method:  method,
		Params:  rawParams,
		ID:      id,
	}, nil
}

// NewNamedRequest returns a request for method with named parameters.
func NewNamedRequest(id interface{}, method string, params map[string]interface{}) (*Request, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &Request{
		JSONRPC: "1.0",
		Method:  method,
		Params:  rawParams,
		ID:      id,
	}, nil
}

// MarshalRequest returns the JSON encoding of request.
func MarshalRequest(request *Request) ([]byte, error) {
	return json.Marshal(request)
}

// UnmarshalRequest decodes a JSON-RPC request.
func UnmarshalRequest(data []byte) (*Request, error) {
	request := &Request{}
	err := json.Unmarshal(data, request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

// MarshalResponse marshals the passed id, result, and RPCError to a JSON-RPC
// response byte slice that is suitable for transmission to a JSON-RPC client.
func MarshalResponse(id interface{}, result interface{}, rpcErr *RPCError) ([]byte, error) {
	response := &Response{
		Result: result,
		Error:  rpcErr,
		ID:     id,
	}
	return json.Marshal(response)
}

// UnmarshalResponse decodes a JSON-RPC response, leaving the result raw.
func UnmarshalResponse(data []byte) (*RawResponse, error) {
	response := &RawResponse{}
	err := json.Unmarshal(data, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// UnmarshalResult decodes a raw result into v.
func UnmarshalResult(result jsoniter.RawMessage, v interface{}) error {
	return json.Unmarshal(result, v)
}
