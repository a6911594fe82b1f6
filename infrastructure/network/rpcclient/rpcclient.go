// Package rpcclient implements a JSON-RPC 1.0 over HTTP client for the
// node's RPC server.
package rpcclient

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

const defaultTimeout = 10 * time.Minute

// ConnConfig describes the connection configuration parameters for the
// client.
type ConnConfig struct {
	// Host is the host:port of the RPC server.
	Host string

	User string
	Pass string

	// Timeout bounds a single call. Snapshot dumps of large chains take
	// long, so the default is generous.
	Timeout time.Duration
}

// Client is a JSON-RPC client. It is safe for concurrent use.
type Client struct {
	config     *ConnConfig
	httpClient *http.Client
	nextID     uint64
}

// New creates a new RPC client for the given configuration.
func New(config *ConnConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NextID returns the next id to be used when sending a JSON-RPC message.
func (c *Client) NextID() uint64 {
	return atomic.AddUint64(&c.nextID, 1)
}

// Call sends a request with positional params and decodes the result into
// result, which may be nil. Errors returned by the server are of type
// *model.RPCError.
func (c *Client) Call(method string, params []interface{}, result interface{}) error {
	request, err := model.NewRequest(c.NextID(), method, params)
	if err != nil {
		return err
	}
	return c.send(request, result)
}

// CallNamed is like Call but passes named params.
func (c *Client) CallNamed(method string, params map[string]interface{}, result interface{}) error {
	request, err := model.NewNamedRequest(c.NextID(), method, params)
	if err != nil {
		return err
	}
	return c.send(request, result)
}

func (c *Client) send(request *model.Request, result interface{}) error {
	body, err := model.MarshalRequest(request)
	if err != nil {
		return err
	}

	httpRequest, err := http.NewRequest(http.MethodPost, "http://"+c.config.Host, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	httpRequest.Close = true
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.SetBasicAuth(c.config.User, c.config.Pass)

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return errors.Wrapf(err, "failed sending %s to %s", request.Method, c.config.Host)
	}
	defer httpResponse.Body.Close()

	respBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrap(err, "error reading json reply")
	}

	response, err := model.UnmarshalResponse(respBytes)
	if err != nil {
		// Non JSON bodies such as authentication failures.
		return errors.Errorf("status code: %d, response: %q", httpResponse.StatusCode, string(respBytes))
	}
	if response.Error != nil {
		return response.Error
	}
	if result == nil {
		return nil
	}
	return errors.Wrap(model.UnmarshalResult(response.Result, result), "failed decoding the result")
}
