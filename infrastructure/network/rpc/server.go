// Package rpc implements the JSON-RPC 1.0 over HTTP transport of the node.
// Command semantics live in the handlers the server is configured with.
package rpc

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

const (
	// maxRequestSize caps the body of a single request.
	maxRequestSize = 1 << 20

	shutdownTimeout = 5 * time.Second

	// MetricsPath is the HTTP path Prometheus metrics are served on.
	MetricsPath = "/metrics"
)

// Handler executes a parsed command. A returned *model.RPCError is sent to
// the client as is; any other error becomes an ErrRPCInternal error.
type Handler func(cmd interface{}) (interface{}, error)

// Config holds the settings of a Server.
type Config struct {
	Listeners []string
	User      string
	Pass      string

	// Handlers maps method names to their handlers.
	Handlers map[string]Handler

	// Collectors are registered on the metrics registry in addition to the
	// server's own metrics.
	Collectors []prometheus.Collector
}

// Server is a JSON-RPC 1.0 server over HTTP with basic authentication.
type Server struct {
	cfg        *Config
	authSHA    [sha256.Size]byte
	metrics    *serverMetrics
	httpServer *http.Server

	listenersLock sync.Mutex
	listeners     []net.Listener

	started  int32
	shutdown int32
	wg       sync.WaitGroup
}

// NewServer returns a new RPC server. It does not listen until Start is
// called.
func NewServer(cfg *Config) (*Server, error) {
	metrics, err := newServerMetrics(cfg.Collectors)
	if err != nil {
		return nil, errors.Wrap(err, "failed registering RPC metrics")
	}

	login := cfg.User + ":" + cfg.Pass
	auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(login))
	s := &Server{
		cfg:     cfg,
		authSHA: sha256.Sum256([]byte(auth)),
		metrics: metrics,
	}

	router := httprouter.New()
	router.POST("/", s.handleRequest)
	router.GET(MetricsPath, s.handleMetrics)
	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start begins listening on all configured listeners.
func (s *Server) Start() error {
	if atomic.AddInt32(&s.started, 1) != 1 {
		return errors.New("RPC server already started")
	}

	s.listenersLock.Lock()
	defer s.listenersLock.Unlock()
	for _, addr := range s.cfg.Listeners {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			for _, started := range s.listeners {
				started.Close()
			}
			s.listeners = nil
			return errors.Wrapf(err, "failed listening for RPC on %s", addr)
		}
		s.listeners = append(s.listeners, listener)
	}

	for _, listener := range s.listeners {
		listener := listener
		s.wg.Add(1)
		spawn("rpc.Server.serve", func() {
			defer s.wg.Done()
			log.Infof("RPC server listening on %s", listener.Addr())
			err := s.httpServer.Serve(listener)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("RPC listener %s failed: %s", listener.Addr(), err)
			}
			log.Tracef("RPC listener done for %s", listener.Addr())
		})
	}
	return nil
}

// Stop gracefully shuts the server down. Requests in flight are given a
// short grace period.
func (s *Server) Stop() error {
	if atomic.AddInt32(&s.shutdown, 1) != 1 {
		log.Infof("RPC server is already in the process of shutting down")
		return nil
	}
	log.Warnf("RPC server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	if err != nil {
		return errors.Wrap(err, "failed shutting down the RPC server")
	}
	log.Infof("RPC server shutdown complete")
	return nil
}

// Addresses returns the addresses the server listens on.
func (s *Server) Addresses() []net.Addr {
	s.listenersLock.Lock()
	defer s.listenersLock.Unlock()

	addresses := make([]net.Addr, 0, len(s.listeners))
	for _, listener := range s.listeners {
		addresses = append(addresses, listener.Addr())
	}
	return addresses
}

// checkAuth checks the HTTP basic authentication supplied by a client.
func (s *Server) checkAuth(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return false
	}
	authSHA := sha256.Sum256([]byte(authHeader))
	return subtle.ConstantTimeCompare(authSHA[:], s.authSHA[:]) == 1
}

func jsonAuthFail(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Basic realm="chainsnapd RPC"`)
	http.Error(w, "401 Unauthorized.", http.StatusUnauthorized)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !s.checkAuth(r) {
		jsonAuthFail(w)
		return
	}
	promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !s.checkAuth(r) {
		log.Warnf("RPC authentication failure from %s", r.RemoteAddr)
		jsonAuthFail(w)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	r.Body.Close()
	if err != nil {
		s.writeResponse(w, nil, nil, model.NewRPCError(model.ErrRPCParse, "Failed reading request body"))
		return
	}

	request, err := model.UnmarshalRequest(body)
	if err != nil {
		s.writeResponse(w, nil, nil, model.NewRPCError(model.ErrRPCParse, "Parse error: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeResponse(w, request.ID, nil, model.NewRPCError(model.ErrRPCInvalidRequest, "Method must be specified"))
		return
	}

	result, rpcErr := s.execute(request)
	s.writeResponse(w, request.ID, result, rpcErr)
}

// execute parses and runs a single request.
func (s *Server) execute(request *model.Request) (interface{}, *model.RPCError) {
	start := time.Now()
	log.Debugf("Received RPC request %s", request.Method)

	handler, ok := s.cfg.Handlers[request.Method]
	if !ok {
		s.metrics.observe("unknown", start, true)
		return nil, model.NewRPCError(model.ErrRPCMethodNotFound, "Method not found")
	}

	result, err := s.dispatch(handler, request)
	rpcErr := toRPCError(err)
	if rpcErr != nil {
		log.Debugf("RPC request %s failed: %s", request.Method, rpcErr.Message)
	}
	s.metrics.observe(request.Method, start, rpcErr != nil)
	return result, rpcErr
}

func (s *Server) dispatch(handler Handler, request *model.Request) (interface{}, error) {
	cmd, err := model.ParseCommand(request.Method, request.Params)
	if err != nil {
		return nil, err
	}
	return handler(cmd)
}

func toRPCError(err error) *model.RPCError {
	if err == nil {
		return nil
	}
	var rpcErr *model.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	log.Errorf("Unhandled RPC error: %+v", err)
	return model.NewRPCError(model.ErrRPCInternal, err.Error())
}

// httpStatus maps an RPC error to the HTTP status of the response.
func httpStatus(rpcErr *model.RPCError) int {
	if rpcErr == nil {
		return http.StatusOK
	}
	switch rpcErr.Code {
	case model.ErrRPCMethodNotFound:
		return http.StatusNotFound
	case model.ErrRPCInvalidRequest, model.ErrRPCParse:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeResponse(w http.ResponseWriter, id interface{}, result interface{}, rpcErr *model.RPCError) {
	if rpcErr != nil {
		result = nil
	}
	data, err := model.MarshalResponse(id, result, rpcErr)
	if err != nil {
		log.Errorf("Failed to marshal RPC response: %s", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(rpcErr))
	_, err = w.Write(data)
	if err != nil {
		log.Errorf("Failed to write RPC response: %s", err)
	}
}
