package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/assetnote/serverbench/internal/config"
	errors2 "github.com/assetnote/serverbench/pkg/errors"
	"github.com/assetnote/serverbench/pkg/log"
	"github.com/assetnote/serverbench/pkg/registry"
	"github.com/assetnote/serverbench/pkg/server"
	"github.com/fasthttp/router"
	"github.com/francoispqt/gojay"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// DefaultStartPort is used when a start request does not provide a port
const DefaultStartPort = 8080

// Server exposes a registry over http
type Server struct {
	ctx      context.Context
	registry *registry.Registry
	config   config.API
	router   *router.Router
	logger   zerolog.Logger
}

// New creates the api for reg. ctx bounds load tests started through the api
func New(ctx context.Context, reg *registry.Registry, c config.API) *Server {
	s := &Server{
		ctx:      ctx,
		registry: reg,
		config:   c,
		router:   router.New(),
		logger:   log.Component("api"),
	}

	s.router.GET("/api/servers", s.listServers)
	s.router.POST("/api/servers/{serverType}/start", s.startServer)
	s.router.POST("/api/servers/{serverType}/stop", s.stopServer)
	s.router.GET("/api/servers/{serverType}/status", s.serverStatus)
	s.router.POST("/api/servers/{serverType}/test", s.runLoadTest)
	s.router.GlobalOPTIONS = s.preflight
	s.router.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, fasthttp.StatusNotFound, fmt.Errorf("no route for %s %s", ctx.Method(), ctx.Path()))
	}
	return s
}

// Handler returns the request handler for every api route
func (s *Server) Handler() fasthttp.RequestHandler {
	next := s.router.Handler
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		if s.config.AllowedOrigin != "" {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", s.config.AllowedOrigin)
		}
		next(ctx)
		s.logger.Debug().
			Bytes("method", ctx.Method()).
			Bytes("uri", ctx.RequestURI()).
			Int("status", ctx.Response.StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	}
}

// Serve accepts api requests on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &fasthttp.Server{
		Name:         "serverbench",
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("management api listening")
	select {
	case err := <-errCh:
		return fmt.Errorf("management api terminated: %w", err)
	case <-ctx.Done():
	}

	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown management api: %w", err)
	}
	s.logger.Info().Msg("management api stopped")
	return nil
}

// ListenAndServe binds the configured address and serves the api for reg until ctx is cancelled
func ListenAndServe(ctx context.Context, reg *registry.Registry, c config.API) error {
	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Addr, err)
	}
	return New(ctx, reg, c).Serve(ctx, ln)
}

func (s *Server) preflight(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type")
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) listServers(ctx *fasthttp.RequestCtx) {
	b, err := gojay.MarshalJSONArray(serverNames(s.registry.ListServers()))
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, b)
}

func (s *Server) startServer(ctx *fasthttp.RequestCtx) {
	name := serverType(ctx)

	port := DefaultStartPort
	if v := ctx.QueryArgs().Peek("port"); len(v) != 0 {
		p, err := strconv.Atoi(string(v))
		if err != nil || p < 0 || p > 65535 {
			writeError(ctx, fasthttp.StatusBadRequest,
				errors2.New(errors2.InvalidArgument, name, "start", fmt.Errorf("invalid port %q", v)))
			return
		}
		port = p
	}

	if err := s.registry.StartServer(name, port); err != nil {
		writeError(ctx, statusCode(err), err)
		return
	}

	status, err := s.registry.Status(name)
	if err != nil {
		writeError(ctx, statusCode(err), err)
		return
	}
	writeObject(ctx, fasthttp.StatusOK, &messageResponse{Message: "Server started successfully", Port: status.Port})
}

func (s *Server) stopServer(ctx *fasthttp.RequestCtx) {
	if err := s.registry.StopServer(serverType(ctx)); err != nil {
		writeError(ctx, statusCode(err), err)
		return
	}
	writeObject(ctx, fasthttp.StatusOK, &messageResponse{Message: "Server stopped successfully"})
}

func (s *Server) serverStatus(ctx *fasthttp.RequestCtx) {
	status, err := s.registry.Status(serverType(ctx))
	if err != nil {
		writeError(ctx, statusCode(err), err)
		return
	}
	writeObject(ctx, fasthttp.StatusOK, status)
}

func (s *Server) runLoadTest(ctx *fasthttp.RequestCtx) {
	name := serverType(ctx)

	var req loadTestRequest
	if err := gojay.UnmarshalJSONObject(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest,
			errors2.New(errors2.InvalidArgument, name, "test", fmt.Errorf("invalid request body: %w", err)))
		return
	}
	if req.Port <= 0 || req.Port > 65535 {
		writeError(ctx, fasthttp.StatusBadRequest,
			errors2.New(errors2.InvalidArgument, name, "test", fmt.Errorf("invalid port %d", req.Port)))
		return
	}

	res, err := s.registry.RunLoadTest(s.ctx, name, req.Port, req.NumberOfRequests)
	if err != nil {
		writeError(ctx, statusCode(err), err)
		return
	}
	writeObject(ctx, fasthttp.StatusOK, res)
}

func serverType(ctx *fasthttp.RequestCtx) string {
	v, _ := ctx.UserValue("serverType").(string)
	return v
}

// statusCode maps a registry error onto the response status
func statusCode(err error) int {
	switch errors2.KindOf(err) {
	case errors2.UnknownServerType:
		return fasthttp.StatusNotFound
	case errors2.AlreadyRunning, errors2.NotRunning:
		return fasthttp.StatusConflict
	case errors2.InvalidArgument:
		return fasthttp.StatusBadRequest
	case errors2.BindFailure:
		return fasthttp.StatusBadGateway
	case errors2.LoadTestTimeout:
		return fasthttp.StatusGatewayTimeout
	}
	if errors.Is(err, server.ErrServerClosed) {
		return fasthttp.StatusServiceUnavailable
	}
	return fasthttp.StatusInternalServerError
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, b []byte) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(b)
}

func writeObject(ctx *fasthttp.RequestCtx, status int, v gojay.MarshalerJSONObject) {
	b, err := gojay.MarshalJSONObject(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err)
		return
	}
	writeJSON(ctx, status, b)
}

func writeError(ctx *fasthttp.RequestCtx, status int, err error) {
	b, merr := gojay.MarshalJSONObject(&errorResponse{Error: err.Error()})
	if merr != nil {
		ctx.Error(err.Error(), status)
		return
	}
	writeJSON(ctx, status, b)
}
