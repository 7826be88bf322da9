// Package httpx abstracts the serving engine so the same handler tree can
// run on net/http or fasthttp, selected by config.
package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	EngineNetHTTP  = "nethttp"
	EngineFastHTTP = "fasthttp"
)

// Server serves an http.Handler on the selected engine.
type Server struct {
	engine string
	addr   string
	std    *http.Server
	fast   *fasthttp.Server
}

// NewServer builds a server for the given engine ("nethttp" when empty).
func NewServer(engine, addr string, h http.Handler) (*Server, error) {
	switch engine {
	case "", EngineNetHTTP:
		return &Server{
			engine: EngineNetHTTP,
			addr:   addr,
			std: &http.Server{
				Addr:              addr,
				Handler:           h,
				ReadHeaderTimeout: 10 * time.Second,
			},
		}, nil
	case EngineFastHTTP:
		return &Server{
			engine: EngineFastHTTP,
			addr:   addr,
			fast: &fasthttp.Server{
				Handler:            fasthttpadaptor.NewFastHTTPHandler(h),
				Name:               "simplist",
				ReadTimeout:        10 * time.Second,
				WriteTimeout:       30 * time.Second,
				MaxRequestBodySize: 1 << 20,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown server engine: %s", engine)
	}
}

// Engine reports the selected engine name.
func (s *Server) Engine() string { return s.engine }

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	if s.fast != nil {
		return s.fast.ListenAndServe(s.addr)
	}
	return s.std.ListenAndServe()
}

// ListenAndServeTLS blocks until the server stops.
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	if s.fast != nil {
		return s.fast.ListenAndServeTLS(s.addr, certFile, keyFile)
	}
	return s.std.ListenAndServeTLS(certFile, keyFile)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.fast != nil {
		return s.fast.Shutdown()
	}
	return s.std.Shutdown(ctx)
}
