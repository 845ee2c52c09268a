package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Module serves the HTTP API as an actions module.
type Module struct {
	addr    string
	handler http.Handler
	log     *slog.Logger
	srv     *http.Server
	done    chan error
}

func NewModule(addr string, handler http.Handler, log *slog.Logger) *Module {
	if log == nil {
		log = slog.Default()
	}
	return &Module{addr: addr, handler: handler, log: log}
}

func (m *Module) Name() string { return "http" }

// Start binds the listener and serves in the background. Request contexts
// derive from ctx, so cancelling it aborts in-flight analyses.
func (m *Module) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("http: listen %s: %w", m.addr, err)
	}
	m.srv = &http.Server{
		Handler:           m.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	m.done = make(chan error, 1)
	go func() {
		err := m.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			m.log.Error("http: serve failed", "err", err)
		}
		m.done <- err
	}()
	m.log.Info("Trustek API listening", "addr", ln.Addr().String())
	return nil
}

// Stop shuts the server down, waiting up to ten seconds for open requests.
func (m *Module) Stop(ctx context.Context) {
	if m.srv == nil {
		return
	}
	shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := m.srv.Shutdown(shutCtx); err != nil {
		m.log.Warn("http: shutdown", "err", err)
	}
	<-m.done
	m.srv = nil
}
