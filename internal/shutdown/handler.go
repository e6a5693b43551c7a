package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler manages graceful shutdown. The first interrupt cancels the
// context so a run can stop and still write what it has; a second one
// exits immediately.
type Handler struct {
	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
	cleanupFns []func()
	mu         sync.Mutex
	exit       func(code int)
}

// New creates a new shutdown handler
func New() *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		ctx:    ctx,
		cancel: cancel,
		exit:   os.Exit,
	}
}

// Context returns the shutdown context
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers a cleanup function to be called on shutdown
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFns = append(h.cleanupFns, fn)
}

// Listen starts listening for shutdown signals. onInterrupt, if set, is
// called on the first signal before the context is cancelled.
func (h *Handler) Listen(onInterrupt func()) {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		if onInterrupt != nil {
			onInterrupt()
		}
		h.cancel()

		<-sigChan
		h.Shutdown()
		h.exit(130)
	}()
}

// Shutdown cancels the context and runs cleanup functions once, last
// registered first.
func (h *Handler) Shutdown() {
	h.cancel()

	h.once.Do(func() {
		h.mu.Lock()
		fns := h.cleanupFns
		h.mu.Unlock()

		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	})
}
