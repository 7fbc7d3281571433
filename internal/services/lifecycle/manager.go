package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc releases one component.
type StopFunc func(ctx context.Context) error

type component struct {
	name string
	stop StopFunc
}

// Manager stops registered components in reverse registration order, so a
// component is always stopped before the ones it was built on.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	components []component
	stopped    bool
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{timeout: timeout, logger: logger}
}

// Register adds a component. Registering after Shutdown stops it at once.
func (m *Manager) Register(name string, stop StopFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	if !m.stopped {
		m.components = append(m.components, component{name: name, stop: stop})
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.stopOne(ctx, component{name: name, stop: stop}); err != nil {
		m.logger.Warn("late component failed to stop", zap.String("component", name), zap.Error(err))
	}
}

// Shutdown stops every component once. All components get a chance to stop
// even when one fails; the failures are joined.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	components := m.components
	m.components = nil
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		if err := m.stopOne(ctx, components[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) stopOne(ctx context.Context, c component) error {
	start := time.Now()
	if err := c.stop(ctx); err != nil {
		m.logger.Error("component failed to stop", zap.String("component", c.name), zap.Error(err))
		return fmt.Errorf("stop %s: %w", c.name, err)
	}
	m.logger.Info("component stopped", zap.String("component", c.name), zap.Duration("took", time.Since(start)))
	return nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
}
