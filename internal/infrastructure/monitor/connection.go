package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/repository"
)

// Status is the last observed health of the task store.
type Status struct {
	Driver    string    `json:"driver"`
	Storage   bool      `json:"storage"`
	LastCheck time.Time `json:"lastCheck"`
	Error     string    `json:"error,omitempty"`
}

// Monitor periodically pings the storage backend. A nil pinger (the memory
// store) is always reported healthy.
type Monitor struct {
	driver string
	store  repository.Pinger

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(driver string, store repository.Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		driver:   driver,
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
		status:   Status{Driver: driver},
	}
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Storage
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs one check synchronously.
func (m *Monitor) Refresh() {
	status := Status{Driver: m.driver, Storage: true, LastCheck: time.Now().UTC()}
	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := m.store.Ping(ctx)
		cancel()
		if err != nil {
			status.Storage = false
			status.Error = err.Error()
		}
	}

	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if prev.Storage != status.Storage && !prev.LastCheck.IsZero() {
		m.logger.Warn("storage health changed",
			zap.String("driver", m.driver),
			zap.Bool("online", status.Storage),
			zap.String("error", status.Error))
	}
}
