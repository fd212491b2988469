package feed

import (
	"context"
	"fmt"
	"sync"

	"portfolio-observer/src/interfaces"
	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
)

// FeedManager aggregates multiple IPriceFeed instances behind one lifecycle.
// Snapshot batches from every feed land on the same output channel; codes are
// unique per feed so merges never collide.
type FeedManager struct {
	Feeds      map[string]interfaces.IPriceFeed
	Logger     *logger.Logger
	mu         sync.RWMutex
	outputChan chan<- map[string]models.MInstrumentSnapshot
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         *sync.WaitGroup
}

// -----------------------------------------------------------------------------

func NewFeedManager(feeds []interfaces.IPriceFeed, log *logger.Logger) *FeedManager {
	m := &FeedManager{
		Feeds:  make(map[string]interfaces.IPriceFeed),
		Logger: log,
	}

	for _, f := range feeds {
		m.Feeds[f.Name()] = f
	}

	return m
}

// -----------------------------------------------------------------------------

// AddFeed registers a new feed and starts it if the manager is running.
func (m *FeedManager) AddFeed(f interfaces.IPriceFeed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := f.Name()
	if _, exists := m.Feeds[name]; exists {
		return fmt.Errorf("feed %s already exists", name)
	}

	m.Feeds[name] = f
	m.Logger.Info("Added feed: %s", name)

	if m.outputChan != nil && m.ctx != nil {
		if err := f.Start(m.ctx, m.outputChan, m.wg); err != nil {
			return fmt.Errorf("failed to start feed %s: %v", name, err)
		}
		m.Logger.Info("Started feed: %s", name)
	}

	return nil
}

// -----------------------------------------------------------------------------

// RemoveFeed stops and removes a feed.
func (m *FeedManager) RemoveFeed(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, exists := m.Feeds[name]
	if !exists {
		return fmt.Errorf("feed %s not found", name)
	}

	if err := f.Stop(); err != nil {
		m.Logger.Error("Error stopping feed %s: %v", name, err)
	}

	delete(m.Feeds, name)
	m.Logger.Info("Removed feed: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

func (m *FeedManager) GetFeed(name string) (interfaces.IPriceFeed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, exists := m.Feeds[name]
	if !exists {
		return nil, fmt.Errorf("feed %s not found", name)
	}
	return f, nil
}

// -----------------------------------------------------------------------------

func (m *FeedManager) allFeeds() []interfaces.IPriceFeed {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]interfaces.IPriceFeed, 0, len(m.Feeds))
	for _, f := range m.Feeds {
		list = append(list, f)
	}
	return list
}

// -----------------------------------------------------------------------------

func (m *FeedManager) Name() string {
	return "FeedManager"
}

// -----------------------------------------------------------------------------

// Start starts every registered feed against a derived context.
func (m *FeedManager) Start(parentCtx context.Context, outputChan chan<- map[string]models.MInstrumentSnapshot, wg *sync.WaitGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx != nil {
		return fmt.Errorf("FeedManager is already running")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	m.ctx = ctx
	m.cancelFunc = cancel
	m.outputChan = outputChan
	m.wg = wg

	for _, f := range m.Feeds {
		if err := f.Start(m.ctx, m.outputChan, m.wg); err != nil {
			m.Logger.Error("Failed to start feed %s: %v", f.Name(), err)
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop cancels the derived context, which signals every feed loop to exit.
func (m *FeedManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx == nil {
		return nil
	}

	m.Logger.Info("Stopping FeedManager...")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	m.cancelFunc = nil
	m.ctx = nil

	m.Logger.Info("FeedManager stopped")
	return nil
}

// -----------------------------------------------------------------------------

// FetchSnapshots fans out one synchronous fetch across all feeds and merges
// the results. Individual feed failures are logged, not fatal.
func (m *FeedManager) FetchSnapshots(codes []string) (map[string]models.MInstrumentSnapshot, error) {
	results := make(map[string]models.MInstrumentSnapshot)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, f := range m.allFeeds() {
		wg.Add(1)
		go func(pf interfaces.IPriceFeed) {
			defer wg.Done()
			snaps, err := pf.FetchSnapshots(codes)
			if err != nil {
				m.Logger.Error("Feed %s fetch failed: %v", pf.Name(), err)
				return
			}
			mu.Lock()
			for k, v := range snaps {
				results[k] = v
			}
			mu.Unlock()
		}(f)
	}
	wg.Wait()
	return results, nil
}

// -----------------------------------------------------------------------------

func (m *FeedManager) UpdateCodes(codes []string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.Feeds {
		if err := f.UpdateCodes(codes); err != nil {
			m.Logger.Error("Failed to update codes for feed %s: %v", f.Name(), err)
			return err
		}
	}
	return nil
}
