package utils

import (
	"runtime"
	"runtime/debug"
	"sync"

	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// HistoryStore keeps a bounded per-code ring of recent snapshots. It serves
// two purposes: backfilling previousClose/change when a feed payload omits the
// previous close, and the recent-history REST read. Under memory pressure the
// rings shrink rather than the process growing unbounded.
// -----------------------------------------------------------------------------

type HistoryStore struct {
	Streams       map[string]*RingBuffer
	MaxMemoryMB   int
	MaxDataPoints int
	Logger        *logger.Logger
	mu            sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewHistoryStore(maxMemoryMB, maxDataPoints int, log *logger.Logger) *HistoryStore {
	if maxDataPoints <= 0 {
		maxDataPoints = HistoryPointsForSession(0)
	}
	return &HistoryStore{
		Streams:       make(map[string]*RingBuffer),
		MaxMemoryMB:   maxMemoryMB,
		MaxDataPoints: maxDataPoints,
		Logger:        log,
	}
}

// -----------------------------------------------------------------------------

// Add appends a snapshot to the ring for its code.
func (hs *HistoryStore) Add(snap models.MInstrumentSnapshot) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	code := snap.Code
	if _, ok := hs.Streams[code]; !ok {
		hs.Streams[code] = NewRingBuffer(hs.MaxDataPoints)
	}

	hs.Streams[code].Append(snap)

	// Periodic memory check
	if hs.Streams[code].Size()%100 == 0 {
		hs.checkMemoryLimits()
	}
}

// -----------------------------------------------------------------------------

// Previous returns the latest stored snapshot for a code, used to derive
// change figures when a fresh feed payload omits the previous close.
func (hs *HistoryStore) Previous(code string) (models.MInstrumentSnapshot, bool) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	buffer, ok := hs.Streams[code]
	if !ok || buffer.Size() == 0 {
		return models.MInstrumentSnapshot{}, false
	}
	return buffer.Latest()
}

// -----------------------------------------------------------------------------

// RecentHistory returns up to n recent snapshots for a code, oldest first.
func (hs *HistoryStore) RecentHistory(code string, n int) []models.MInstrumentSnapshot {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	buffer, ok := hs.Streams[code]
	if !ok {
		return []models.MInstrumentSnapshot{}
	}
	return buffer.GetLatest(n)
}

// -----------------------------------------------------------------------------

// LatestAll returns the most recent snapshot for every code.
func (hs *HistoryStore) LatestAll() map[string]models.MInstrumentSnapshot {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	result := make(map[string]models.MInstrumentSnapshot, len(hs.Streams))
	for code, buffer := range hs.Streams {
		if snap, ok := buffer.Latest(); ok {
			result[code] = snap
		}
	}
	return result
}

// -----------------------------------------------------------------------------

// checkMemoryLimits shrinks ring capacity when the heap exceeds the cap.
// Caller holds the write lock.
func (hs *HistoryStore) checkMemoryLimits() {
	currentMemory := hs.ProcessMemoryMB()
	if currentMemory <= float64(hs.MaxMemoryMB) {
		return
	}

	hs.Logger.Info("Memory usage %.1fMB exceeds limit %dMB. Shrinking history.",
		currentMemory, hs.MaxMemoryMB)

	for code := range hs.Streams {
		buffer := hs.Streams[code]
		if buffer.Capacity() > 100 {
			newCapacity := buffer.Capacity() / 2
			if newCapacity < 50 {
				newCapacity = 50
			}
			buffer.Resize(newCapacity)
		}
	}

	runtime.GC()
	debug.FreeOSMemory()
}

// -----------------------------------------------------------------------------

// ProcessMemoryMB gets current process heap usage in MB
func (hs *HistoryStore) ProcessMemoryMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / 1024 / 1024
}

// -----------------------------------------------------------------------------

// Cleanup clears all history.
func (hs *HistoryStore) Cleanup() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	hs.Streams = make(map[string]*RingBuffer)
	runtime.GC()
	debug.FreeOSMemory()
}

// -----------------------------------------------------------------------------

// HasCode checks if a code has history
func (hs *HistoryStore) HasCode(code string) bool {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	_, ok := hs.Streams[code]
	return ok
}

// -----------------------------------------------------------------------------

// CodeCount returns the number of codes with history
func (hs *HistoryStore) CodeCount() int {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	return len(hs.Streams)
}
