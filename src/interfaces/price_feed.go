package interfaces

import (
	"context"
	"sync"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// IPriceFeed interface for fetching instrument snapshots from external feeds.
// -----------------------------------------------------------------------------

type IPriceFeed interface {

	// Name returns the unique identifier of the feed
	Name() string

	// -----------------------------------------------------------------------------

	// FetchSnapshots retrieves current snapshots for the given codes.
	// Feed failure surfaces as an empty map plus the error; callers treat an
	// empty map as "no change", never as fatal.
	FetchSnapshots(codes []string) (map[string]models.MInstrumentSnapshot, error)

	// -----------------------------------------------------------------------------

	// UpdateCodes updates the list of instrument codes being monitored
	UpdateCodes(codes []string) error

	// -----------------------------------------------------------------------------

	// Start begins the periodic fetch loop
	// ctx: controls the lifecycle (cancellation stops the feed)
	// outputChan: channel to push snapshot batches to
	// wg: WaitGroup to signal when the feed has fully stopped
	Start(ctx context.Context, outputChan chan<- map[string]models.MInstrumentSnapshot, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Stop terminates the fetch loop (manual stop; cancelling the Start
	// context is the usual path)
	Stop() error
}
