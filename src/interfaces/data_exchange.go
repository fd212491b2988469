package interfaces

import "portfolio-observer/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defines the interface for pushing alert state to external
// consumers (websocket hub / REST surface).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes an alert payload to all connected listeners.
	Broadcast(payload models.MLatestAlerts)

	// -----------------------------------------------------------------------------
	// UpdateState replaces the internal state without broadcasting (used for
	// the initial load before any client connects).
	UpdateState(payload models.MLatestAlerts)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
