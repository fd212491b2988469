package yahoo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
)

func testFeed(t *testing.T) *YahooPriceFeed {
	t.Helper()
	cfg := &models.MConfig{}
	cfg.Network.RequestsPerSecond = 10
	return NewYahooPriceFeed(cfg, []string{"BHP"}, nil, logger.NewLogger("ERROR", "test"))
}

func chartJSON(price, prevClose, low52, high52 float64, longName string) []byte {
	return []byte(fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {
					"currency": "AUD",
					"symbol": "BHP.AX",
					"exchangeName": "ASX",
					"regularMarketTime": 1756512000,
					"regularMarketPrice": %g,
					"chartPreviousClose": %g,
					"fiftyTwoWeekHigh": %g,
					"fiftyTwoWeekLow": %g,
					"longName": "%s",
					"shortName": "BHP"
				}
			}],
			"error": null
		}
	}`, price, prevClose, high52, low52, longName))
}

// -----------------------------------------------------------------------------

func TestUpstreamSymbol(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"BHP", "BHP.AX"},
		{"CBA", "CBA.AX"},
		{"BHP.AX", "BHP.AX"},
		{"AIR.NZ", "AIR.NZ"},
		{"XJO", "^AXJO"},
		{"XAO", "^AORD"},
		{"AUDUSD", "AUDUSD=X"},
		{"GOLD", "GC=F"},
		{"WTI", "CL=F"},
		{"BRENT", "BZ=F"},
		{"BTCAUD", "BTC-AUD"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, upstreamSymbol(tt.code), "code %s", tt.code)
	}
}

// -----------------------------------------------------------------------------

func TestParseChartResponse(t *testing.T) {
	f := testFeed(t)

	snap, err := f.ParseChartResponse("BHP", chartJSON(41.50, 40.00, 35.10, 45.80, "BHP Group Limited"))
	require.NoError(t, err)

	assert.Equal(t, "BHP", snap.Code)
	assert.Equal(t, "BHP Group Limited", snap.Name)
	assert.Equal(t, 41.50, snap.LivePrice)
	assert.Equal(t, 40.00, snap.PreviousClose)
	assert.Equal(t, 35.10, snap.Low52)
	assert.Equal(t, 45.80, snap.High52)
	assert.Equal(t, int64(1756512000), snap.FetchedAt)
	assert.InDelta(t, 1.50, snap.ChangeAmount, 1e-9)
	assert.InDelta(t, 3.75, snap.ChangePercent, 1e-9)
}

func TestParseChartResponseShortNameFallback(t *testing.T) {
	f := testFeed(t)

	snap, err := f.ParseChartResponse("BHP", chartJSON(41.50, 40.00, 35.10, 45.80, ""))
	require.NoError(t, err)
	assert.Equal(t, "BHP", snap.Name)
}

func TestParseChartResponseApiError(t *testing.T) {
	f := testFeed(t)

	payload := []byte(`{
		"chart": {
			"result": null,
			"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
		}
	}`)

	_, err := f.ParseChartResponse("ZZZ", payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestParseChartResponseEmptyResult(t *testing.T) {
	f := testFeed(t)

	_, err := f.ParseChartResponse("BHP", []byte(`{"chart": {"result": [], "error": null}}`))
	require.Error(t, err)

	_, err = f.ParseChartResponse("BHP", []byte(`not json`))
	require.Error(t, err)
}

func TestParseChartResponseNoLivePrice(t *testing.T) {
	f := testFeed(t)

	_, err := f.ParseChartResponse("BHP", chartJSON(0, 40.00, 35.10, 45.80, "BHP Group Limited"))
	require.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestMetadataMerge(t *testing.T) {
	f := testFeed(t)
	f.UpdateMetadata([]models.MWatchlistEntry{
		{Code: "BHP", Name: "BHP Group", Sector: "MATERIALS"},
	})

	snap, err := f.ParseChartResponse("BHP", chartJSON(41.50, 40.00, 35.10, 45.80, "BHP Group Limited"))
	require.NoError(t, err)

	// Watchlist metadata overrides the upstream display name
	assert.Equal(t, "BHP Group", snap.Name)
	assert.Equal(t, "MATERIALS", snap.Sector)

	// Codes without metadata keep the upstream name and carry no sector
	snap2, err := f.ParseChartResponse("RIO", chartJSON(120.00, 118.00, 100.00, 130.00, "Rio Tinto Group"))
	require.NoError(t, err)
	assert.Equal(t, "Rio Tinto Group", snap2.Name)
	assert.Empty(t, snap2.Sector)
}

// -----------------------------------------------------------------------------

func TestUpdateCodes(t *testing.T) {
	f := testFeed(t)
	require.NoError(t, f.UpdateCodes([]string{"BHP", "CBA", "XJO"}))
	assert.Equal(t, []string{"BHP", "CBA", "XJO"}, f.getCodes())
}

func TestFetchSnapshotsEmpty(t *testing.T) {
	f := testFeed(t)
	snaps, err := f.FetchSnapshots(nil)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
