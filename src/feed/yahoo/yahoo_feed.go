package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"portfolio-observer/src/helpers"
	"portfolio-observer/src/interfaces"
	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
	"portfolio-observer/src/utils"
)

// symbolAliases maps dashboard/market codes to the upstream chart symbols.
// Everything else is assumed to be an ASX listing and gets the .AX suffix.
var symbolAliases = map[string]string{
	"XJO":    "^AXJO",
	"XAO":    "^AORD",
	"XKO":    "^AXKO",
	"XSO":    "^AXSO",
	"AUDUSD": "AUDUSD=X",
	"AUDEUR": "AUDEUR=X",
	"AUDGBP": "AUDGBP=X",
	"GOLD":   "GC=F",
	"SILVER": "SI=F",
	"WTI":    "CL=F",
	"BRENT":  "BZ=F",
	"BTCAUD": "BTC-AUD",
}

// -----------------------------------------------------------------------------

// YahooPriceFeed polls the chart endpoint for the tracked codes and emits one
// snapshot batch per cycle. The rest of the application never sees upstream
// symbols: alias resolution and watchlist metadata merging happen here.
type YahooPriceFeed struct {
	Config          *models.MConfig
	codes           atomic.Value // []string
	Network         interfaces.INetworkManager
	Logger          *logger.Logger
	Limiter         *rate.Limiter
	MarketScheduler *utils.MarketScheduler

	metadata   map[string]models.MWatchlistEntry
	metadataMu sync.RWMutex

	lastFetched   map[string]time.Time
	lastFetchedMu sync.RWMutex

	cancelFunc context.CancelFunc
	ctx        context.Context
	outputChan chan<- map[string]models.MInstrumentSnapshot
	isRunning  atomic.Bool
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewYahooPriceFeed(cfg *models.MConfig, codes []string, netMgr interfaces.INetworkManager, log *logger.Logger) *YahooPriceFeed {
	rps := cfg.Network.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	f := &YahooPriceFeed{
		Config:          cfg,
		Network:         netMgr,
		Logger:          log.Named("YahooPriceFeed"),
		Limiter:         rate.NewLimiter(rate.Limit(rps), 1),
		MarketScheduler: utils.NewMarketScheduler(upstreamSymbols(codes), log.Named("MarketScheduler")),
		metadata:        make(map[string]models.MWatchlistEntry),
		lastFetched:     make(map[string]time.Time),
	}
	f.codes.Store(codes)
	return f
}

// -----------------------------------------------------------------------------

func (f *YahooPriceFeed) Name() string {
	name := f.Config.Feed.Name
	if name == "" {
		name = "yahoo"
	}
	return name
}

// -----------------------------------------------------------------------------

// UpdateMetadata refreshes the name/sector overlay merged into snapshots.
func (f *YahooPriceFeed) UpdateMetadata(entries []models.MWatchlistEntry) {
	f.metadataMu.Lock()
	defer f.metadataMu.Unlock()

	f.metadata = make(map[string]models.MWatchlistEntry, len(entries))
	for _, e := range entries {
		f.metadata[e.Code] = e
	}
}

// -----------------------------------------------------------------------------

func (f *YahooPriceFeed) UpdateCodes(codes []string) error {
	f.codes.Store(codes)
	f.MarketScheduler.UpdateCodes(upstreamSymbols(codes))
	f.Logger.Info("Updated code list. New count: %d", len(codes))
	return nil
}

func (f *YahooPriceFeed) getCodes() []string {
	return f.codes.Load().([]string)
}

// -----------------------------------------------------------------------------

func upstreamSymbol(code string) string {
	if alias, ok := symbolAliases[code]; ok {
		return alias
	}
	for i := 0; i < len(code); i++ {
		if code[i] == '.' {
			return code // already suffixed
		}
	}
	return code + ".AX"
}

func upstreamSymbols(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = upstreamSymbol(c)
	}
	return out
}

// -----------------------------------------------------------------------------

// FetchSnapshots fetches the given codes concurrently. A failed code is
// simply absent from the result; the caller treats missing codes as
// "no change".
func (f *YahooPriceFeed) FetchSnapshots(codes []string) (map[string]models.MInstrumentSnapshot, error) {
	if len(codes) == 0 {
		return make(map[string]models.MInstrumentSnapshot), nil
	}

	results := make(map[string]models.MInstrumentSnapshot)
	var mu sync.Mutex
	var wg sync.WaitGroup
	errors := make([]error, 0, len(codes))
	var errorsMu sync.Mutex

	concurrent := f.Config.Network.ConcurrentRequests
	if concurrent <= 0 {
		concurrent = 4
	}
	sem := make(chan struct{}, concurrent)

	for _, code := range codes {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// Pace requests so the upstream does not throttle us
			if err := f.Limiter.Wait(context.Background()); err != nil {
				return
			}

			snap, err := f.fetchSnapshot(c)
			if err != nil {
				f.Logger.Info("Error fetching %s: %v", c, err)
				errorsMu.Lock()
				errors = append(errors, err)
				errorsMu.Unlock()
				return
			}

			mu.Lock()
			results[c] = snap
			mu.Unlock()
		}(code)
	}

	wg.Wait()

	f.Logger.Info("Yahoo: fetched %d/%d codes successfully", len(results), len(codes))

	if len(results) == 0 && len(errors) > 0 {
		return results, fmt.Errorf("all fetches failed: %v", errors[0])
	}

	f.lastFetchedMu.Lock()
	now := time.Now().UTC()
	for c := range results {
		f.lastFetched[c] = now
	}
	f.lastFetchedMu.Unlock()

	return results, nil
}

// -----------------------------------------------------------------------------

func (f *YahooPriceFeed) fetchSnapshot(code string) (models.MInstrumentSnapshot, error) {
	params := map[string]string{
		"interval":       "1d",
		"range":          "1d",
		"includePrePost": "false",
	}

	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s", upstreamSymbol(code))

	respBytes, err := f.Network.Get(url, params)
	if err != nil {
		return models.MInstrumentSnapshot{}, helpers.NewFeedError(fmt.Sprintf("fetch failed for %s", code), err)
	}

	return f.ParseChartResponse(code, respBytes)
}

// -----------------------------------------------------------------------------

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				InstrumentType     string  `json:"instrumentType"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

// ParseChartResponse builds a snapshot from the chart meta block. Change
// figures derive from chartPreviousClose; watchlist metadata overrides the
// upstream display name and supplies the sector.
func (f *YahooPriceFeed) ParseChartResponse(code string, data []byte) (models.MInstrumentSnapshot, error) {
	var resp yahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.MInstrumentSnapshot{}, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return models.MInstrumentSnapshot{}, fmt.Errorf("yahoo api error: %s - %s",
			resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 {
		return models.MInstrumentSnapshot{}, fmt.Errorf("no result in response for %s", code)
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return models.MInstrumentSnapshot{}, fmt.Errorf("no live price for %s", code)
	}

	fetchedAt := meta.RegularMarketTime
	if fetchedAt == 0 {
		fetchedAt = time.Now().UTC().Unix()
	}

	snap := models.MInstrumentSnapshot{
		Code:          code,
		Name:          meta.ShortName,
		LivePrice:     meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
		Low52:         meta.FiftyTwoWeekLow,
		High52:        meta.FiftyTwoWeekHigh,
		FetchedAt:     fetchedAt,
		CreatedAt:     time.Now().UTC(),
	}
	if meta.LongName != "" {
		snap.Name = meta.LongName
	}
	snap.DeriveChange()

	f.metadataMu.RLock()
	if entry, ok := f.metadata[code]; ok {
		if entry.Name != "" {
			snap.Name = entry.Name
		}
		snap.Sector = entry.Sector
	}
	f.metadataMu.RUnlock()

	return snap, nil
}

// -----------------------------------------------------------------------------

// Start begins the periodic fetch loop.
func (f *YahooPriceFeed) Start(parentCtx context.Context, outputChan chan<- map[string]models.MInstrumentSnapshot, wg *sync.WaitGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isRunning.Load() {
		return fmt.Errorf("feed %s is already running", f.Name())
	}

	ctx, cancel := context.WithCancel(parentCtx)
	f.cancelFunc = cancel
	f.ctx = ctx
	f.outputChan = outputChan
	f.isRunning.Store(true)

	wg.Add(1)
	go f.runLoop(ctx, wg)
	f.Logger.Info("Started feed: %s", f.Name())
	return nil
}

// -----------------------------------------------------------------------------

func (f *YahooPriceFeed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isRunning.Load() {
		return fmt.Errorf("feed %s is not running", f.Name())
	}

	if f.cancelFunc != nil {
		f.cancelFunc()
	}
	f.isRunning.Store(false)
	f.Logger.Info("Stopped feed: %s", f.Name())
	return nil
}

// -----------------------------------------------------------------------------

func (f *YahooPriceFeed) push(snaps map[string]models.MInstrumentSnapshot) error {
	if f.outputChan == nil {
		return fmt.Errorf("output channel is nil")
	}

	select {
	case f.outputChan <- snaps:
		return nil
	case <-f.ctx.Done():
		return f.ctx.Err()
	}
}

// -----------------------------------------------------------------------------

// staleCodes returns the codes due for a refresh. With every market closed
// only codes past the freshness window are refetched, which keeps FX and
// crypto moving without hammering listings that cannot change.
func (f *YahooPriceFeed) staleCodes() []string {
	codes := f.getCodes()
	if f.MarketScheduler.AnyMarketOpen() {
		return codes
	}

	freshness := time.Duration(f.Config.Feed.FreshnessMinutes) * time.Minute
	if freshness <= 0 {
		freshness = 5 * time.Minute
	}

	cutoff := time.Now().UTC().Add(-freshness)

	f.lastFetchedMu.RLock()
	defer f.lastFetchedMu.RUnlock()

	var due []string
	for _, c := range codes {
		if last, ok := f.lastFetched[c]; !ok || last.Before(cutoff) {
			due = append(due, c)
		}
	}
	return due
}

// -----------------------------------------------------------------------------

func (f *YahooPriceFeed) runLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	interval := time.Duration(f.Config.Feed.UpdateIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due := f.staleCodes()
			if len(due) == 0 {
				continue
			}

			snaps, err := f.FetchSnapshots(due)
			if err != nil {
				f.Logger.Info("Fetch cycle failed: %v", err)
				continue
			}

			if len(snaps) > 0 {
				if err := f.push(snaps); err != nil {
					return
				}
			}
		}
	}
}
