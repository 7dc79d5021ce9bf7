package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/auo-api/internal/auth"
	"github.com/ksred/auo-api/internal/database"
	"github.com/ksred/auo-api/internal/prefill"
	"github.com/ksred/auo-api/internal/refdata"
	"github.com/ksred/auo-api/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	minRequests   = 20
	maxRequests   = 120
	numWorkers    = 5
	serverAddress = "http://localhost:8080"
)

var (
	symbols        = []string{"RELIANCE.NS", "INFY.NS", "TCS.NS", "HDFCBANK.NS", "SBIN.NS", "UNKNOWN.NS"}
	counterparties = []string{"Client_XYZ", "Client_ABC", "Client_GHI", "Client_VWX", "Client_NEW"}
	notesPool      = []string{
		"",
		"urgent - must complete by eod compliance",
		"patient accumulation, no urgency",
		"work with VWAP through the afternoon",
		"sell into the close, TWAP ok",
		"buy immediately, rush",
		"participate in closing auction",
	}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the prefill API
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
// It authenticates with the API and prepares performance tracking
func newSimulationClient() (*simulationClient, error) {
	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"auth":    {name: "Authentication"},
			"prefill": {name: "Compute Prefill"},
			"intent":  {name: "Parse Intent"},
			"market":  {name: "Market Snapshot"},
		},
	}

	// Get auth token
	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token

	return sc, nil
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate() (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["auth"].addDuration(time.Since(start))
	}()

	credentials := map[string]string{
		"api_key":    auth.TestAPIKey,
		"api_secret": auth.TestAPISecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"jwt_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Token, nil
}

// computePrefill submits an order draft and returns the inference result
func (sc *simulationClient) computePrefill(draft map[string]any) (*types.PrefillResult, error) {
	start := time.Now()
	defer func() {
		sc.stats["prefill"].addDuration(time.Since(start))
	}()

	body, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(
		"POST",
		fmt.Sprintf("%s/api/v1/prefill", sc.baseURL),
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("response", string(respBody)).Msg("Compute prefill response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("compute prefill failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Success bool                `json:"success"`
		Data    types.PrefillResult `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	if result.Data.Metadata.RequestID == "" {
		return nil, fmt.Errorf("no request ID in response: %s", string(respBody))
	}

	return &result.Data, nil
}

// parseIntent submits order notes for structured intent extraction
func (sc *simulationClient) parseIntent(notes string) (*types.OrderIntent, error) {
	start := time.Now()
	defer func() {
		sc.stats["intent"].addDuration(time.Since(start))
	}()

	body, err := json.Marshal(map[string]string{"order_notes": notes})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(
		"POST",
		fmt.Sprintf("%s/api/v1/intent", sc.baseURL),
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("parse intent failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Success bool              `json:"success"`
		Data    types.OrderIntent `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	return &result.Data, nil
}

// getMarketSnapshot retrieves the current market snapshot for a symbol
func (sc *simulationClient) getMarketSnapshot(symbol string) (*types.MarketSnapshot, error) {
	start := time.Now()
	defer func() {
		sc.stats["market"].addDuration(time.Since(start))
	}()

	req, err := http.NewRequest(
		"GET",
		fmt.Sprintf("%s/api/v1/market/%s", sc.baseURL, symbol),
		nil,
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("get market snapshot failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Success bool                 `json:"success"`
		Data    types.MarketSnapshot `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	return &result.Data, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\n📊 API Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// main runs the prefill simulation
// It starts a local API server and simulates multiple concurrent terminal clients
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	// Initialize simulation client
	simClient, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize simulation client")
	}

	// Generate random number of prefill requests to process
	targetRequests := rand.Intn(maxRequests-minRequests) + minRequests
	log.Info().Int("target_requests", targetRequests).Msg("Starting simulation")

	// Channel to collect inference results
	resultsChan := make(chan *types.PrefillResult, targetRequests)
	var wg sync.WaitGroup

	// Start worker goroutines
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			runPrefillsHTTP(workerID, targetRequests/numWorkers, simClient, resultsChan)
		}(i)
	}

	// Wait for all requests to complete
	wg.Wait()
	close(resultsChan)

	// Collect statistics
	stats := struct {
		TotalRequests   int
		AlgoSelected    int
		CASActive       int
		StartTime       time.Time
		Classifications map[string]int
		Sides           map[string]int
	}{
		StartTime:       time.Now(),
		Classifications: make(map[string]int),
		Sides:           make(map[string]int),
	}

	for result := range resultsChan {
		stats.TotalRequests++
		stats.Classifications[string(result.Urgency.Classification)]++
		if result.UseAlgo {
			stats.AlgoSelected++
		}
		if result.MarketContext.ClosingAuctionActive {
			stats.CASActive++
		}
		if side, ok := result.Fields[types.FieldSide]; ok && side.Value != nil {
			stats.Sides[fmt.Sprintf("%v", side.Value)]++
		}
	}

	// Exercise the intent parser and market snapshot endpoints on the side
	for _, notes := range notesPool {
		if notes == "" {
			continue
		}
		if _, err := simClient.parseIntent(notes); err != nil {
			log.Error().Err(err).Str("notes", notes).Msg("Failed to parse intent")
			simClient.stats["intent"].failures++
		}
	}
	for _, symbol := range symbols {
		if _, err := simClient.getMarketSnapshot(symbol); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch market snapshot")
			simClient.stats["market"].failures++
		}
	}

	// Print summary
	duration := time.Since(stats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("🚀 PREFILL SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
📊 Inference Statistics
----------------------
Total Requests:   %d
Algo Selected:    %d
CAS Active:       %d
Duration:         %v

📈 Urgency Distribution
----------------------
`, stats.TotalRequests, stats.AlgoSelected, stats.CASActive, duration.Round(time.Millisecond))

	// Print classification distribution with simple ASCII bar chart
	maxClassCount := 0
	for _, count := range stats.Classifications {
		if count > maxClassCount {
			maxClassCount = count
		}
	}

	for class, count := range stats.Classifications {
		barLength := int(float64(count) / float64(maxClassCount) * 20)
		bar := strings.Repeat("█", barLength)
		fmt.Printf("%-8s: %s (%d)\n", class, bar, count)
	}

	fmt.Println("\n📉 Side Distribution")
	fmt.Println("------------------")
	for side, count := range stats.Sides {
		barLength := int(float64(count) / float64(stats.TotalRequests) * 20)
		bar := strings.Repeat("█", barLength)
		fmt.Printf("%-4s: %s (%d)\n", side, bar, count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	log.Info().
		Int("total_requests", stats.TotalRequests).
		Int("algo_selected", stats.AlgoSelected).
		Int("cas_active", stats.CASActive).
		Dur("duration", duration).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}

// runPrefillsHTTP generates and submits random order drafts to the API
// Runs as a worker goroutine, sending inference results to resultsChan
func runPrefillsHTTP(workerID, numRequests int, simClient *simulationClient, resultsChan chan<- *types.PrefillResult) {
	for i := 0; i < numRequests; i++ {
		draft := map[string]any{
			"symbol":        symbols[rand.Intn(len(symbols))],
			"cpty_id":       counterparties[rand.Intn(len(counterparties))],
			"size":          int64(rand.Intn(200000) + 500),
			"order_notes":   notesPool[rand.Intn(len(notesPool))],
			"time_to_close": rand.Intn(390),
		}

		result, err := simClient.computePrefill(draft)
		if err != nil {
			log.Error().Err(err).
				Str("worker_id", fmt.Sprintf("%d", workerID)).
				Str("symbol", fmt.Sprintf("%v", draft["symbol"])).
				Msg("Failed to compute prefill")
			simClient.stats["prefill"].failures++
			continue
		}

		resultsChan <- result
		log.Info().
			Str("worker_id", fmt.Sprintf("%d", workerID)).
			Str("request_id", result.Metadata.RequestID).
			Str("symbol", fmt.Sprintf("%v", draft["symbol"])).
			Int("urgency_score", result.Urgency.Score).
			Str("classification", string(result.Urgency.Classification)).
			Bool("use_algo", result.UseAlgo).
			Msg("Prefill computed")

		// Random sleep between requests
		time.Sleep(time.Duration(rand.Intn(300)) * time.Millisecond)
	}
}

// startServer initializes and starts the prefill API server
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase("simulation.db")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	authService := auth.NewService("auo-secret-key")
	refdataService := refdata.NewService(db)
	prefillService := prefill.NewService(refdataService, refdataService)

	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	// Initialize router
	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	refdataHandlers := refdata.NewGinHandlers(refdataService)
	prefillHandlers := prefill.NewGinHandlers(prefillService, refdataService)

	// Setup routes
	setupRoutes(router, authHandlers, prefillHandlers, refdataHandlers)

	// Start the server
	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Groups routes by functionality; auth middleware is skipped for the local run
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	prefillHandlers *prefill.GinHandlers,
	refdataHandlers *refdata.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Prefill routes
		v1.POST("/prefill", prefillHandlers.ComputePrefillHandler())
		v1.POST("/intent", prefillHandlers.ParseIntentHandler())
		v1.GET("/market/:symbol", refdataHandlers.GetMarketSnapshotHandler())
		v1.GET("/counterparties", refdataHandlers.ListCounterpartiesHandler())

		// Internal routes
		internal := v1.Group("/internal")
		{
			internal.PUT("/market/:symbol/ttc", refdataHandlers.UpdateTimeToCloseHandler())
		}
	}
}
