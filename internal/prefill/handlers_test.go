package prefill

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ksred/auo-api/internal/refdata"
	"github.com/ksred/auo-api/internal/types"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.MarketSnapshot{}, &types.CounterpartyProfile{}))
	require.NoError(t, refdata.Seed(db))

	refdataService := refdata.NewService(db)
	service := NewService(refdataService, refdataService)
	handlers := NewGinHandlers(service, refdataService)

	router := gin.New()
	router.POST("/api/v1/prefill", handlers.ComputePrefillHandler())
	router.POST("/api/v1/intent", handlers.ParseIntentHandler())
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestComputePrefillHandler(t *testing.T) {
	router := testRouter(t)

	w := postJSON(t, router, "/api/v1/prefill", gin.H{
		"symbol":        "RELIANCE.NS",
		"cpty_id":       "Client_XYZ",
		"size":          50000,
		"order_notes":   "urgent - must complete by eod compliance",
		"time_to_close": 20,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool                `json:"success"`
		Data    types.PrefillResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 85, resp.Data.Urgency.Score)
	assert.Equal(t, types.UrgencyCritical, resp.Data.Urgency.Classification)
	assert.True(t, resp.Data.MarketContext.ClosingAuctionActive)
	assert.Equal(t, "CAS", resp.Data.Fields[types.FieldTIF].Value)
	assert.NotEmpty(t, resp.Data.Metadata.RequestID)
}

func TestComputePrefillHandlerDefaultsTimeToClose(t *testing.T) {
	router := testRouter(t)

	// No time_to_close in the request: the market feed's clock applies.
	w := postJSON(t, router, "/api/v1/prefill", gin.H{
		"symbol":  "RELIANCE.NS",
		"cpty_id": "Client_XYZ",
		"size":    1000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data types.PrefillResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 180, resp.Data.MarketContext.TimeToCloseMinutes)
	assert.False(t, resp.Data.MarketContext.ClosingAuctionActive)
}

func TestComputePrefillHandlerManualSide(t *testing.T) {
	router := testRouter(t)

	w := postJSON(t, router, "/api/v1/prefill", gin.H{
		"symbol":        "RELIANCE.NS",
		"cpty_id":       "Client_XYZ",
		"size":          1000,
		"side":          "Sell",
		"time_to_close": 180,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data types.PrefillResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Sell", resp.Data.Fields[types.FieldSide].Value)
}

func TestComputePrefillHandlerValidation(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name    string
		payload gin.H
	}{
		{"missing symbol", gin.H{"cpty_id": "Client_XYZ", "size": 1000}},
		{"missing counterparty", gin.H{"symbol": "RELIANCE.NS", "size": 1000}},
		{"zero size", gin.H{"symbol": "RELIANCE.NS", "cpty_id": "Client_XYZ", "size": 0}},
		{"negative clock", gin.H{"symbol": "RELIANCE.NS", "cpty_id": "Client_XYZ", "size": 1000, "time_to_close": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/prefill", tt.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestComputePrefillHandlerMalformedJSON(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest("POST", "/api/v1/prefill", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseIntentHandler(t *testing.T) {
	router := testRouter(t)

	w := postJSON(t, router, "/api/v1/intent", gin.H{
		"order_notes": "urgent vwap by 2pm, must complete",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    types.OrderIntent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "HIGH", resp.Data.UrgencyLevel)
	assert.Equal(t, "VWAP", resp.Data.AlgoStrategy)
	assert.Equal(t, "14:00", resp.Data.DeadlineTime)
	assert.True(t, resp.Data.MustComplete)
}
