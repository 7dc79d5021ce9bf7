package refdata

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ksred/auo-api/pkg/response"
)

// GinHandlers contains HTTP handlers for reference data endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetMarketSnapshotHandler handles GET requests for a symbol's snapshot.
// Unknown symbols return the documented default-backed snapshot, not a 404,
// mirroring what the inference engine itself would see.
func (h *GinHandlers) GetMarketSnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Param("symbol")
		if symbol == "" {
			response.BadRequest(c, "Symbol is required")
			return
		}

		snap, err := h.service.MarketSnapshot(c.Request.Context(), symbol)
		response.Handle(c, snap, err)
	}
}

// ListCounterpartiesHandler handles GET requests for the counterparty directory
func (h *GinHandlers) ListCounterpartiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles, err := h.service.ListCounterparties()
		response.Handle(c, profiles, err)
	}
}

// UpdateTimeToCloseHandler handles PUT requests that move the demo market
// clock for a symbol. Internal-only; a live market feed owns this otherwise.
func (h *GinHandlers) UpdateTimeToCloseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Param("symbol")

		minutes, err := strconv.Atoi(c.Query("ttc"))
		if err != nil || minutes < 0 {
			response.BadRequest(c, "ttc must be a non-negative integer")
			return
		}

		if err := h.service.UpdateTimeToClose(symbol, minutes); err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{
			"symbol":        symbol,
			"time_to_close": minutes,
			"updated":       true,
		})
	}
}
