package prefill

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ksred/auo-api/internal/intent"
	"github.com/ksred/auo-api/internal/refdata"
	"github.com/ksred/auo-api/internal/types"
	"github.com/ksred/auo-api/pkg/response"
)

// GinHandlers contains HTTP handlers for the prefill endpoints
type GinHandlers struct {
	service *Service
	refdata *refdata.Service
}

func NewGinHandlers(service *Service, refdataService *refdata.Service) *GinHandlers {
	return &GinHandlers{
		service: service,
		refdata: refdataService,
	}
}

// prefillRequest is the wire shape of a prefill call. TimeToClose is optional:
// when absent, the market feed's clock for the symbol is used.
type prefillRequest struct {
	Symbol         string     `json:"symbol"`
	CounterpartyID string     `json:"cpty_id"`
	Quantity       int64      `json:"size"`
	Notes          string     `json:"order_notes"`
	TimeToClose    *int       `json:"time_to_close"`
	Side           types.Side `json:"side"`
}

// ComputePrefillHandler handles POST requests for a full parameter inference.
// Structurally invalid input is a 400; unknown reference keys are not errors.
func (h *GinHandlers) ComputePrefillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prefillRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		input := types.OrderInput{
			Symbol:         req.Symbol,
			CounterpartyID: req.CounterpartyID,
			Quantity:       req.Quantity,
			Notes:          req.Notes,
			ManualSide:     req.Side,
		}

		if req.TimeToClose != nil {
			input.TimeToCloseMinutes = *req.TimeToClose
		} else if req.Symbol != "" {
			snap, err := h.refdata.MarketSnapshot(c.Request.Context(), req.Symbol)
			if err != nil {
				response.InternalError(c, "market clock unavailable")
				return
			}
			input.TimeToCloseMinutes = snap.TimeToClose
		}

		result, err := h.service.ComputePrefill(c.Request.Context(), input)
		if err != nil {
			if isValidationError(err) {
				response.BadRequest(c, err.Error())
				return
			}
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, result)
	}
}

// ParseIntentHandler handles POST requests that parse order notes into a
// structured intent without running the full inference.
func (h *GinHandlers) ParseIntentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Notes string `json:"order_notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		response.Success(c, intent.Parse(req.Notes))
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingSymbol) ||
		errors.Is(err, ErrMissingCounterparty) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidTimeToClose)
}
