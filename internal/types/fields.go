package types

// Field names used as keys in Fields. They match the wire names the ticket UI
// binds to, so they double as JSON keys inside prefilled_params.
const (
	FieldInstrument       = "instrument"
	FieldSide             = "side"
	FieldQuantity         = "quantity"
	FieldOrderType        = "order_type"
	FieldPriceType        = "price_type"
	FieldLimitPrice       = "limit_price"
	FieldTIF              = "tif"
	FieldReleaseDate      = "release_date"
	FieldHold             = "hold"
	FieldCategory         = "category"
	FieldCapacity         = "capacity"
	FieldAccount          = "account"
	FieldService          = "service"
	FieldExecutor         = "executor"
	FieldPricing          = "pricing"
	FieldLayering         = "layering"
	FieldUrgencySetting   = "urgency_setting"
	FieldGetDone          = "get_done"
	FieldOpeningPrint     = "opening_print"
	FieldOpeningPct       = "opening_pct"
	FieldClosingPrint     = "closing_print"
	FieldClosingPct       = "closing_pct"
	FieldMinCrossQty      = "min_cross_qty"
	FieldMaxCrossQty      = "max_cross_qty"
	FieldCrossQtyUnit     = "cross_qty_unit"
	FieldLeaveActiveSlice = "leave_active_slice"
	FieldIWouldPrice      = "iwould_price"
	FieldIWouldQty        = "iwould_qty"
	FieldLimitOption      = "limit_option"
	FieldLimitOffset      = "limit_offset"
	FieldOffsetUnit       = "offset_unit"
)

// DriverField is the one field whose manual override feeds back into the next
// OrderInput and triggers a full, cascading re-inference. Every other override
// is cosmetic and only pins its own displayed value.
const DriverField = FieldSide
