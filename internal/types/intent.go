package types

// OrderIntent is the structured reading of a free-text order note. It is
// advisory metadata attached to a PrefillResult; the field derivations
// themselves only consume the raw note text.
type OrderIntent struct {
	UrgencyLevel         string   `json:"urgency_level"`
	AlgoStrategy         string   `json:"algo_strategy,omitempty"`
	ExecutionStyle       string   `json:"execution_style"`
	SessionTarget        string   `json:"session_target,omitempty"`
	DeadlineTime         string   `json:"deadline_time,omitempty"`
	MustComplete         bool     `json:"must_complete"`
	PriceSensitivity     string   `json:"price_sensitivity"`
	ExplicitInstructions []string `json:"explicit_instructions"`
	ConfidenceScore      float64  `json:"confidence_score"`
}
