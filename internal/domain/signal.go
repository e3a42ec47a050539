package domain

// Action is the direction of a trade signal.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Signal is a single trade proposal from a signal producer. The governor
// treats it as untrusted input: structure is validated here, quality
// (confidence floor) is enforced as a policy check.
type Signal struct {
	Symbol     string
	Action     Action
	Price      float64
	Confidence float64 // 0.0 – 1.0
	SizeHint   float64 // proposed notional in quote currency; 0 = let the governor size it
}

// Validate returns a *ValidationError describing the first structural problem,
// or nil if the signal is well formed. Policy concerns (confidence floor,
// size limits) are deliberately not checked here.
func (s Signal) Validate() error {
	if s.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if s.Action != ActionBuy && s.Action != ActionSell {
		return &ValidationError{Field: "action", Reason: "must be buy or sell"}
	}
	if s.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return &ValidationError{Field: "confidence", Reason: "must be in [0,1]"}
	}
	if s.SizeHint < 0 {
		return &ValidationError{Field: "size_hint", Reason: "must not be negative"}
	}
	return nil
}
