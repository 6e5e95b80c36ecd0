package checkout

import (
	"github.com/shopspring/decimal"
)

// State is a step of the capture callback state machine.
type State string

const (
	AwaitingCallback State = "awaiting_callback"
	Verifying        State = "verifying"
	Capturing        State = "capturing"
	Recording        State = "recording"
	Completed        State = "completed"
	Failed           State = "failed"
)

type Config struct {
	AppURL   string
	Price    decimal.Decimal
	Currency string
}

type InitiateResult struct {
	AlreadyPurchased bool   `json:"alreadyPurchased"`
	OrderID          string `json:"orderId,omitempty"`
	ApprovalLink     string `json:"approvalLink,omitempty"`
}

// Callback is what the provider sends back on the return URL.
type Callback struct {
	Token   string
	AssetID string
	PayerID string
}

func (cb Callback) complete() bool {
	return cb.Token != "" && cb.AssetID != "" && cb.PayerID != ""
}

// Outcome is the terminal result of one callback. Stage is the state the
// attempt was in when it finished; Redirect is always set.
type Outcome struct {
	State    State
	Stage    State
	Redirect string
	Reason   string
}
