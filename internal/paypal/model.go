package paypal

const (
	IntentCapture   = "CAPTURE"
	StatusCompleted = "COMPLETED"
	RelApprove      = "approve"
)

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type PurchaseUnit struct {
	ReferenceID string `json:"reference_id"`
	Description string `json:"description,omitempty"`
	Amount      Amount `json:"amount"`
	CustomID    string `json:"custom_id,omitempty"`
}

type ApplicationContext struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type OrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []PurchaseUnit     `json:"purchase_units"`
	ApplicationContext ApplicationContext `json:"application_context"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

// ApproveLink returns the href the buyer must visit, or "" if the provider
// sent none.
func (o *Order) ApproveLink() string {
	for _, l := range o.Links {
		if l.Rel == RelApprove {
			return l.Href
		}
	}
	return ""
}

type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Capture) Completed() bool {
	return c.Status == StatusCompleted
}
