package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/asset"
	"github.com/nishant946/masset/internal/auth"
	"github.com/nishant946/masset/internal/events"
	"github.com/nishant946/masset/internal/ledger"
	"github.com/nishant946/masset/internal/logger"
	"github.com/nishant946/masset/internal/metrics"
	"github.com/nishant946/masset/internal/paypal"
)

type AssetFinder interface {
	FindByID(ctx context.Context, id string) (*asset.Asset, error)
}

type Ledger interface {
	HasPurchased(ctx context.Context, userID, assetID string) (bool, error)
	Record(ctx context.Context, assetID, providerTransactionID, userID string, price decimal.Decimal) ledger.RecordResult
}

type Provider interface {
	CreateOrder(ctx context.Context, req paypal.OrderRequest) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error)
}

type Publisher interface {
	PublishPurchaseCompleted(ctx context.Context, ev events.PurchaseCompleted) error
}

type Service interface {
	Initiate(ctx context.Context, session *auth.Session, assetID string) (*InitiateResult, error)
	Confirm(ctx context.Context, session *auth.Session, cb Callback) Outcome
}

type service struct {
	assets    AssetFinder
	ledger    Ledger
	provider  Provider
	publisher Publisher
	cfg       Config
}

// NewService wires the purchase flow. publisher may be nil, in which case no
// purchase.completed events are emitted.
func NewService(assets AssetFinder, ledger Ledger, provider Provider, publisher Publisher, cfg Config) Service {
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return &service{
		assets:    assets,
		ledger:    ledger,
		provider:  provider,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *service) Initiate(ctx context.Context, session *auth.Session, assetID string) (*InitiateResult, error) {
	if d := auth.Authorize(session, auth.RoleUser); !d.Allowed() {
		return nil, apperr.Unauthorized(d.Reason)
	}

	a, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		metrics.RecordOrderInitiated("failed")
		if !apperr.Is(err, apperr.KindNotFound) {
			logger.Error("Failed to load asset for order", "user_id", session.UserID, "asset_id", assetID, "error", err)
		}
		return nil, err
	}
	if a.Status != asset.StatusApproved {
		metrics.RecordOrderInitiated("failed")
		return nil, apperr.NotFound("Asset not found")
	}

	owned, err := s.ledger.HasPurchased(ctx, session.UserID, a.ID)
	if err != nil {
		metrics.RecordOrderInitiated("failed")
		logger.Error("Failed to check existing purchase", "user_id", session.UserID, "asset_id", a.ID, "error", err)
		return nil, err
	}
	if owned {
		metrics.RecordOrderInitiated("already_purchased")
		return &InitiateResult{AlreadyPurchased: true}, nil
	}

	order, err := s.provider.CreateOrder(ctx, s.orderRequest(session.UserID, a))
	if err != nil {
		metrics.RecordOrderInitiated("failed")
		return nil, apperr.ExternalProvider(err, "Failed to create PayPal order")
	}
	if order.ID == "" {
		metrics.RecordOrderInitiated("failed")
		logger.Error("PayPal order response has no id", "asset_id", a.ID, "order", fmt.Sprintf("%+v", *order))
		return nil, apperr.New(apperr.KindExternalProvider, "Failed to create PayPal order")
	}
	link := order.ApproveLink()
	if link == "" {
		metrics.RecordOrderInitiated("failed")
		logger.Error("PayPal order response has no approval link", "order_id", order.ID, "links", fmt.Sprintf("%+v", order.Links))
		return nil, apperr.New(apperr.KindExternalProvider, "Failed to find approval link in PayPal response")
	}

	metrics.RecordOrderInitiated("created")
	logger.Info("PayPal order created", "order_id", order.ID, "user_id", session.UserID, "asset_id", a.ID)
	return &InitiateResult{OrderID: order.ID, ApprovalLink: link}, nil
}

func (s *service) orderRequest(userID string, a *asset.Asset) paypal.OrderRequest {
	return paypal.OrderRequest{
		Intent: paypal.IntentCapture,
		PurchaseUnits: []paypal.PurchaseUnit{{
			ReferenceID: a.ID,
			Description: a.Title,
			Amount: paypal.Amount{
				CurrencyCode: s.cfg.Currency,
				Value:        s.cfg.Price.StringFixed(2),
			},
			CustomID: userID + "-" + a.ID,
		}},
		ApplicationContext: paypal.ApplicationContext{
			ReturnURL: s.cfg.AppURL + "/api/paypal/capture?assetId=" + url.QueryEscape(a.ID),
			CancelURL: s.cfg.AppURL + "/gallery/" + url.PathEscape(a.ID) + "?cancelled=true",
		},
	}
}

// Confirm drives one provider callback to a terminal state. The capture call
// happens at most once; every path ends in exactly one redirect.
func (s *service) Confirm(ctx context.Context, session *auth.Session, cb Callback) Outcome {
	at := &attempt{cb: cb, stage: AwaitingCallback, started: time.Now()}

	if !cb.complete() {
		return at.abort("/gallery", "missing callback parameters")
	}

	at.advance(Verifying)
	if session == nil || session.UserID == "" {
		return at.abort("/login", "no session")
	}
	at.userID = session.UserID

	a, err := s.assets.FindByID(ctx, cb.AssetID)
	if apperr.Is(err, apperr.KindNotFound) {
		return at.abort("/gallery", "asset not found")
	}
	if err != nil {
		return at.fail("asset lookup failed", err)
	}

	at.advance(Capturing)
	capture, err := s.provider.CaptureOrder(ctx, cb.Token)
	if err != nil {
		return at.fail("capture failed", err)
	}
	if !capture.Completed() {
		return at.fail("capture status "+capture.Status, nil)
	}

	at.advance(Recording)
	result := s.ledger.Record(ctx, a.ID, cb.Token, session.UserID, s.cfg.Price)
	if !result.Success {
		return at.fail("ledger record failed", nil)
	}

	if !result.AlreadyExists {
		s.publish(ctx, session, a, cb.Token, result.PurchaseID)
	}

	return at.complete()
}

func (s *service) publish(ctx context.Context, session *auth.Session, a *asset.Asset, token, purchaseID string) {
	if s.publisher == nil {
		return
	}
	ev := events.PurchaseCompleted{
		PurchaseID:    purchaseID,
		UserID:        session.UserID,
		BuyerEmail:    session.Email,
		BuyerName:     session.Name,
		AssetID:       a.ID,
		AssetTitle:    a.Title,
		TransactionID: token,
		Amount:        ledger.MinorUnits(s.cfg.Price),
		Currency:      s.cfg.Currency,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishPurchaseCompleted(ctx, ev); err != nil {
		logger.Warn("Purchase recorded but event not published", "purchase_id", purchaseID, "error", err)
	}
}

// attempt tracks one callback through the state machine for logging.
type attempt struct {
	cb      Callback
	userID  string
	stage   State
	started time.Time
}

func (a *attempt) advance(next State) {
	logger.Debug("Capture callback transition", "from", a.stage, "to", next, "token", a.cb.Token, "asset_id", a.cb.AssetID)
	a.stage = next
}

// abort ends the attempt on a fallback view without an error indicator.
func (a *attempt) abort(redirect, reason string) Outcome {
	logger.Warn("Capture callback aborted", "stage", a.stage, "reason", reason, "token", a.cb.Token, "asset_id", a.cb.AssetID)
	metrics.RecordCapture("aborted")
	return Outcome{State: Failed, Stage: a.stage, Redirect: redirect, Reason: reason}
}

func (a *attempt) fail(reason string, err error) Outcome {
	logger.Error("Capture callback failed",
		"stage", a.stage,
		"reason", reason,
		"token", a.cb.Token,
		"asset_id", a.cb.AssetID,
		"user_id", a.userID,
		"error", err,
	)
	metrics.RecordCapture(string(Failed))
	return Outcome{
		State:    Failed,
		Stage:    a.stage,
		Redirect: assetPath(a.cb.AssetID) + "?error=true",
		Reason:   reason,
	}
}

func (a *attempt) complete() Outcome {
	a.advance(Completed)
	logger.Info("Capture callback completed",
		"token", a.cb.Token,
		"asset_id", a.cb.AssetID,
		"user_id", a.userID,
		"duration_ms", time.Since(a.started).Milliseconds(),
	)
	metrics.RecordCapture(string(Completed))
	return Outcome{State: Completed, Stage: Completed, Redirect: assetPath(a.cb.AssetID) + "?success=true"}
}

func assetPath(assetID string) string {
	return "/gallery/" + url.PathEscape(assetID)
}
