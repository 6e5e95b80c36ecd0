package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/asset"
	"github.com/nishant946/masset/internal/auth"
	"github.com/nishant946/masset/internal/events"
	"github.com/nishant946/masset/internal/ledger"
	"github.com/nishant946/masset/internal/paypal"
)

type fakeAssets map[string]*asset.Asset

func (f fakeAssets) FindByID(_ context.Context, id string) (*asset.Asset, error) {
	a, ok := f[id]
	if !ok {
		return nil, apperr.NotFound("Asset not found")
	}
	return a, nil
}

type fakeProvider struct {
	mu           sync.Mutex
	order        *paypal.Order
	orderErr     error
	capture      *paypal.Capture
	captureErr   error
	createCalls  []paypal.OrderRequest
	captureCalls []string
}

func (f *fakeProvider) CreateOrder(_ context.Context, req paypal.OrderRequest) (*paypal.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, req)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.order, nil
}

func (f *fakeProvider) CaptureOrder(_ context.Context, orderID string) (*paypal.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captureCalls = append(f.captureCalls, orderID)
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return f.capture, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.PurchaseCompleted
	err    error
}

func (f *fakePublisher) PublishPurchaseCompleted(_ context.Context, ev events.PurchaseCompleted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

// memLedger stands in for the payments/purchases tables, including the
// unique (user_id, asset_id) constraint.
type memLedger struct {
	mu        sync.Mutex
	payments  []ledger.Payment
	purchases []ledger.Purchase
	fail      error
}

func (m *memLedger) Record(_ context.Context, e ledger.Entry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", m.fail
	}
	for _, p := range m.purchases {
		if p.UserID == e.UserID && p.AssetID == e.AssetID {
			return "", ledger.ErrAlreadyPurchased
		}
	}
	pay := ledger.Payment{
		ID:                    fmt.Sprintf("pay-%d", len(m.payments)+1),
		Amount:                e.Amount,
		Currency:              e.Currency,
		Status:                ledger.PaymentCompleted,
		Provider:              ledger.ProviderPayPal,
		ProviderTransactionID: e.ProviderTransactionID,
		UserID:                e.UserID,
	}
	pur := ledger.Purchase{
		ID:        fmt.Sprintf("pur-%d", len(m.purchases)+1),
		UserID:    e.UserID,
		AssetID:   e.AssetID,
		PaymentID: pay.ID,
		Price:     e.Amount,
	}
	m.payments = append(m.payments, pay)
	m.purchases = append(m.purchases, pur)
	return pur.ID, nil
}

func (m *memLedger) HasPurchased(_ context.Context, userID, assetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.purchases {
		if p.UserID == userID && p.AssetID == assetID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLedger) ListForUser(context.Context, string) ([]ledger.OwnedAsset, error) {
	return nil, nil
}

func (m *memLedger) Stats(context.Context) (ledger.Stats, error) {
	return ledger.Stats{}, nil
}

type fixture struct {
	svc       Service
	provider  *fakeProvider
	store     *memLedger
	publisher *fakePublisher
}

var buyer = &auth.Session{UserID: "u1", Email: "u1@example.com", Name: "Buyer", Role: auth.RoleUser}

func newFixture() *fixture {
	provider := &fakeProvider{
		order: &paypal.Order{ID: "ORD1", Status: "CREATED", Links: []paypal.Link{
			{Href: "https://provider/orders/ORD1", Rel: "self"},
			{Href: "https://provider/approve/ORD1", Rel: "approve"},
		}},
		capture: &paypal.Capture{ID: "ORD1", Status: paypal.StatusCompleted},
	}
	store := &memLedger{}
	publisher := &fakePublisher{}
	assets := fakeAssets{
		"a1":      {ID: "a1", Title: "Neon Pack", Status: asset.StatusApproved, UserID: "creator"},
		"pending": {ID: "pending", Title: "Draft", Status: asset.StatusPending, UserID: "creator"},
	}

	svc := NewService(assets, ledger.NewService(store, "USD"), provider, publisher, Config{
		AppURL:   "https://market.example.com/",
		Price:    decimal.RequireFromString("5.00"),
		Currency: "USD",
	})
	return &fixture{svc: svc, provider: provider, store: store, publisher: publisher}
}

func TestPurchaseScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	started, err := f.svc.Initiate(ctx, buyer, "a1")
	require.NoError(t, err)
	assert.False(t, started.AlreadyPurchased)
	assert.Equal(t, "ORD1", started.OrderID)
	assert.Equal(t, "https://provider/approve/ORD1", started.ApprovalLink)

	outcome := f.svc.Confirm(ctx, buyer, Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"})
	assert.Equal(t, Completed, outcome.State)
	assert.Equal(t, "/gallery/a1?success=true", outcome.Redirect)

	require.Len(t, f.store.payments, 1)
	require.Len(t, f.store.purchases, 1)
	pay := f.store.payments[0]
	assert.Equal(t, int64(500), pay.Amount)
	assert.Equal(t, "USD", pay.Currency)
	assert.Equal(t, ledger.PaymentCompleted, pay.Status)
	assert.Equal(t, "ORD1", pay.ProviderTransactionID)
	assert.Equal(t, int64(500), f.store.purchases[0].Price)
	assert.Equal(t, pay.ID, f.store.purchases[0].PaymentID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "u1@example.com", f.publisher.events[0].BuyerEmail)
	assert.Equal(t, int64(500), f.publisher.events[0].Amount)
}

func TestInitiate_OrderRequest(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Initiate(context.Background(), buyer, "a1")
	require.NoError(t, err)

	require.Len(t, f.provider.createCalls, 1)
	req := f.provider.createCalls[0]
	assert.Equal(t, paypal.IntentCapture, req.Intent)
	require.Len(t, req.PurchaseUnits, 1)
	unit := req.PurchaseUnits[0]
	assert.Equal(t, "a1", unit.ReferenceID)
	assert.Equal(t, "Neon Pack", unit.Description)
	assert.Equal(t, paypal.Amount{CurrencyCode: "USD", Value: "5.00"}, unit.Amount)
	assert.Equal(t, "u1-a1", unit.CustomID)
	assert.Equal(t, "https://market.example.com/api/paypal/capture?assetId=a1", req.ApplicationContext.ReturnURL)
	assert.Equal(t, "https://market.example.com/gallery/a1?cancelled=true", req.ApplicationContext.CancelURL)
}

func TestInitiate_AlreadyPurchasedSkipsProvider(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.Confirm(ctx, buyer, Callback{Token: "ORD0", AssetID: "a1", PayerID: "p1"})

	result, err := f.svc.Initiate(ctx, buyer, "a1")
	require.NoError(t, err)
	assert.True(t, result.AlreadyPurchased)
	assert.Empty(t, result.OrderID)
	assert.Empty(t, f.provider.createCalls)
}

func TestInitiate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		session *auth.Session
		assetID string
		setup   func(*fakeProvider)
		kind    apperr.Kind
		calls   int
	}{
		{name: "anonymous", session: nil, assetID: "a1", kind: apperr.KindUnauthorized},
		{name: "unknown asset", session: buyer, assetID: "missing", kind: apperr.KindNotFound},
		{name: "unapproved asset", session: buyer, assetID: "pending", kind: apperr.KindNotFound},
		{
			name: "provider error", session: buyer, assetID: "a1", calls: 1,
			setup: func(p *fakeProvider) { p.orderErr = apperr.ExternalProvider(errors.New("timeout"), "payment provider timed out") },
			kind:  apperr.KindExternalProvider,
		},
		{
			name: "no order id", session: buyer, assetID: "a1", calls: 1,
			setup: func(p *fakeProvider) { p.order = &paypal.Order{Links: p.order.Links} },
			kind:  apperr.KindExternalProvider,
		},
		{
			name: "no approve link", session: buyer, assetID: "a1", calls: 1,
			setup: func(p *fakeProvider) { p.order = &paypal.Order{ID: "ORD1"} },
			kind:  apperr.KindExternalProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f.provider)
			}

			result, err := f.svc.Initiate(context.Background(), tt.session, tt.assetID)
			assert.Nil(t, result)
			assert.True(t, apperr.Is(err, tt.kind), "got %v", err)
			assert.Len(t, f.provider.createCalls, tt.calls)
		})
	}
}

func TestConfirm_MissingParameters(t *testing.T) {
	tests := []struct {
		name string
		cb   Callback
	}{
		{"no token", Callback{AssetID: "a1", PayerID: "p1"}},
		{"no asset", Callback{Token: "ORD1", PayerID: "p1"}},
		{"no payer", Callback{Token: "ORD1", AssetID: "a1"}},
		{"nothing", Callback{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			outcome := f.svc.Confirm(context.Background(), buyer, tt.cb)
			assert.Equal(t, "/gallery", outcome.Redirect)
			assert.Equal(t, AwaitingCallback, outcome.Stage)
			assert.Empty(t, f.provider.captureCalls)
			assert.Empty(t, f.store.purchases)
		})
	}
}

func TestConfirm_Aborts(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		f := newFixture()
		outcome := f.svc.Confirm(context.Background(), nil, Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"})
		assert.Equal(t, "/login", outcome.Redirect)
		assert.Equal(t, Verifying, outcome.Stage)
		assert.Empty(t, f.provider.captureCalls)
	})

	t.Run("asset gone", func(t *testing.T) {
		f := newFixture()
		outcome := f.svc.Confirm(context.Background(), buyer, Callback{Token: "ORD1", AssetID: "missing", PayerID: "p1"})
		assert.Equal(t, "/gallery", outcome.Redirect)
		assert.Empty(t, f.provider.captureCalls)
	})
}

func TestConfirm_CaptureNotCompleted(t *testing.T) {
	f := newFixture()
	f.provider.capture = &paypal.Capture{ID: "ORD1", Status: "PENDING"}

	outcome := f.svc.Confirm(context.Background(), buyer, Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"})

	assert.Equal(t, Failed, outcome.State)
	assert.Equal(t, Capturing, outcome.Stage)
	assert.Equal(t, "/gallery/a1?error=true", outcome.Redirect)
	assert.Len(t, f.provider.captureCalls, 1)
	assert.Empty(t, f.store.payments)
	assert.Empty(t, f.store.purchases)
	assert.Empty(t, f.publisher.events)
}

func TestConfirm_CaptureError(t *testing.T) {
	f := newFixture()
	f.provider.captureErr = apperr.ExternalProvider(errors.New("timeout"), "payment provider timed out")

	outcome := f.svc.Confirm(context.Background(), buyer, Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"})

	assert.Equal(t, "/gallery/a1?error=true", outcome.Redirect)
	assert.Len(t, f.provider.captureCalls, 1)
	assert.Empty(t, f.store.purchases)
}

func TestConfirm_LedgerFailure(t *testing.T) {
	f := newFixture()
	f.store.fail = errors.New("connection refused")

	outcome := f.svc.Confirm(context.Background(), buyer, Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"})

	assert.Equal(t, Failed, outcome.State)
	assert.Equal(t, Recording, outcome.Stage)
	assert.Equal(t, "/gallery/a1?error=true", outcome.Redirect)
	assert.Empty(t, f.publisher.events)
}

func TestConfirm_ReplayedCallbackIsIdempotent(t *testing.T) {
	f := newFixture()
	cb := Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"}

	first := f.svc.Confirm(context.Background(), buyer, cb)
	second := f.svc.Confirm(context.Background(), buyer, cb)

	assert.Equal(t, "/gallery/a1?success=true", first.Redirect)
	assert.Equal(t, "/gallery/a1?success=true", second.Redirect)
	assert.Len(t, f.store.payments, 1)
	assert.Len(t, f.store.purchases, 1)
	assert.Len(t, f.publisher.events, 1)
}

func TestConfirm_ConcurrentCallbacks(t *testing.T) {
	f := newFixture()
	cb := Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"}

	const callers = 16
	var wg sync.WaitGroup
	outcomes := make([]Outcome, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = f.svc.Confirm(context.Background(), buyer, cb)
		}(i)
	}
	wg.Wait()

	for _, o := range outcomes {
		assert.Equal(t, Completed, o.State)
	}
	assert.Len(t, f.store.purchases, 1)
	assert.Len(t, f.store.payments, 1)
	assert.Len(t, f.publisher.events, 1)
}

func TestConfirm_PublishFailureKeepsSuccess(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")

	outcome := f.svc.Confirm(context.Background(), buyer, Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"})

	assert.Equal(t, Completed, outcome.State)
	assert.Equal(t, "/gallery/a1?success=true", outcome.Redirect)
}

func TestConfirm_NilPublisher(t *testing.T) {
	store := &memLedger{}
	svc := NewService(
		fakeAssets{"a1": {ID: "a1", Status: asset.StatusApproved}},
		ledger.NewService(store, "USD"),
		&fakeProvider{capture: &paypal.Capture{Status: paypal.StatusCompleted}},
		nil,
		Config{Price: decimal.RequireFromString("5.00"), Currency: "USD"},
	)

	outcome := svc.Confirm(context.Background(), buyer, Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"})
	assert.Equal(t, Completed, outcome.State)
	assert.Len(t, store.purchases, 1)
}

// newCatalogFixture swaps the in-memory assets for the real catalog over an
// empty sqlmock database, so only ids that never reach SQL can succeed.
func newCatalogFixture(t *testing.T) (*fixture, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := newFixture()
	catalog := asset.NewService(asset.NewRepository(sqlx.NewDb(db, "sqlmock")))
	f.svc = NewService(catalog, ledger.NewService(f.store, "USD"), f.provider, f.publisher, Config{
		AppURL:   "https://market.example.com",
		Price:    decimal.RequireFromString("5.00"),
		Currency: "USD",
	})
	return f, mock
}

func TestConfirm_MalformedAssetID(t *testing.T) {
	f, mock := newCatalogFixture(t)

	outcome := f.svc.Confirm(context.Background(), buyer, Callback{Token: "ORD1", AssetID: "not-a-uuid", PayerID: "p1"})
	assert.Equal(t, Failed, outcome.State)
	assert.Equal(t, "/gallery", outcome.Redirect)
	assert.Empty(t, f.provider.captureCalls)
	assert.Empty(t, f.store.purchases)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitiate_MalformedAssetID(t *testing.T) {
	f, mock := newCatalogFixture(t)

	result, err := f.svc.Initiate(context.Background(), buyer, "not-a-uuid")
	assert.Nil(t, result)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
	assert.Empty(t, f.provider.createCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type brokenAssets struct{}

func (brokenAssets) FindByID(context.Context, string) (*asset.Asset, error) {
	return nil, apperr.Storage(errors.New("connection reset"), "find asset")
}

func TestInitiate_AssetStorageError(t *testing.T) {
	f := newFixture()
	svc := NewService(brokenAssets{}, ledger.NewService(f.store, "USD"), f.provider, nil, Config{
		AppURL: "https://market.example.com", Price: decimal.RequireFromString("5.00"), Currency: "USD",
	})

	result, err := svc.Initiate(context.Background(), buyer, "a1")
	assert.Nil(t, result)
	assert.True(t, apperr.Is(err, apperr.KindStorage), "got %v", err)
	assert.Empty(t, f.provider.createCalls)
}
