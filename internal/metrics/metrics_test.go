package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/gallery", "200", 0.5)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/gallery", "200"))
	assert.Equal(t, float64(1), count)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/auth/login", "200", 0.1)
	RecordHTTPRequest("POST", "/auth/login", "200", 0.2)
	RecordHTTPRequest("POST", "/auth/login", "401", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "401")))
}

func TestPurchaseFlowCounters(t *testing.T) {
	OrdersInitiatedTotal.Reset()
	CapturesTotal.Reset()
	PurchasesRecordedTotal.Reset()

	RecordOrderInitiated("created")
	RecordOrderInitiated("already_purchased")
	RecordCapture("completed")
	RecordPurchase("created")
	RecordPurchase("already_exists")
	RecordPurchase("already_exists")

	assert.Equal(t, float64(1), testutil.ToFloat64(OrdersInitiatedTotal.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(OrdersInitiatedTotal.WithLabelValues("already_purchased")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CapturesTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(PurchasesRecordedTotal.WithLabelValues("already_exists")))
}

func TestRecordProviderCall(t *testing.T) {
	ProviderRequestDuration.Reset()

	RecordProviderCall("create_order", "ok", 0.3)
	RecordProviderCall("capture", "error", 1.2)

	assert.Equal(t, 2, testutil.CollectAndCount(ProviderRequestDuration))
}

func TestRecordModeration(t *testing.T) {
	ModerationActionsTotal.Reset()

	RecordModeration("approved")
	RecordModeration("approved")
	RecordModeration("rejected")

	assert.Equal(t, float64(2), testutil.ToFloat64(ModerationActionsTotal.WithLabelValues("approved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ModerationActionsTotal.WithLabelValues("rejected")))
}

func TestRecordEmailAndEvents(t *testing.T) {
	EmailsSentTotal.Reset()
	EventsPublishedTotal.Reset()

	RecordEmail("purchase_receipt", "queued")
	RecordEvent("purchase.completed", "ok")

	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("purchase_receipt", "queued")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("purchase.completed", "ok")))
}

func TestEmailQueueLength(t *testing.T) {
	EmailQueueLength.Set(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(EmailQueueLength))
}
