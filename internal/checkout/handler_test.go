package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/auth"
)

const testSecret = "test-secret"

type MockService struct {
	mock.Mock
}

func (m *MockService) Initiate(ctx context.Context, session *auth.Session, assetID string) (*InitiateResult, error) {
	args := m.Called(ctx, session, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*InitiateResult), args.Error(1)
}

func (m *MockService) Confirm(ctx context.Context, session *auth.Session, cb Callback) Outcome {
	args := m.Called(ctx, session, cb)
	return args.Get(0).(Outcome)
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(svc, auth.NewResolver(testSecret))
	router.POST("/gallery/:id/purchase", h.Purchase)
	router.GET("/api/paypal/capture", h.Capture)
	return router
}

func bearer(t *testing.T) string {
	token, err := auth.GenerateAccessToken("u1", "u1@example.com", auth.RoleUser, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func isBuyer(s *auth.Session) bool {
	return s != nil && s.UserID == "u1"
}

func TestPurchase_JSON(t *testing.T) {
	svc := new(MockService)
	svc.On("Initiate", mock.Anything, mock.MatchedBy(isBuyer), "a1").
		Return(&InitiateResult{OrderID: "ORD1", ApprovalLink: "https://provider/approve/ORD1"}, nil)
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/gallery/a1/purchase", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"alreadyPurchased":false,"orderId":"ORD1","approvalLink":"https://provider/approve/ORD1"}`, w.Body.String())
}

func TestPurchase_HTMLRedirectsToApproval(t *testing.T) {
	svc := new(MockService)
	svc.On("Initiate", mock.Anything, mock.MatchedBy(isBuyer), "a1").
		Return(&InitiateResult{OrderID: "ORD1", ApprovalLink: "https://provider/approve/ORD1"}, nil)
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/gallery/a1/purchase", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://provider/approve/ORD1", w.Header().Get("Location"))
}

func TestPurchase_AlreadyPurchased(t *testing.T) {
	svc := new(MockService)
	svc.On("Initiate", mock.Anything, mock.Anything, "a1").Return(&InitiateResult{AlreadyPurchased: true}, nil)
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/gallery/a1/purchase", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"alreadyPurchased":true}`, w.Body.String())
}

func TestPurchase_Anonymous(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/gallery/a1/purchase", nil)
	req.Header.Set("Accept", "text/html")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	svc.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		accept   string
		status   int
		location string
	}{
		{"json not found", apperr.NotFound("Asset not found"), "application/json", http.StatusNotFound, ""},
		{"json provider", apperr.New(apperr.KindExternalProvider, "Failed to create PayPal order"), "application/json", http.StatusBadGateway, ""},
		{"html not found", apperr.NotFound("Asset not found"), "text/html", http.StatusSeeOther, "/gallery"},
		{"html provider", apperr.New(apperr.KindExternalProvider, "Failed to create PayPal order"), "text/html", http.StatusSeeOther, "/gallery/a1?error=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Initiate", mock.Anything, mock.Anything, "a1").Return(nil, tt.err)
			router := setupRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/gallery/a1/purchase", nil)
			req.Header.Set("Accept", tt.accept)
			req.Header.Set("Authorization", bearer(t))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
		})
	}
}

func TestCapture_RedirectsToOutcome(t *testing.T) {
	svc := new(MockService)
	svc.On("Confirm", mock.Anything, mock.MatchedBy(isBuyer), Callback{Token: "ORD1", AssetID: "a1", PayerID: "p1"}).
		Return(Outcome{State: Completed, Redirect: "/gallery/a1?success=true"})
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/paypal/capture?token=ORD1&assetId=a1&PayerID=p1", nil)
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/gallery/a1?success=true", w.Header().Get("Location"))
	svc.AssertNumberOfCalls(t, "Confirm", 1)
}

func TestCapture_MissingParamsSkipsSession(t *testing.T) {
	svc := new(MockService)
	svc.On("Confirm", mock.Anything, (*auth.Session)(nil), Callback{Token: "ORD1", AssetID: "a1"}).
		Return(Outcome{State: Failed, Stage: AwaitingCallback, Redirect: "/gallery"})
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/paypal/capture?token=ORD1&assetId=a1", nil)
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/gallery", w.Header().Get("Location"))
}
