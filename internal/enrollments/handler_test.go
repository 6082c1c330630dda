package enrollments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/middleware"
	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/pkg/response"
)

func newTestRouter(svc *Service, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextUser, user)
		}
		c.Next()
	})
	h := NewHandler(svc, nil, zap.NewNop())
	r.POST("/api/enrollments/register/free", h.RegisterFree)
	r.POST("/api/enrollments/register/paid", h.RegisterPaid)
	r.GET("/api/enrollments/my", h.ListMine)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var envelope response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), FullName: "A Sharma", Email: "a@example.com"}
}

func TestRegisterFreeEndpoint(t *testing.T) {
	event := freeEvent()
	svc, _ := newTestService(newMemStore(), event)
	r := newTestRouter(svc, testUser())

	w, envelope := postJSON(t, r, "/api/enrollments/register/free", gin.H{
		"event_id":  event.ID,
		"full_name": "Dr. A Sharma",
		"email":     "a@example.com",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, envelope.Success)
}

func TestRegisterFreeEndpointRequiresAuth(t *testing.T) {
	event := freeEvent()
	svc, _ := newTestService(newMemStore(), event)
	r := newTestRouter(svc, nil)

	w, envelope := postJSON(t, r, "/api/enrollments/register/free", gin.H{
		"event_id":  event.ID,
		"full_name": "Dr. A Sharma",
		"email":     "a@example.com",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.KindUnauthorized, envelope.Kind)
}

func TestRegisterFreeEndpointValidation(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	r := newTestRouter(svc, testUser())

	w, envelope := postJSON(t, r, "/api/enrollments/register/free", gin.H{
		"event_id": uuid.New(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.KindValidation, envelope.Kind)
}

func TestRegisterFreeEndpointPaidEventConflict(t *testing.T) {
	event := paidEvent(500)
	svc, _ := newTestService(newMemStore(), event)
	r := newTestRouter(svc, testUser())

	w, envelope := postJSON(t, r, "/api/enrollments/register/free", gin.H{
		"event_id":  event.ID,
		"full_name": "Dr. A Sharma",
		"email":     "a@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.KindConflict, envelope.Kind)
}

func TestRegisterFreeEndpointUnknownEvent(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	r := newTestRouter(svc, testUser())

	w, envelope := postJSON(t, r, "/api/enrollments/register/free", gin.H{
		"event_id":  uuid.New(),
		"full_name": "Dr. A Sharma",
		"email":     "a@example.com",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.KindNotFound, envelope.Kind)
}

func TestRegisterPaidEndpoint(t *testing.T) {
	store := newMemStore()
	event := paidEvent(500)
	svc, _ := newTestService(store, event)
	r := newTestRouter(svc, testUser())

	w, envelope := postJSON(t, r, "/api/enrollments/register/paid", gin.H{
		"event_id":    event.ID,
		"amount_paid": 500,
		"payment_id":  "tx1",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, envelope.Success)
	assert.Len(t, store.payments, 1)
}

func TestRegisterPaidEndpointAmountTooLow(t *testing.T) {
	event := paidEvent(500)
	svc, _ := newTestService(newMemStore(), event)
	r := newTestRouter(svc, testUser())

	w, envelope := postJSON(t, r, "/api/enrollments/register/paid", gin.H{
		"event_id":    event.ID,
		"amount_paid": 100,
		"payment_id":  "tx1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.KindValidation, envelope.Kind)
}

func TestRegisterPaidEndpointDuplicateTransaction(t *testing.T) {
	store := newMemStore()
	event := paidEvent(500)
	svc, _ := newTestService(store, event)
	r := newTestRouter(svc, testUser())

	body := gin.H{"event_id": event.ID, "amount_paid": 500, "payment_id": "tx1"}
	w, _ := postJSON(t, r, "/api/enrollments/register/paid", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w, envelope := postJSON(t, r, "/api/enrollments/register/paid", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.KindConflict, envelope.Kind)
	assert.Len(t, store.payments, 1)
}

func TestListMineEndpoint(t *testing.T) {
	store := newMemStore()
	event := freeEvent()
	svc, _ := newTestService(store, event)
	user := testUser()
	r := newTestRouter(svc, user)

	_, err := svc.RegisterFree(context.Background(), user.ID, event.ID, "Dr. A Sharma", "a@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/enrollments/my", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success bool                         `json:"success"`
		Data    []models.EnrollmentWithEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, models.EnrollmentStatusFreeRegistered, envelope.Data[0].Status)
}

func TestRegisterPaidSameUserUpgradesSingleRow(t *testing.T) {
	store := newMemStore()
	freeEvt := freeEvent()
	paidEvt := paidEvent(300)
	svc, _ := newTestService(store, freeEvt, paidEvt)
	user := testUser()
	r := newTestRouter(svc, user)

	for i := 0; i < 2; i++ {
		w, _ := postJSON(t, r, "/api/enrollments/register/paid", gin.H{
			"event_id":    paidEvt.ID,
			"amount_paid": 300,
			"payment_id":  fmt.Sprintf("tx-%d", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// Two payments in the ledger, still one enrollment row for the pair.
	assert.Len(t, store.payments, 2)
	assert.Len(t, store.enrollments, 1)
}
