package topics

import (
	"context"
	"encoding/json"
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

// memViews serves topic views keyed the same way the SQL does: by event,
// and by the (event, session) pair.
type memViews struct {
	byEvent map[uuid.UUID][]models.TopicView

	lastEventID   uuid.UUID
	lastSessionID uuid.UUID
}

func newMemViews() *memViews {
	return &memViews{byEvent: make(map[uuid.UUID][]models.TopicView)}
}

func (m *memViews) add(v models.TopicView) {
	m.byEvent[v.EventID] = append(m.byEvent[v.EventID], v)
}

func (m *memViews) ListViewsByEvent(_ context.Context, eventID uuid.UUID) ([]models.TopicView, error) {
	m.lastEventID = eventID
	return m.byEvent[eventID], nil
}

func (m *memViews) ListViewsByEventSession(_ context.Context, eventID, sessionID uuid.UUID) ([]models.TopicView, error) {
	m.lastEventID, m.lastSessionID = eventID, sessionID
	var out []models.TopicView
	for _, v := range m.byEvent[eventID] {
		if v.SessionID == sessionID {
			out = append(out, v)
		}
	}
	return out, nil
}

// memAccess unlocks exactly the (user, event) pairs it was given.
type memAccess struct {
	unlocked map[[2]uuid.UUID]bool
}

func newMemAccess() *memAccess {
	return &memAccess{unlocked: make(map[[2]uuid.UUID]bool)}
}

func (m *memAccess) grant(userID, eventID uuid.UUID) {
	m.unlocked[[2]uuid.UUID{userID, eventID}] = true
}

func (m *memAccess) AccessStatus(_ context.Context, userID, eventID uuid.UUID) (bool, models.EnrollmentStatus, error) {
	if m.unlocked[[2]uuid.UUID{userID, eventID}] {
		return true, models.EnrollmentStatusFreeRegistered, nil
	}
	return false, "", nil
}

func newViewRouter(views ViewLister, access AccessChecker, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextUser, user)
		}
		c.Next()
	})
	h := NewHandler(nil, views, access, nil, zap.NewNop())
	r.GET("/api/topics/event/:eventId", h.ListByEvent)
	r.GET("/api/topics/event/:eventId/session/:sessionId", h.ListBySession)
	return r
}

func getViews(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, []models.TopicView) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var envelope response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var out []models.TopicView
	require.NoError(t, json.Unmarshal(raw, &out))
	return w, out
}

func sampleView(eventID, sessionID uuid.UUID, link string) models.TopicView {
	return models.TopicView{
		ID:        uuid.New(),
		EventID:   eventID,
		SessionID: sessionID,
		Title:     "Keynote",
		VideoLink: link,
	}
}

func TestListByEventAnonymousBlanksVideoLinks(t *testing.T) {
	eventID := uuid.New()
	views := newMemViews()
	views.add(sampleView(eventID, uuid.New(), "https://vimeo.com/1"))
	r := newViewRouter(views, newMemAccess(), nil)

	w, got := getViews(t, r, "/api/topics/event/"+eventID.String())
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].VideoLink)
	assert.Equal(t, "Keynote", got[0].Title)
}

func TestListByEventEnrolledSeesVideoLinks(t *testing.T) {
	eventID := uuid.New()
	user := &models.User{ID: uuid.New(), FullName: "A Sharma", Email: "a@example.com"}
	views := newMemViews()
	views.add(sampleView(eventID, uuid.New(), "https://vimeo.com/1"))
	access := newMemAccess()
	access.grant(user.ID, eventID)
	r := newViewRouter(views, access, user)

	w, got := getViews(t, r, "/api/topics/event/"+eventID.String())
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "https://vimeo.com/1", got[0].VideoLink)
}

func TestListByEventOtherEnrollmentStaysLocked(t *testing.T) {
	paidEventID := uuid.New()
	freeEventID := uuid.New()
	user := &models.User{ID: uuid.New(), FullName: "A Sharma", Email: "a@example.com"}
	views := newMemViews()
	views.add(sampleView(paidEventID, uuid.New(), "https://vimeo.com/paid"))
	access := newMemAccess()
	access.grant(user.ID, freeEventID)
	r := newViewRouter(views, access, user)

	w, got := getViews(t, r, "/api/topics/event/"+paidEventID.String())
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].VideoLink)
}

func TestListBySessionScopedToURLEvent(t *testing.T) {
	// A session id from one event must return nothing under another
	// event's URL, even when the caller is enrolled in that other event.
	paidEventID := uuid.New()
	paidSessionID := uuid.New()
	freeEventID := uuid.New()
	user := &models.User{ID: uuid.New(), FullName: "A Sharma", Email: "a@example.com"}

	views := newMemViews()
	views.add(sampleView(paidEventID, paidSessionID, "https://vimeo.com/paid"))
	access := newMemAccess()
	access.grant(user.ID, freeEventID)
	r := newViewRouter(views, access, user)

	path := "/api/topics/event/" + freeEventID.String() + "/session/" + paidSessionID.String()
	w, got := getViews(t, r, path)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, got)
	assert.Equal(t, freeEventID, views.lastEventID)
	assert.Equal(t, paidSessionID, views.lastSessionID)
}

func TestListBySessionEnrolledSeesVideoLinks(t *testing.T) {
	eventID := uuid.New()
	sessionID := uuid.New()
	user := &models.User{ID: uuid.New(), FullName: "A Sharma", Email: "a@example.com"}
	views := newMemViews()
	views.add(sampleView(eventID, sessionID, "https://vimeo.com/1"))
	views.add(sampleView(eventID, uuid.New(), "https://vimeo.com/2"))
	access := newMemAccess()
	access.grant(user.ID, eventID)
	r := newViewRouter(views, access, user)

	path := "/api/topics/event/" + eventID.String() + "/session/" + sessionID.String()
	w, got := getViews(t, r, path)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "https://vimeo.com/1", got[0].VideoLink)
}
