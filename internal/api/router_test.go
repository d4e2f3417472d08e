package api_test

import (
	"bytes"
	"civicdesk/backend/internal/api"
	"civicdesk/backend/internal/api/handler"
	"civicdesk/backend/internal/assignment"
	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/dashboard"
	"civicdesk/backend/internal/livehub"
	"civicdesk/backend/internal/metrics"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"
	"civicdesk/backend/internal/storage/storagetest"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	now        = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	god        = &models.User{ID: "g1", Email: "god@ward.gov", Role: models.RoleGod}
	sanitation = &models.User{ID: "k1", Email: "k1@ward.gov", Role: models.RoleKing, Domain: models.Domain{Genre: "sanitation"}}
)

type neutralScorer struct{}

func (neutralScorer) Score(string) float64 { return 0 }

type fixture struct {
	store  *storagetest.MockStorage
	auth   *auth.Service
	hub    *livehub.ManagerService
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := new(storagetest.MockStorage)
	authSvc := auth.NewService(store, "test-secret", time.Hour, "civicdesk")
	authSvc.Now = func() time.Time { return now }

	complaints := complaint.NewService(store, zap.NewNop())
	complaints.Now = func() time.Time { return now }
	assignments := assignment.NewService(store, zap.NewNop())
	hub := livehub.NewManagerService(zap.NewNop())

	h := &handler.Handler{
		Auth:        authSvc,
		Users:       store,
		Complaints:  complaints,
		Assignments: assignments,
		Dashboard:   dashboard.NewService(store, complaints, neutralScorer{}, 8),
		Hub:         hub,
		Metrics:     metrics.NewCollector(),
		Upgrader:    handler.NewUpgrader([]string{"*"}),
		Logger:      zap.NewNop(),
	}
	return &fixture{store: store, auth: authSvc, hub: hub, router: api.NewRouter(h, nil)}
}

// tokenFor issues a token and makes the user loadable by Authenticate.
func (f *fixture) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	f.store.On("GetUserByID", mock.Anything, u.ID).Return(u, nil)
	token, err := f.auth.IssueToken(u)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "", nil).Code)

	rec := f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `civicdesk_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/complaints", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/complaints", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ghost := &models.User{ID: "gone", Role: models.RoleGod}
	token, err := f.auth.IssueToken(ghost)
	require.NoError(t, err)
	f.store.On("GetUserByID", mock.Anything, "gone").Return(nil, storage.ErrNotFound)
	rec = f.do(http.MethodGet, "/api/v1/complaints", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListComplaints_FilterAndSort(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, god)
	older, newer := now.Add(-time.Hour), now.Add(-time.Minute)
	f.store.On("ListComplaints", mock.Anything, storage.ComplaintScope{}).Return([]models.Complaint{
		{ID: "b", Category: "lighting", Severity: models.SeverityLow, Status: models.StatusPending, CreatedAt: &newer},
		{ID: "a", Category: "lighting", Severity: models.SeverityHigh, Status: models.StatusPending, CreatedAt: &older},
		{ID: "c", Category: "sanitation", Severity: models.SeverityHigh, Status: models.StatusResolved, CreatedAt: &older},
	}, nil)

	rec := f.do(http.MethodGet, "/api/v1/complaints?category=lighting&sortBy=createdAt&sortOrder=asc", token, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Complaints []models.Complaint `json:"complaints"`
		Count      int                `json:"count"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "a", body.Complaints[0].ID)
	assert.Equal(t, "b", body.Complaints[1].ID)
	assert.Equal(t, 5*3+30, body.Complaints[0].PriorityScore)
}

func TestListComplaints_BadSort(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, god)

	rec := f.do(http.MethodGet, "/api/v1/complaints?sortBy=mood", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "mood")

	rec = f.do(http.MethodGet, "/api/v1/complaints?sortOrder=sideways", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/complaints?search="+strings.Repeat("x", 201), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "Search")

	rec = f.do(http.MethodGet, "/api/v1/complaints/export?search="+strings.Repeat("x", 201), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.store.AssertNotCalled(t, "ListComplaints", mock.Anything, mock.Anything)
}

func TestGetComplaint_ScopedToDomain(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, sanitation)
	f.store.On("GetComplaint", mock.Anything, "lamp").Return(&models.Complaint{ID: "lamp", Category: "lighting"}, nil)
	f.store.On("GetComplaint", mock.Anything, "bin").Return(&models.Complaint{ID: "bin", Category: "sanitation"}, nil)
	f.store.On("GetComplaint", mock.Anything, "nope").Return(nil, storage.ErrNotFound)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/complaints/lamp", token, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/complaints/bin", token, nil).Code)

	rec := f.do(http.MethodGet, "/api/v1/complaints/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, complaint.ErrNotFound.Error(), errorOf(t, rec))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, sanitation)
	resolvedAt := now
	f.store.On("GetComplaint", mock.Anything, "bin").Return(&models.Complaint{ID: "bin", Category: "sanitation"}, nil)
	f.store.On("UpdateComplaintStatus", mock.Anything, "bin", models.StatusResolved, "k1", now).
		Return(&models.Complaint{ID: "bin", Category: "sanitation", Status: models.StatusResolved, ResolvedAt: &resolvedAt, ResolvedBy: "k1"}, true, nil)

	rec := f.do(http.MethodPatch, "/api/v1/complaints/bin/status", token, map[string]string{"status": "Resolved"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got models.Complaint
	decode(t, rec, &got)
	assert.Equal(t, "k1", got.ResolvedBy)
	assert.Zero(t, got.PriorityScore)

	rec = f.do(http.MethodPatch, "/api/v1/complaints/bin/status", token, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/api/v1/complaints/bin/status", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	metricsBody := f.do(http.MethodGet, "/metrics", "", nil).Body.String()
	assert.Contains(t, metricsBody, `civicdesk_complaint_status_changes_total{status="Resolved"} 1`)
}

func TestAssignments_GodOnly(t *testing.T) {
	f := newFixture(t)
	kingToken := f.tokenFor(t, sanitation)
	godToken := f.tokenFor(t, god)

	rec := f.do(http.MethodPut, "/api/v1/assignments/lighting", kingToken, map[string]string{"kingId": "k1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.store.On("ListAssignments", mock.Anything).Return([]models.CategoryAssignment{{Category: "sanitation", KingID: "k1"}}, nil)
	rec = f.do(http.MethodGet, "/api/v1/assignments", godToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"assignments":{"sanitation":"k1"}}`, rec.Body.String())
}

func TestAssign_Conflict(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, god)
	f.tokenFor(t, sanitation)
	f.store.On("GetAssignment", mock.Anything, "lighting").Return(nil, nil)
	f.store.On("ApplyAssignment", mock.Anything, models.AssignmentPlan{Category: "lighting", SetKingID: "k1"}).
		Return(nil, storage.ErrAssignmentConflict)

	rec := f.do(http.MethodPut, "/api/v1/assignments/lighting", token, map[string]string{"kingId": "k1"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, assignment.ErrConflict.Error(), errorOf(t, rec))
}

func TestAssign_UnknownKing(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, god)
	f.store.On("GetAssignment", mock.Anything, "lighting").Return(nil, nil)
	f.store.On("GetUserByID", mock.Anything, "k404").Return(nil, storage.ErrNotFound)

	rec := f.do(http.MethodPut, "/api/v1/assignments/lighting", token, map[string]string{"kingId": "k404"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	f.store.AssertNotCalled(t, "ApplyAssignment", mock.Anything, mock.Anything)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	var created *models.User
	f.store.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.User)
		created.ID = "new-king"
	}).Return(nil).Once()

	rec := f.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "new@ward.gov", "username": "newk", "password": "long-enough", "role": "king",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "long-enough")
	assert.NotContains(t, rec.Body.String(), created.PasswordHash)

	f.store.On("GetUserByEmail", mock.Anything, "new@ward.gov").Return(created, nil)
	rec = f.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "new@ward.gov", "password": "long-enough"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, rec, &login)
	claims, err := f.auth.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "new-king", claims.Subject)

	rec = f.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "new@ward.gov", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.store.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(storage.ErrDuplicate)
	rec = f.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "new@ward.gov", "username": "again", "password": "long-enough", "role": "king",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "x@ward.gov", "username": "x", "password": "short", "role": "king",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "boss@ward.gov", "username": "boss", "password": "long-enough", "role": "god",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, auth.ErrRoleNotAllowed.Error(), errorOf(t, rec))
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, sanitation)
	created := now.Add(-26 * time.Hour)
	resolved := now.Add(-time.Hour)
	f.store.On("ListComplaints", mock.Anything, storage.ComplaintScope{Status: models.StatusResolved, ResolvedBy: "k1"}).Return([]models.Complaint{
		{ID: "bin", Status: models.StatusResolved, ResolvedBy: "k1", CreatedAt: &created, ResolvedAt: &resolved},
	}, nil)

	rec := f.do(http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile struct {
		User       models.User `json:"user"`
		Resolution struct {
			ResolvedCount int    `json:"resolvedCount"`
			Display       string `json:"avgResolutionTime"`
		} `json:"resolution"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, "k1", profile.User.ID)
	assert.Equal(t, 1, profile.Resolution.ResolvedCount)
	assert.Equal(t, "1d 1h", profile.Resolution.Display)

	phone := "+91 22 0000"
	renamed := *sanitation
	renamed.Phone = phone
	f.store.On("UpdateUserProfile", mock.Anything, "k1", models.ProfileUpdate{Phone: &phone}).Return(&renamed, nil)
	rec = f.do(http.MethodPatch, "/api/v1/profile", token, map[string]string{"phone": phone, "role": "god"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), phone)
	assert.Contains(t, rec.Body.String(), `"role":"king"`)
}

func TestDashboardEndpoints(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, god)
	lat, lng := 19.07, 72.87
	f.store.On("ListComplaints", mock.Anything, storage.ComplaintScope{}).Return([]models.Complaint{
		{ID: "a", Category: "lighting", Severity: models.SeverityHigh, Status: models.StatusPending, Latitude: &lat, Longitude: &lng},
	}, nil)
	f.store.On("ListAssignments", mock.Anything).Return([]models.CategoryAssignment{}, nil)
	f.store.On("ListUsersByRole", mock.Anything, models.RoleKing).Return([]models.User{}, nil)
	f.store.On("ListCommunityPosts", mock.Anything).Return([]models.CommunityPost{{ID: "p1", Text: "ok"}}, nil)

	rec := f.do(http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"totalComplaints":1`)

	rec = f.do(http.MethodGet, "/api/v1/dashboard/sentiment", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"positive":0,"neutral":1,"negative":0,"total":1}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/dashboard/heatmap?resolution=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var heat struct {
		Resolution int `json:"resolution"`
		Cells      []struct {
			Total int `json:"total"`
		} `json:"cells"`
	}
	decode(t, rec, &heat)
	assert.Equal(t, 5, heat.Resolution)
	require.Len(t, heat.Cells, 1)
	assert.Equal(t, 1, heat.Cells[0].Total)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/dashboard/heatmap?resolution=abc", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/dashboard/heatmap?resolution=16", token, nil).Code)

	f.store.On("ListComplaints", mock.Anything, storage.ComplaintScope{Status: models.StatusResolved}).Return([]models.Complaint{}, nil)
	rec = f.do(http.MethodGet, "/api/v1/leaderboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"leaderboard":[]}`, rec.Body.String())
}

func TestExport_Unconfigured(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, god)

	rec := f.do(http.MethodGet, "/api/v1/complaints/export", token, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, complaint.ErrNoExporter.Error(), errorOf(t, rec))
}

func TestWebSocket_PushesScopedEvents(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, sanitation)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.hub.Run(ctx)

	srv := httptest.NewServer(f.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.hub.EventsCh <- models.ChangeEvent{Collection: models.CollectionComplaints, DocumentID: "lamp", Category: "lighting", Op: models.OpUpdated}
	f.hub.EventsCh <- models.ChangeEvent{Collection: models.CollectionComplaints, DocumentID: "bin", Category: "sanitation", Op: models.OpUpdated}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.ChangeEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "bin", got.DocumentID, "other categories are filtered out")
}

func TestWebSocket_RequiresToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/ws", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
