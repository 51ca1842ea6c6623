package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shuttleclub/backend/internal/audit"
	"github.com/shuttleclub/backend/internal/config"
	mW "github.com/shuttleclub/backend/internal/middleware"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/services"
	"github.com/shuttleclub/backend/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "handler-secret"

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
	store  *memstore.Store
	team   *models.Team
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := zap.NewNop().Sugar()
	st := memstore.New()
	cfg := &config.ClubConfig{Location: time.UTC, DefaultPageSize: 10, MaxPageSize: 100, SessionListLimit: 20}
	auditLogger := audit.NewLogger(log)
	ledger := services.NewLedgerService(auditLogger)
	events := services.NewEventPublisher(nil, "", log)

	st.AddMember(models.Member{ID: "admin", Name: "Hoa", Role: models.RoleAdmin})
	st.AddMember(models.Member{ID: "lead", Name: "Lan", Role: models.RoleLead})
	st.AddMember(models.Member{ID: "u1", Name: "Minh", Role: models.RoleUser, Balance: 1000})

	team := &models.Team{Name: "Weeknight", Amount: 5000}
	require.NoError(t, st.CreateTeam(context.Background(), team))

	api := &API{
		Sessions: NewSessionHandler(services.NewSessionService(st, ledger, events, auditLogger, cfg, log)),
		Teams:    NewTeamHandler(services.NewTeamService(st, ledger, events, auditLogger, log)),
		Payments: NewPaymentHandler(services.NewPaymentService(st, ledger, events, auditLogger, cfg, log)),
		Ledger:   NewLedgerHandler(services.NewHistoryService(st, cfg), cfg.Location),
	}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		api.Mount(r, mW.NewAuthenticator(testSecret))
	})

	return &testServer{t: t, router: r, store: st, team: team}
}

func (s *testServer) token(memberID, name string, role models.Role) string {
	s.t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": memberID,
		"name":    name,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestRoutes_RoleGates(t *testing.T) {
	s := newTestServer(t)
	user := s.token("u1", "Minh", models.RoleUser)
	admin := s.token("admin", "Hoa", models.RoleAdmin)

	teamBody := models.TeamRequest{Name: "Sunday", Members: []models.TeamMember{{MemberID: "u1", IsActive: true}}}

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       any
		wantStatus int
	}{
		{"no token", http.MethodGet, "/api/badminton-sessions", "", nil, http.StatusUnauthorized},
		{"user cannot create team", http.MethodPost, "/api/badminton-teams", user, teamBody, http.StatusForbidden},
		{"admin creates team", http.MethodPost, "/api/badminton-teams", admin, teamBody, http.StatusCreated},
		{"user cannot confirm session", http.MethodPut, "/api/badminton-sessions/s1/confirm", user, nil, http.StatusForbidden},
		{"user cannot accept payment", http.MethodPut, "/api/payments/p1/accept", user, nil, http.StatusForbidden},
		{"user lists sessions", http.MethodGet, "/api/badminton-sessions", user, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRoutes_RequestDecoding(t *testing.T) {
	s := newTestServer(t)
	user := s.token("u1", "Minh", models.RoleUser)

	t.Run("unknown field", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/payments", user, `{"groupId":"x","amount":5,"bogus":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("two objects", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/payments", user, `{"groupId":"x","amount":5}{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Request body must only contain a single JSON object", decode(t, rec, nil).Error)
	})

	t.Run("validation details", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/payments", user, models.PaymentRequest{GroupID: s.team.ID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec, nil).Details, "Amount")
	})
}

func TestRoutes_PaymentFlow(t *testing.T) {
	s := newTestServer(t)
	user := s.token("u1", "Minh", models.RoleUser)
	lead := s.token("lead", "Lan", models.RoleLead)

	rec := s.do(http.MethodPost, "/api/payments", user, models.PaymentRequest{GroupID: s.team.ID, Amount: 2500})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payment models.Payment
	decode(t, rec, &payment)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, "[Minh] Top up", payment.Note)

	rec = s.do(http.MethodGet, "/api/payments/me?status=pending", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.PaymentPage
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Pagination.Total)

	rec = s.do(http.MethodGet, "/api/payments/me?status=weird", user, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/payments/"+payment.ID+"/qr", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = s.do(http.MethodPut, "/api/payments/"+payment.ID+"/accept", lead, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPut, "/api/payments/"+payment.ID+"/accept", lead, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/api/payments/missing/reject", lead, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/members/balances", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balances []models.MemberBalance
	decode(t, rec, &balances)
	for _, b := range balances {
		if b.MemberID == "u1" {
			assert.Equal(t, int64(3500), b.Balance)
			assert.Equal(t, int64(2500), b.StatusAmounts.Accepted)
		}
	}

	rec = s.do(http.MethodGet, "/api/transactions/me", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history models.HistoryPage
	decode(t, rec, &history)
	require.Len(t, history.Transactions, 1)
	assert.Equal(t, int64(2500), history.Transactions[0].Amount)

	rec = s.do(http.MethodGet, "/api/members/u1/transactions", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/members/u1/transactions", lead, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var memberHistory models.HistoryPage
	decode(t, rec, &memberHistory)
	require.Len(t, memberHistory.Transactions, 1)
	assert.Equal(t, "u1", *memberHistory.Transactions[0].MemberID)

	rec = s.do(http.MethodGet, "/api/members/ghost/transactions", lead, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/transactions/groups?groupId="+s.team.ID+"&startDate=2000-01-01", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &history)
	assert.Equal(t, 1, history.TotalCount)
}

func TestRoutes_TeamErrors(t *testing.T) {
	s := newTestServer(t)
	user := s.token("u1", "Minh", models.RoleUser)
	lead := s.token("lead", "Lan", models.RoleLead)

	rec := s.do(http.MethodGet, "/api/badminton-teams/missing", user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/badminton-teams/pay-shuttlecock", lead, models.ShuttlecockFeeRequest{
		GroupID: s.team.ID, ShuttlecockFee: 9000, NumberShuttlecock: 12,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPatch, "/api/badminton-teams/"+s.team.ID+"/add-fees", lead, models.TeamFeesRequest{
		NumberShuttlecock: 12, ShuttlecockFee: 3000,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var team models.Team
	decode(t, rec, &team)
	assert.Equal(t, int64(12), team.NumberShuttlecock)
	assert.Equal(t, int64(5000), team.Amount)
}

func TestLedgerHandler_DateRange(t *testing.T) {
	s := newTestServer(t)
	user := s.token("u1", "Minh", models.RoleUser)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"plain dates", "?startDate=2024-01-01&endDate=2024-01-31", http.StatusOK},
		{"rfc3339", "?startDate=2024-01-01T00:00:00Z", http.StatusOK},
		{"bad start", "?startDate=yesterday", http.StatusBadRequest},
		{"end before start", "?startDate=2024-02-01&endDate=2024-01-01", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/api/transactions/me"+tt.query, user, nil)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	t.Run("group id required", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/transactions/groups", user, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
