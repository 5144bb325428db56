package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/audit"
	"github.com/shaiso/zakaz/internal/auth"
	"github.com/shaiso/zakaz/internal/catalog"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/store/memstore"
	"github.com/shaiso/zakaz/internal/transition"
)

type testServer struct {
	*httptest.Server
	store *memstore.Store
	admin domain.User
	staff domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := memstore.New()
	s.SeedStatuses(domain.DefaultStatusDefinitions())

	cat := catalog.New(s.Statuses())
	cfg := transition.Config{
		Store:   s,
		Catalog: cat,
		Audit:   audit.NewRecorder(audit.Config{Audit: s.Audit(), Users: s.Users(), Logger: logger}),
		Logger:  logger,
	}
	sessions := auth.NewSessions(auth.Config{Users: s.Users(), Sessions: s.Sessions(), Logger: logger})

	h := NewHandler(Config{
		Store:        s,
		Catalog:      cat,
		Applications: transition.NewApplicationEngine(cfg),
		WorkOrders:   transition.NewWorkOrderEngine(cfg),
		Sessions:     sessions,
		Logger:       logger,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	ts := &testServer{Server: httptest.NewServer(mux), store: s}
	t.Cleanup(ts.Close)

	ts.admin = ts.putUser(t, "admin@zakaz.test", domain.RoleAdmin)
	ts.staff = ts.putUser(t, "staff@zakaz.test", domain.RoleInstaller)
	return ts
}

func (ts *testServer) putUser(t *testing.T, email string, role domain.Role) domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := domain.User{ID: uuid.New(), Email: email, FullName: "Пользователь " + string(role), Role: role, Active: true, PasswordHash: hash}
	ts.store.PutUser(u)
	return u
}

// login возвращает cookie сессии пользователя.
func (ts *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "secret"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "zakaz_session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestListStatuses(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/statuses", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[StatusesResponse](t, resp)
	if len(body.Statuses) != 10 {
		t.Fatalf("expected 10 statuses, got %d", len(body.Statuses))
	}
	if body.Statuses[0].Code != "new" || body.Statuses[9].Code != "no_tech" {
		t.Errorf("wrong order: %s … %s", body.Statuses[0].Code, body.Statuses[9].Code)
	}
}

func TestAdminStatuses(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, ts.admin.Email)
	staff := ts.login(t, ts.staff.Email)

	if resp := ts.do(t, http.MethodGet, "/api/admin/statuses", nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodGet, "/api/admin/statuses", nil, staff); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("non-admin: status = %d, want 401", resp.StatusCode)
	}

	resp := ts.do(t, http.MethodPost, "/api/admin/statuses", map[string]any{"code": "paused", "name_ru": "Пауза", "sort_order": 11}, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: status = %d", resp.StatusCode)
	}
	created := decodeBody[StatusResponse](t, resp)
	if created.Status.Label != "Пауза" || !created.Status.IsActive {
		t.Errorf("created = %+v", created.Status)
	}

	resp = ts.do(t, http.MethodPost, "/api/admin/statuses", map[string]any{"code": "paused", "name_ru": "Ещё пауза"}, admin)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate: status = %d, want 400", resp.StatusCode)
	}
	if e := decodeBody[ErrorResponse](t, resp); e.Error != "Status with this code already exists" {
		t.Errorf("duplicate message = %q", e.Error)
	}

	resp = ts.do(t, http.MethodPost, "/api/admin/statuses", map[string]any{"code": "x"}, admin)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing label: status = %d, want 400", resp.StatusCode)
	}

	path := "/api/admin/statuses/" + created.Status.ID.String()
	resp = ts.do(t, http.MethodPatch, path, map[string]any{"code": "new"}, admin)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("rename to existing code: status = %d, want 400", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodDelete, path, nil, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate: status = %d", resp.StatusCode)
	}
	if d := decodeBody[StatusResponse](t, resp); d.Status.IsActive {
		t.Error("status still active")
	}

	all := decodeBody[StatusesResponse](t, ts.do(t, http.MethodGet, "/api/admin/statuses", nil, admin))
	if len(all.Statuses) != 11 {
		t.Errorf("admin list = %d, want 11", len(all.Statuses))
	}
}

func TestChangeApplicationStatus(t *testing.T) {
	ts := newTestServer(t)
	app := domain.Application{ID: uuid.New(), ApplicationNumber: 1001, Status: "new"}
	ts.store.PutApplication(app)
	path := "/api/applications/" + app.ID.String()

	resp := ts.do(t, http.MethodPost, path+"/status", map[string]any{
		"new_status": "estimation",
		"comment":    "ok",
		"changed_by": ts.staff.ID.String(),
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[ApplicationResponse](t, resp)
	if body.Application.Status != "estimation" || body.Message != "Status updated successfully" {
		t.Errorf("response = %+v", body)
	}

	logs := decodeBody[LogsResponse](t, ts.do(t, http.MethodGet, path+"/logs", nil, nil))
	if len(logs.Logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs.Logs))
	}
	entry := logs.Logs[0]
	if !strings.Contains(entry.Description, "Новая") || !strings.Contains(entry.Description, "Расчёт") {
		t.Errorf("description = %q", entry.Description)
	}
	if entry.IPAddress == nil || *entry.IPAddress != "198.51.100.7" {
		t.Errorf("ip = %v", entry.IPAddress)
	}

	hist := decodeBody[HistoryResponse](t, ts.do(t, http.MethodGet, path+"/status-history", nil, nil))
	if len(hist.History) != 1 || hist.History[0].NewStatusLabel != "Расчёт" {
		t.Errorf("history = %+v", hist.History)
	}
}

func TestChangeApplicationStatus_UnknownChangedBy(t *testing.T) {
	ts := newTestServer(t)
	app := domain.Application{ID: uuid.New(), ApplicationNumber: 1003, Status: "new"}
	ts.store.PutApplication(app)
	path := "/api/applications/" + app.ID.String()
	ghost := uuid.New()

	resp := ts.do(t, http.MethodPost, path+"/status", map[string]any{
		"new_status": "estimation",
		"changed_by": ghost.String(),
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[ApplicationResponse](t, resp)
	if body.Application.Status != "estimation" {
		t.Errorf("application status = %q", body.Application.Status)
	}

	hist := decodeBody[HistoryResponse](t, ts.do(t, http.MethodGet, path+"/status-history", nil, nil))
	if len(hist.History) != 1 || hist.History[0].ChangedBy != nil {
		t.Errorf("history = %+v", hist.History)
	}
}

func TestChangeApplicationStatus_Errors(t *testing.T) {
	ts := newTestServer(t)
	app := domain.Application{ID: uuid.New(), ApplicationNumber: 1002, Status: "new"}
	ts.store.PutApplication(app)

	tests := []struct {
		name     string
		path     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{"missing status", app.ID.String(), map[string]any{}, http.StatusBadRequest, "new_status is required"},
		{"invalid status", app.ID.String(), map[string]any{"new_status": "lost"}, http.StatusBadRequest, "Invalid status value"},
		{"unknown application", uuid.NewString(), map[string]any{"new_status": "thinking"}, http.StatusNotFound, "Application not found"},
		{"bad id", "not-a-uuid", map[string]any{"new_status": "thinking"}, http.StatusBadRequest, "Invalid application id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/applications/"+tt.path+"/status", tt.body, nil)
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if e := decodeBody[ErrorResponse](t, resp); e.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", e.Error, tt.wantErr)
			}
		})
	}
}

func TestAssignApplication(t *testing.T) {
	ts := newTestServer(t)
	app := domain.Application{ID: uuid.New(), ApplicationNumber: 1003, Status: "new"}
	ts.store.PutApplication(app)
	path := "/api/applications/" + app.ID.String()

	resp := ts.do(t, http.MethodPatch, path+"/assign", map[string]any{"assigned_to": ts.staff.ID.String()}, nil)
	body := decodeBody[ApplicationResponse](t, resp)
	if body.Message != "User assigned successfully" || body.Application.AssignedTo == nil {
		t.Errorf("assign = %+v", body)
	}

	resp = ts.do(t, http.MethodPatch, path+"/assign", map[string]any{"assigned_to": ""}, nil)
	body = decodeBody[ApplicationResponse](t, resp)
	if body.Message != "Assignment removed successfully" || body.Application.AssignedTo != nil {
		t.Errorf("unassign = %+v", body)
	}

	resp = ts.do(t, http.MethodPatch, path+"/technical-curator", map[string]any{"technical_curator_id": uuid.NewString()}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown curator: status = %d, want 404", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodPatch, path+"/technical-curator", map[string]any{"technical_curator_id": ts.admin.ID.String()}, nil)
	if body := decodeBody[ApplicationResponse](t, resp); body.Message != "Technical curator assigned successfully" {
		t.Errorf("curator = %+v", body)
	}
}

func TestWorkOrderEndpoints(t *testing.T) {
	ts := newTestServer(t)
	executor := ts.putUser(t, "exec@zakaz.test", domain.RoleInstaller)
	wo := domain.WorkOrder{
		ID:              uuid.New(),
		WorkOrderNumber: 50,
		Type:            domain.WorkOrderTypeSurvey,
		Status:          domain.WorkOrderStatusAssigned,
		CreatedBy:       &ts.admin.ID,
		Executors:       []uuid.UUID{executor.ID},
		CreatedAt:       time.Now().Add(-time.Hour),
	}
	ts.store.PutWorkOrder(wo)
	path := "/api/work-orders/" + wo.ID.String()

	resp := ts.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "in_progress", "user_id": executor.ID.String()}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change: status = %d", resp.StatusCode)
	}
	body := decodeBody[WorkOrderResponse](t, resp)
	if body.WorkOrder.ActualStartAt == nil || body.Message != "Status changed to in_progress" {
		t.Errorf("change = %+v", body)
	}

	resp = ts.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "in_progress"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("no-op: status = %d, want 400", resp.StatusCode)
	}
	if e := decodeBody[ErrorResponse](t, resp); e.Error != "Status is already in_progress" {
		t.Errorf("no-op message = %q", e.Error)
	}

	if resp := ts.do(t, http.MethodPost, path+"/complete", map[string]any{}, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous complete: status = %d, want 401", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodPost, path+"/complete", map[string]any{}, ts.login(t, ts.staff.Email)); resp.StatusCode != http.StatusForbidden {
		t.Errorf("stranger complete: status = %d, want 403", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodPost, path+"/complete", map[string]any{"result_notes": "Готово"}, ts.login(t, executor.Email))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("executor complete: status = %d", resp.StatusCode)
	}
	if done := decodeBody[WorkOrderResponse](t, resp); done.WorkOrder.Status != domain.WorkOrderStatusCompleted {
		t.Errorf("status = %s", done.WorkOrder.Status)
	}

	hist := decodeBody[transition.WorkOrderHistory](t, ts.do(t, http.MethodGet, path+"/history", nil, nil))
	if len(hist.History) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(hist.History))
	}
	if hist.History[1].Comment == nil || *hist.History[1].Comment != "Готово" {
		t.Errorf("complete comment = %v", hist.History[1].Comment)
	}
	if hist.Created == nil || hist.Created.CreatedByUser == nil {
		t.Errorf("created = %+v", hist.Created)
	}
}

func TestAuthSession(t *testing.T) {
	ts := newTestServer(t)

	if resp := ts.do(t, http.MethodGet, "/api/auth/session", nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no cookie: status = %d, want 401", resp.StatusCode)
	}

	resp := ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": ts.staff.Email, "password": "bad"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", resp.StatusCode)
	}

	cookie := ts.login(t, ts.staff.Email)
	body := decodeBody[SessionResponse](t, ts.do(t, http.MethodGet, "/api/auth/session", nil, cookie))
	if body.User.ID != ts.staff.ID || body.User.Role != domain.RoleInstaller {
		t.Errorf("session user = %+v", body.User)
	}

	if resp := ts.do(t, http.MethodPost, "/api/auth/logout", nil, cookie); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status = %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodGet, "/api/auth/session", nil, cookie); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("after logout: status = %d, want 401", resp.StatusCode)
	}
}

func TestHandleError_StoreFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	HandleError(rec, logger, context.DeadlineExceeded)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Internal server error" || body.Details == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestHandleError_UnknownUser(t *testing.T) {
	rec := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	HandleError(rec, logger, fmt.Errorf("update application status: %w", store.ErrUnknownUser))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Unknown user" || body.Details != "" {
		t.Errorf("body = %+v", body)
	}
}
