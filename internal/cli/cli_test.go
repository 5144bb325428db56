package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/statuses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"statuses": []map[string]any{
			{"id": "s1", "code": "new", "label": "Новая", "sort_order": 1, "is_active": true},
			{"id": "s2", "code": "thinking", "label": "Думает", "sort_order": 2, "is_active": true},
		}})
	})
	mux.HandleFunc("GET /api/admin/statuses", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookie); err != nil || c.Value != "tok-admin" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"statuses": []map[string]any{}})
	})
	mux.HandleFunc("POST /api/applications/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["new_status"] == "lost" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid status value"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"application": map[string]any{"id": r.PathValue("id"), "application_number": 1001, "status": body["new_status"]},
			"message":     "Status updated successfully",
		})
	})
	mux.HandleFunc("PATCH /api/applications/{id}/assign", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		msg := "User assigned successfully"
		app := map[string]any{"id": r.PathValue("id"), "application_number": 1001, "status": "new"}
		if body["assigned_to"] == "" {
			msg = "Assignment removed successfully"
		} else {
			app["assigned_to"] = body["assigned_to"]
		}
		writeJSON(w, http.StatusOK, map[string]any{"application": app, "message": msg})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "tok-admin"})
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": "u1", "email": "a@b", "full_name": "Админ", "role": "admin"}})
	})
	mux.HandleFunc("GET /api/work-orders/{id}/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"history": []map[string]any{{"id": "h1", "new_status": "in_progress", "new_status_label": "В работе", "changed_at": "2025-03-10T12:00:00Z"}},
			"created": nil,
		})
	})
	mux.HandleFunc("POST /api/work-orders/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error", "details": "db down"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Statuses(t *testing.T) {
	srv := newFakeAPI(t)

	statuses, err := NewClient(srv.URL, "").ListStatuses(false)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}
	if len(statuses) != 2 || statuses[1].Label != "Думает" {
		t.Errorf("statuses = %+v", statuses)
	}

	_, err = NewClient(srv.URL, "").ListStatuses(true)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if _, err := NewClient(srv.URL, "tok-admin").ListStatuses(true); err != nil {
		t.Errorf("admin list with session: %v", err)
	}
}

func TestClient_LoginKeepsSession(t *testing.T) {
	srv := newFakeAPI(t)
	client := NewClient(srv.URL, "")

	token, user, err := client.Login("a@b", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok-admin" || user.Role != "admin" {
		t.Errorf("token=%q user=%+v", token, user)
	}
	if _, err := client.ListStatuses(true); err != nil {
		t.Errorf("session not reused: %v", err)
	}
}

func TestClient_ErrorDetails(t *testing.T) {
	srv := newFakeAPI(t)

	_, err := NewClient(srv.URL, "").CompleteWorkOrder("wo1", CompleteInput{})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Internal server error (db down)" {
		t.Errorf("error = %q", err.Error())
	}
}

// run выполняет команду и возвращает stdout и stderr.
func run(t *testing.T, srv *httptest.Server, jsonMode bool, build func(func() *Client, func() *Output) *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := build(
		func() *Client { return NewClient(srv.URL, "") },
		func() *Output { return NewOutputTo(jsonMode, &stdout, &stderr) },
	)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestApplicationStatusCmd(t *testing.T) {
	srv := newFakeAPI(t)

	stdout, stderr, err := run(t, srv, false, NewApplicationCmd, "status", "app-1", "thinking", "--comment", "перезвонить")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stderr, "Status updated successfully") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout, "thinking") || !strings.Contains(stdout, "1001") {
		t.Errorf("stdout = %q", stdout)
	}

	_, _, err = run(t, srv, false, NewApplicationCmd, "status", "app-1", "lost")
	if err == nil || err.Error() != "Invalid status value" {
		t.Errorf("expected API error, got %v", err)
	}
}

func TestApplicationAssignCmd_Unassign(t *testing.T) {
	srv := newFakeAPI(t)

	stdout, stderr, err := run(t, srv, false, NewApplicationCmd, "assign", "app-1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stderr, "Assignment removed successfully") {
		t.Errorf("stderr = %q", stderr)
	}
	// Пустые ячейки печатаются как "-".
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "app-1") || !strings.HasSuffix(last, "-") {
		t.Errorf("row = %q", last)
	}
}

func TestWorkOrderHistoryCmd_JSON(t *testing.T) {
	srv := newFakeAPI(t)

	stdout, _, err := run(t, srv, true, NewWorkOrderCmd, "history", "wo-1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var history []HistoryResponse
	if err := json.Unmarshal([]byte(stdout), &history); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if len(history) != 1 || history[0].NewStatusLabel != "В работе" {
		t.Errorf("history = %+v", history)
	}
}

func TestWorkOrderCompleteCmd_BadEnd(t *testing.T) {
	srv := newFakeAPI(t)

	_, _, err := run(t, srv, false, NewWorkOrderCmd, "complete", "wo-1", "--end", "tomorrow")
	if err == nil || !strings.Contains(err.Error(), "RFC3339") {
		t.Errorf("expected parse error, got %v", err)
	}
}
