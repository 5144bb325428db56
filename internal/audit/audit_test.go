package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/mq"
	"github.com/shaiso/zakaz/internal/store/memstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRetry запоминает записи, отправленные на повтор.
type fakeRetry struct {
	entries []*domain.AuditLogEntry
	err     error
}

func (f *fakeRetry) PublishAuditRetry(ctx context.Context, entry *domain.AuditLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func TestRecorder_Record(t *testing.T) {
	s := memstore.New()
	rec := NewRecorder(Config{Audit: s.Audit(), Users: s.Users(), Logger: discardLogger()})

	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.1", UserAgent: "curl/8"})
	rec.Record(ctx, Entry{
		Action:      domain.ActionStatusChange,
		EntityType:  domain.EntityApplication,
		EntityID:    "app-1",
		Description: "Изменен статус",
		OldValues:   map[string]any{"status": "new"},
		NewValues:   map[string]any{"status": "estimation"},
	})

	logs, _ := s.Audit().ListByEntity(context.Background(), domain.EntityApplication, "app-1")
	if len(logs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(logs))
	}
	got := logs[0]
	if got.IPAddress == nil || *got.IPAddress != "10.0.0.1" {
		t.Errorf("ip not recorded: %v", got.IPAddress)
	}
	if got.UserAgent == nil || *got.UserAgent != "curl/8" {
		t.Errorf("user agent not recorded: %v", got.UserAgent)
	}
	if got.UserID != nil || got.UserName != nil {
		t.Error("anonymous entry should have no user fields")
	}
}

func TestRecorder_Record_FailureIsSwallowedAndQueued(t *testing.T) {
	s := memstore.New()
	s.FailAuditInserts(errors.New("disk full"))
	retry := &fakeRetry{}
	rec := NewRecorder(Config{Audit: s.Audit(), Users: s.Users(), Retry: retry, Logger: discardLogger()})

	// Record не паникует и не возвращает ошибку
	rec.Record(context.Background(), Entry{
		Action:      domain.ActionAssign,
		EntityType:  domain.EntityApplication,
		EntityID:    "app-2",
		Description: "Назначен исполнитель",
	})

	if len(retry.entries) != 1 {
		t.Fatalf("expected entry queued for retry, got %d", len(retry.entries))
	}
	if retry.entries[0].Description != "Назначен исполнитель" {
		t.Errorf("wrong entry queued: %+v", retry.entries[0])
	}
}

func TestRecorder_Record_RetryFailureIsSwallowed(t *testing.T) {
	s := memstore.New()
	s.FailAuditInserts(errors.New("disk full"))
	rec := NewRecorder(Config{
		Audit:  s.Audit(),
		Users:  s.Users(),
		Retry:  &fakeRetry{err: errors.New("broker down")},
		Logger: discardLogger(),
	})

	rec.Record(context.Background(), Entry{Action: domain.ActionOther, EntityType: domain.EntityOther})
}

func TestRecorder_ResolveActor(t *testing.T) {
	s := memstore.New()
	userID := uuid.New()
	s.PutUser(domain.User{ID: userID, FullName: "Иван Петров", Email: "ivan@zakaz.test", Role: domain.RoleManager, Active: true})
	rec := NewRecorder(Config{Audit: s.Audit(), Users: s.Users(), Logger: discardLogger()})
	ctx := context.Background()

	actor := rec.ResolveActor(ctx, &userID)
	if actor.Name == nil || *actor.Name != "Иван Петров" {
		t.Errorf("name = %v", actor.Name)
	}
	if actor.Email == nil || *actor.Email != "ivan@zakaz.test" {
		t.Errorf("email = %v", actor.Email)
	}

	if got := rec.ResolveActor(ctx, nil); got.UserID != nil || got.Name != nil {
		t.Errorf("nil user should give anonymous actor, got %+v", got)
	}

	unknown := uuid.New()
	got := rec.ResolveActor(ctx, &unknown)
	if got.UserID == nil || *got.UserID != unknown {
		t.Error("unknown user id should be kept")
	}
	if got.Name != nil || got.Email != nil {
		t.Error("unknown user should have empty name and email")
	}
}

func TestMetaFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		wantIP  string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1", "X-Real-IP": "10.0.0.2"}, "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.2"}, "10.0.0.2"},
		{"none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.Header.Set("User-Agent", "test-agent")
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			meta := MetaFromRequest(r)
			if meta.IPAddress != tt.wantIP {
				t.Errorf("IPAddress = %q, want %q", meta.IPAddress, tt.wantIP)
			}
			if meta.UserAgent != "test-agent" {
				t.Errorf("UserAgent = %q", meta.UserAgent)
			}
		})
	}
}

func retryDelivery(t *testing.T, entry *domain.AuditLogEntry) *mq.Delivery {
	t.Helper()
	body, _ := json.Marshal(mq.NewMessage(mq.MessageTypeAuditRetry, entry))
	var msg mq.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &mq.Delivery{Message: msg}
}

func TestReplayer_Handle(t *testing.T) {
	s := memstore.New()
	r := NewReplayer(s.Audit(), discardLogger())
	ctx := context.Background()

	id := "app-3"
	entry := &domain.AuditLogEntry{
		ID:          uuid.New(),
		ActionType:  domain.ActionStatusChange,
		EntityType:  domain.EntityApplication,
		EntityID:    &id,
		Description: "Изменен статус заявки",
	}
	d := retryDelivery(t, entry)

	if err := r.Handle(ctx, d); err != nil {
		t.Fatalf("first replay: %v", err)
	}
	// Повторная доставка того же сообщения — не ошибка и не дубль
	if err := r.Handle(ctx, d); err != nil {
		t.Fatalf("second replay: %v", err)
	}

	logs, _ := s.Audit().ListByEntity(ctx, domain.EntityApplication, id)
	if len(logs) != 1 {
		t.Errorf("expected exactly 1 entry, got %d", len(logs))
	}
}

func TestReplayer_Handle_InsertFailureRequeues(t *testing.T) {
	s := memstore.New()
	s.FailAuditInserts(errors.New("db down"))
	r := NewReplayer(s.Audit(), discardLogger())

	err := r.Handle(context.Background(), retryDelivery(t, &domain.AuditLogEntry{ID: uuid.New()}))
	if err == nil {
		t.Error("expected error so the message is requeued")
	}
	if mq.IsPermanent(err) {
		t.Error("insert failure must be retried, not dead-lettered")
	}
}

func TestReplayer_Handle_MalformedEntryIsPermanent(t *testing.T) {
	r := NewReplayer(memstore.New().Audit(), discardLogger())
	d := &mq.Delivery{Message: mq.Message{ID: "m1", Type: mq.MessageTypeAuditRetry, Payload: "not an entry"}}

	err := r.Handle(context.Background(), d)
	if !mq.IsPermanent(err) {
		t.Errorf("expected permanent error, got %v", err)
	}
}
