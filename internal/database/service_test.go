package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"forex-portal-go/internal/models"
	"forex-portal-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *Service {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// each :memory: connection is its own database
	db.SetMaxOpenConns(1)

	service, err := NewServiceFromDB(context.Background(), db)
	if err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	t.Cleanup(service.Close)
	return service
}

func TestNewService_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.DatabaseConfig
	}{
		{"empty path", models.DatabaseConfig{MaxOpenConns: 1, PingTimeout: time.Second}},
		{"zero open conns", models.DatabaseConfig{Path: "x.db", PingTimeout: time.Second}},
		{"negative idle", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: time.Second}},
		{"zero ping timeout", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(context.Background(), tt.cfg); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestSessions_SaveAndGetActive(t *testing.T) {
	service := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := service.GetActiveSession(ctx, now); !errors.Is(err, store.ErrNoSession) {
		t.Fatalf("Expected ErrNoSession on empty store, got %v", err)
	}

	first := &models.Session{
		Id:        "s1",
		Email:     "trader@example.com",
		Token:     "token-1",
		IssuedAt:  now.Add(-time.Hour),
		ExpiresAt: now.Add(time.Hour),
	}
	if err := service.SaveSession(ctx, first); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := service.GetActiveSession(ctx, now)
	if err != nil {
		t.Fatalf("GetActiveSession failed: %v", err)
	}
	if got.Token != "token-1" || got.Email != "trader@example.com" {
		t.Errorf("Unexpected session: %+v", got)
	}

	second := &models.Session{
		Id:       "s2",
		Email:    "trader@example.com",
		Token:    "token-2",
		IssuedAt: now,
	}
	if err := service.SaveSession(ctx, second); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err = service.GetActiveSession(ctx, now)
	if err != nil {
		t.Fatalf("GetActiveSession failed: %v", err)
	}
	if got.Id != "s2" {
		t.Errorf("Expected newest session s2, got %s", got.Id)
	}
	if !got.ExpiresAt.IsZero() {
		t.Errorf("Expected no expiry, got %v", got.ExpiresAt)
	}
}

func TestSessions_Expired(t *testing.T) {
	service := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := service.SaveSession(ctx, &models.Session{
		Id:        "s1",
		Email:     "trader@example.com",
		Token:     "token",
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	if _, err := service.GetActiveSession(ctx, now); !errors.Is(err, store.ErrNoSession) {
		t.Errorf("Expected ErrNoSession for expired session, got %v", err)
	}
}

func TestSessions_Invalidate(t *testing.T) {
	service := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := service.SaveSession(ctx, &models.Session{Id: "s1", Email: "a@b.c", Token: "t", IssuedAt: now})
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	if err := service.InvalidateSession(ctx, "s1", "unauthorized", now); err != nil {
		t.Fatalf("InvalidateSession failed: %v", err)
	}
	if _, err := service.GetActiveSession(ctx, now); !errors.Is(err, store.ErrNoSession) {
		t.Errorf("Expected ErrNoSession after invalidation, got %v", err)
	}

	// second invalidation is a no-op
	if err := service.InvalidateSession(ctx, "s1", "logout", now); err != nil {
		t.Errorf("Repeated InvalidateSession failed: %v", err)
	}
}

func TestSessions_SaveRequiresToken(t *testing.T) {
	service := setupTestDB(t)

	if err := service.SaveSession(context.Background(), &models.Session{Id: "s1"}); err == nil {
		t.Error("Expected error for session without token")
	}
	if err := service.SaveSession(context.Background(), nil); err == nil {
		t.Error("Expected error for nil session")
	}
}

func TestReceipts_RecordAndGet(t *testing.T) {
	service := setupTestDB(t)
	ctx := context.Background()

	receipt := models.SubmissionReceipt{
		Kind:           "deposit",
		IdempotencyKey: "key-1",
		RemoteId:       "dep-42",
		Amount:         decimal.RequireFromString("150.25"),
		Currency:       "USD",
		Destination:    "mt5:1001",
		Status:         "pending",
	}
	if err := service.RecordSubmission(ctx, receipt); err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}

	got, err := service.GetSubmission(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetSubmission failed: %v", err)
	}
	if got.Id == "" {
		t.Error("Expected generated receipt id")
	}
	if !got.Amount.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("Expected amount 150.25, got %s", got.Amount)
	}
	if got.RemoteId != "dep-42" || got.Destination != "mt5:1001" {
		t.Errorf("Unexpected receipt: %+v", got)
	}

	if err := service.RecordSubmission(ctx, receipt); !errors.Is(err, store.ErrDuplicateReceipt) {
		t.Errorf("Expected ErrDuplicateReceipt, got %v", err)
	}

	if _, err := service.GetSubmission(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestReceipts_List(t *testing.T) {
	service := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	receipts := []models.SubmissionReceipt{
		{Kind: "deposit", IdempotencyKey: "d1", Amount: decimal.NewFromInt(10), CreatedAt: base},
		{Kind: "withdrawal", IdempotencyKey: "w1", Amount: decimal.NewFromInt(20), CreatedAt: base.Add(time.Minute)},
		{Kind: "deposit", IdempotencyKey: "d2", Amount: decimal.NewFromInt(30), CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range receipts {
		if err := service.RecordSubmission(ctx, r); err != nil {
			t.Fatalf("RecordSubmission failed: %v", err)
		}
	}

	all, err := service.ListSubmissions(ctx, store.ListReceiptsParams{})
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 receipts, got %d", len(all))
	}
	if all[0].IdempotencyKey != "d2" {
		t.Errorf("Expected newest first, got %s", all[0].IdempotencyKey)
	}

	deposits, err := service.ListSubmissions(ctx, store.ListReceiptsParams{Kind: "deposit", Limit: 1})
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(deposits) != 1 || deposits[0].IdempotencyKey != "d2" {
		t.Errorf("Unexpected filtered receipts: %+v", deposits)
	}
}

func TestTicketCursor_Upsert(t *testing.T) {
	service := setupTestDB(t)
	ctx := context.Background()

	if _, err := service.GetTicketCursor(ctx, "T-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	now := time.Now().UTC()
	if err := service.SaveTicketCursor(ctx, models.TicketCursor{TicketId: "T-1", LastMessageId: "m1", LastSeenAt: now}); err != nil {
		t.Fatalf("SaveTicketCursor failed: %v", err)
	}
	if err := service.SaveTicketCursor(ctx, models.TicketCursor{TicketId: "T-1", LastMessageId: "m2", LastSeenAt: now}); err != nil {
		t.Fatalf("SaveTicketCursor failed: %v", err)
	}

	cursor, err := service.GetTicketCursor(ctx, "T-1")
	if err != nil {
		t.Fatalf("GetTicketCursor failed: %v", err)
	}
	if cursor.LastMessageId != "m2" {
		t.Errorf("Expected last message m2, got %s", cursor.LastMessageId)
	}

	if err := service.SaveTicketCursor(ctx, models.TicketCursor{TicketId: "T-1"}); err == nil {
		t.Error("Expected error for cursor without message id")
	}
}
