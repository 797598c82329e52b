package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cybersms/numstore/internal/models"
)

func setupStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:store_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.Activation{}, &models.Favorite{}, &models.Credential{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func newWaitingActivation(customerID int64, remoteID int64) *models.Activation {
	rid := remoteID
	return &models.Activation{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		ServiceID:   2,
		RemoteID:    &rid,
		PhoneNumber: "+5511999990000",
		Status:      models.StatusWaiting,
		MinutesLeft: models.DefaultReservationMinutes,
		PricePaid:   30.0,
	}
}

func TestActivationStoreCreateAndGet(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewActivationStore(db)
	ctx := context.Background()

	activation := newWaitingActivation(7, 100)
	if errCreate := store.Create(ctx, activation); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	loaded, errGet := store.GetByID(ctx, activation.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if loaded.Status != models.StatusWaiting || loaded.MinutesLeft != 10 {
		t.Fatalf("unexpected record: %+v", loaded)
	}
	if loaded.RemoteID == nil || *loaded.RemoteID != 100 {
		t.Fatalf("remote id = %v, want 100", loaded.RemoteID)
	}
}

func TestActivationStoreGetMissing(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewActivationStore(db)

	if _, errGet := store.GetByID(context.Background(), "nope"); errGet != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", errGet)
	}
}

func TestActivationStoreListsSplitByStatus(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewActivationStore(db)
	ctx := context.Background()

	waiting := newWaitingActivation(7, 100)
	if errCreate := store.Create(ctx, waiting); errCreate != nil {
		t.Fatalf("create waiting: %v", errCreate)
	}
	done := newWaitingActivation(7, 101)
	done.Status = models.StatusCompleted
	if errCreate := store.Create(ctx, done); errCreate != nil {
		t.Fatalf("create done: %v", errCreate)
	}
	other := newWaitingActivation(8, 102)
	if errCreate := store.Create(ctx, other); errCreate != nil {
		t.Fatalf("create other: %v", errCreate)
	}

	active, errActive := store.ListActiveByCustomer(ctx, 7)
	if errActive != nil {
		t.Fatalf("list active: %v", errActive)
	}
	if len(active) != 1 || active[0].ID != waiting.ID {
		t.Fatalf("unexpected active list: %+v", active)
	}

	history, errHistory := store.ListHistoryByCustomer(ctx, 7)
	if errHistory != nil {
		t.Fatalf("list history: %v", errHistory)
	}
	if len(history) != 1 || history[0].ID != done.ID {
		t.Fatalf("unexpected history list: %+v", history)
	}
}

func TestActivationStoreListResumable(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewActivationStore(db)
	ctx := context.Background()

	withRemote := newWaitingActivation(7, 100)
	if errCreate := store.Create(ctx, withRemote); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	withoutRemote := newWaitingActivation(7, 0)
	withoutRemote.RemoteID = nil
	if errCreate := store.Create(ctx, withoutRemote); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	terminal := newWaitingActivation(7, 101)
	terminal.Status = models.StatusExpired
	if errCreate := store.Create(ctx, terminal); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	resumable, errList := store.ListResumable(ctx)
	if errList != nil {
		t.Fatalf("list resumable: %v", errList)
	}
	if len(resumable) != 1 || resumable[0].ID != withRemote.ID {
		t.Fatalf("unexpected resumable list: %+v", resumable)
	}
}

func TestActivationStoreMarkCompleted(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewActivationStore(db)
	ctx := context.Background()

	activation := newWaitingActivation(7, 100)
	if errCreate := store.Create(ctx, activation); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	code := "123456"
	text := "Your code is 123456"
	completedAt := time.Now().UTC().Truncate(time.Second)
	if errMark := store.MarkCompleted(ctx, activation.ID, &code, &text, &completedAt); errMark != nil {
		t.Fatalf("mark completed: %v", errMark)
	}

	loaded, errGet := store.GetByID(ctx, activation.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if loaded.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", loaded.Status)
	}
	if loaded.SMSCode == nil || *loaded.SMSCode != code {
		t.Fatalf("sms code = %v, want %s", loaded.SMSCode, code)
	}
	if loaded.CompletedAt == nil {
		t.Fatalf("completed at not set")
	}
}

func TestActivationStoreMarkExpiredZeroesMinutes(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewActivationStore(db)
	ctx := context.Background()

	activation := newWaitingActivation(7, 100)
	if errCreate := store.Create(ctx, activation); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if errMark := store.MarkExpired(ctx, activation.ID); errMark != nil {
		t.Fatalf("mark expired: %v", errMark)
	}

	loaded, errGet := store.GetByID(ctx, activation.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if loaded.Status != models.StatusExpired || loaded.MinutesLeft != 0 {
		t.Fatalf("unexpected record after expiry: %+v", loaded)
	}
}
