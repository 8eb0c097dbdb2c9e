package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"momo/internal/core"
	"momo/internal/storage"
	"momo/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.RecordStore { return New(time.UTC) })
}

func TestListReturnsCopies(t *testing.T) {
	s := New(time.UTC)
	ctx := context.Background()
	_, err := s.Create(ctx, core.Record{
		Date:   time.Now(),
		Phone:  "0771234567",
		Type:   core.Deposit,
		Amount: decimal.NewFromInt(3),
		Agent:  "agent1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := s.List(ctx, core.Filter{})
	got[0].Phone = "changed"

	again, _ := s.List(ctx, core.Filter{})
	if again[0].Phone != "0771234567" {
		t.Fatalf("store mutated through listed slice: %q", again[0].Phone)
	}
}
