package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validRecord() Record {
	return Record{
		Date:   time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		Phone:  "0771234567",
		Type:   Deposit,
		Amount: decimal.RequireFromString("50.00"),
		Agent:  "agent1",
	}
}

func TestRecordValidate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(*Record){
		func(r *Record) { r.Phone = "" },
		func(r *Record) { r.Phone = "   " },
		func(r *Record) { r.Amount = decimal.Zero },
		func(r *Record) { r.Amount = decimal.RequireFromString("-1") },
		func(r *Record) { r.Agent = "" },
		func(r *Record) { r.Type = "" },
		func(r *Record) { r.Date = time.Time{} },
		func(r *Record) { r.Phone = "012345678901234567890" },
	}
	for i, mutate := range bads {
		r := validRecord()
		mutate(&r)
		err := r.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected ValidationError, got %T", i, err)
		}
	}
}

func TestNewRecordBuild(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	r, err := NewRecord{Phone: " 0771234567 ", Amount: "50", Reference: " ref-1 "}.Build("agent1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Phone != "0771234567" || r.Reference != "ref-1" {
		t.Fatalf("inputs not trimmed: %+v", r)
	}
	if r.Type != Deposit {
		t.Fatalf("expected default type deposit, got %q", r.Type)
	}
	if r.Agent != "agent1" || !r.Date.Equal(now) || !r.CreatedAt.Equal(now) {
		t.Fatalf("attribution or timestamps wrong: %+v", r)
	}
	if !r.Amount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("amount = %s", r.Amount)
	}

	_, err = NewRecord{Phone: "", Amount: "10"}.Build("agent1", now)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "phone" {
		t.Fatalf("expected phone validation error, got %v", err)
	}

	_, err = NewRecord{Phone: "077", Amount: "0"}.Build("agent1", now)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
