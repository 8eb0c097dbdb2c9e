package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Deposit    = "deposit"
	Withdrawal = "withdrawal"

	// DateLayout is the wire and storage layout for calendar days.
	DateLayout = "2006-01-02"
	// TimestampLayout is the storage and export layout for record timestamps.
	TimestampLayout = "2006-01-02 15:04:05"
)

type (
	// Record is one logged mobile-money transaction.
	Record struct {
		ID        int64
		Date      time.Time
		Phone     string
		Type      string
		Amount    decimal.Decimal
		Agent     string
		Reference string // empty when absent
		CreatedAt time.Time
	}

	// NewRecord carries the agent-supplied fields of a record about to be created.
	NewRecord struct {
		Phone     string
		Type      string
		Amount    string
		Reference string
	}
)

const (
	maxPhoneLen     = 20
	maxTypeLen      = 20
	maxAgentLen     = 50
	maxReferenceLen = 255
)

// Validate checks the invariants a record must hold before it is stored.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Phone) == "" {
		return &ValidationError{Field: "phone", Reason: "phone is required"}
	}
	if len(r.Phone) > maxPhoneLen {
		return &ValidationError{Field: "phone", Reason: "phone is too long"}
	}
	if !r.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "amount must be greater than zero"}
	}
	if strings.TrimSpace(r.Type) == "" {
		return &ValidationError{Field: "type", Reason: "type is required"}
	}
	if len(r.Type) > maxTypeLen {
		return &ValidationError{Field: "type", Reason: "type is too long"}
	}
	if strings.TrimSpace(r.Agent) == "" {
		return &ValidationError{Field: "agent", Reason: "agent is required"}
	}
	if len(r.Agent) > maxAgentLen {
		return &ValidationError{Field: "agent", Reason: "agent is too long"}
	}
	if len(r.Reference) > maxReferenceLen {
		return &ValidationError{Field: "reference", Reason: "reference is too long"}
	}
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "date is required"}
	}
	return nil
}

// Build turns form input into a record attributed to agent and stamped at now.
// The type defaults to deposit when omitted.
func (n NewRecord) Build(agent string, now time.Time) (Record, error) {
	amount, err := ParseAmount(n.Amount)
	if err != nil {
		return Record{}, err
	}
	typ := strings.TrimSpace(n.Type)
	if typ == "" {
		typ = Deposit
	}
	r := Record{
		Date:      now,
		Phone:     strings.TrimSpace(n.Phone),
		Type:      typ,
		Amount:    amount,
		Agent:     agent,
		Reference: strings.TrimSpace(n.Reference),
		CreatedAt: now,
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}
