package backend

import (
	"context"
	"time"

	"momo/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the wired record service and its cleanup function.
type Result struct {
	Service *services.RecordService
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type     BackendType
	Location *time.Location

	SQLiteDBPath string

	// Event publication is optional; empty AMQPURL disables it.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	RestrictDeleteToOwner bool
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
