// Package manager drives component creation against the host and owns the
// logical-key -> host-id map, the only concurrently mutated shared state
// in the core.
package manager

import (
	"context"
	"log/slog"
	"math"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Host is the command-channel surface the manager depends on.
// *bridge.Client implements it.
type Host interface {
	Create(ctx context.Context, guid string, x, y float64) (string, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateRequest describes one component to place. LogicalKey, when set,
// names the created component in the identifier map so later assembly
// steps (connections, grouping) can find it.
type CreateRequest struct {
	GUID       string  `json:"guid"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	LogicalKey string  `json:"logical_key,omitempty"`
}

// Validate rejects requests that must never reach the host: a missing
// type identifier or a non-finite coordinate.
func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.GUID, validation.Required),
		validation.Field(&r.X, validation.By(finite)),
		validation.Field(&r.Y, validation.By(finite)),
	)
}

func finite(value any) error {
	v, _ := value.(float64)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return validation.NewError("validation_finite", "must be a finite number")
	}
	return nil
}

// Manager issues creation requests and guards the identifier map. The
// mutex covers map access only, never a network call.
type Manager struct {
	host   Host
	logger *slog.Logger

	mu  sync.Mutex
	ids map[string]string // logical key -> host id
}

// New creates a manager with an empty identifier map.
func New(host Host, logger *slog.Logger) *Manager {
	return &Manager{
		host:   host,
		logger: logger,
		ids:    make(map[string]string),
	}
}

// Create places one component. On success the logical key (if supplied)
// is mapped to the host id. A host-reported failure is logged and
// returned as an error for the caller to count, never escalated further.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (string, error) {
	hostID, err := m.host.Create(ctx, req.GUID, req.X, req.Y)
	if err != nil {
		m.logger.Error("manager: create failed",
			slog.String("guid", req.GUID),
			slog.String("logical_key", req.LogicalKey),
			slog.String("error", err.Error()))
		return "", err
	}

	if req.LogicalKey != "" {
		m.mu.Lock()
		m.ids[req.LogicalKey] = hostID
		m.mu.Unlock()
	}

	m.logger.Debug("manager: component created",
		slog.String("guid", req.GUID),
		slog.String("host_id", hostID),
		slog.String("logical_key", req.LogicalKey))
	return hostID, nil
}

// Delete removes a component by host id. On host-confirmed success every
// mapping whose value equals hostID is dropped, so a logical key can be
// cleaned up without knowing it in advance.
func (m *Manager) Delete(ctx context.Context, hostID string) bool {
	ok, err := m.host.Delete(ctx, hostID)
	if err != nil {
		m.logger.Error("manager: delete failed",
			slog.String("host_id", hostID),
			slog.String("error", err.Error()))
		return false
	}
	if !ok {
		return false
	}

	m.mu.Lock()
	for key, id := range m.ids {
		if id == hostID {
			delete(m.ids, key)
		}
	}
	m.mu.Unlock()
	return true
}

// Lookup returns the host id mapped to a logical key.
func (m *Manager) Lookup(logicalKey string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[logicalKey]
	return id, ok
}

// Mappings returns a copy of the identifier map.
func (m *Manager) Mappings() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.ids))
	for k, v := range m.ids {
		out[k] = v
	}
	return out
}
