package sensortype

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Change actions reported to observers.
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionConfigChange = "config_change"
)

// Event describes one catalogue change. SensorType is a private copy and
// is nil for deletions.
type Event struct {
	Action     string
	Name       string
	SensorType *SensorType
}

// Observer is notified after a sensor type has been written or removed.
// Observers run synchronously on the caller's goroutine and must not block.
type Observer func(Event)

// Registry provides catalogue management with caching and thread safety.
// It wraps a Repository and keeps every sensor type in memory; the
// catalogue is small and read far more often than written.
//
// All public methods are thread-safe.
type Registry struct {
	repo      Repository
	cache     map[string]*SensorType
	cacheMu   sync.RWMutex
	logger    Logger
	observers []Observer
}

// NewRegistry creates a new sensor type registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*SensorType),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Observe registers fn to be called after every successful change.
// Call before the registry is shared between goroutines.
func (r *Registry) Observe(fn Observer) {
	r.observers = append(r.observers, fn)
}

func (r *Registry) notify(action, name string, t *SensorType) {
	for _, fn := range r.observers {
		fn(Event{Action: action, Name: name, SensorType: t.DeepCopy()})
	}
}

// RefreshCache reloads all sensor types from the repository.
func (r *Registry) RefreshCache(ctx context.Context) error {
	types, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading sensor types: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*SensorType, len(types))
	for _, t := range types {
		r.cache[t.Name] = t.DeepCopy()
	}

	r.logger.Info("sensor type cache refreshed", "count", len(types))
	return nil
}

// Get returns a deep copy of the named sensor type.
func (r *Registry) Get(ctx context.Context, name string) (*SensorType, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[name]
	r.cacheMu.RUnlock()
	if ok {
		return cached.DeepCopy(), nil
	}

	t, err := r.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[name] = t.DeepCopy()
	r.cacheMu.Unlock()
	return t, nil
}

// List returns deep copies of all sensor types sorted by name.
func (r *Registry) List(_ context.Context) []*SensorType {
	r.cacheMu.RLock()
	types := make([]*SensorType, 0, len(r.cache))
	for _, t := range r.cache {
		types = append(types, t.DeepCopy())
	}
	r.cacheMu.RUnlock()

	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}

// Exists reports whether the named sensor type is in the catalogue.
func (r *Registry) Exists(ctx context.Context, name string) bool {
	_, err := r.Get(ctx, name)
	return err == nil
}

// Create validates and stores a new sensor type.
func (r *Registry) Create(ctx context.Context, t *SensorType) error {
	if err := Validate(t); err != nil {
		return err
	}
	if err := r.repo.Create(ctx, t); err != nil {
		return err
	}

	r.store(t)
	r.logger.Info("sensor type created", "sensor_type", t.Name, "keys", t.Config.Len())
	r.notify(ActionCreate, t.Name, t)
	return nil
}

// Update validates and replaces an existing sensor type.
func (r *Registry) Update(ctx context.Context, t *SensorType) error {
	if err := Validate(t); err != nil {
		return err
	}
	if err := r.repo.Update(ctx, t); err != nil {
		return err
	}

	// Reload to pick up created_at.
	stored, err := r.repo.Get(ctx, t.Name)
	if err != nil {
		return fmt.Errorf("reloading sensor type: %w", err)
	}
	*t = *stored

	r.store(t)
	r.logger.Info("sensor type updated", "sensor_type", t.Name, "keys", t.Config.Len())
	r.notify(ActionUpdate, t.Name, t)
	return nil
}

// Delete removes a sensor type that no sensor references.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := r.repo.Delete(ctx, name); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, name)
	r.cacheMu.Unlock()

	r.logger.Info("sensor type deleted", "sensor_type", name)
	r.notify(ActionDelete, name, nil)
	return nil
}

// SetConfigValue changes a single configuration value. An empty section
// addresses the root scope; a missing section is created.
func (r *Registry) SetConfigValue(ctx context.Context, name, section, key string, v sensorconfig.Value, user string) (*SensorType, error) {
	if err := ValidateConfigValue(section, key, v); err != nil {
		return nil, err
	}
	t, err := r.repo.PatchConfigValue(ctx, name, section, key, v, user)
	if err != nil {
		return nil, err
	}

	r.store(t)
	r.logger.Debug("sensor type config value set", "sensor_type", name, "section", section, "key", key)
	r.notify(ActionConfigChange, name, t)
	return t, nil
}

// DeleteConfigValue removes a single configuration value.
func (r *Registry) DeleteConfigValue(ctx context.Context, name, section, key, user string) (*SensorType, error) {
	current, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, ok := current.Config.Get(section, key); !ok {
		return nil, fmt.Errorf("%w: no key %q in section %q", ErrNotFound, key, section)
	}

	t, err := r.repo.DeleteConfigValue(ctx, name, section, key, user)
	if err != nil {
		return nil, err
	}

	r.store(t)
	r.logger.Debug("sensor type config value deleted", "sensor_type", name, "section", section, "key", key)
	r.notify(ActionConfigChange, name, t)
	return t, nil
}

func (r *Registry) store(t *SensorType) {
	r.cacheMu.Lock()
	r.cache[t.Name] = t.DeepCopy()
	r.cacheMu.Unlock()
}
