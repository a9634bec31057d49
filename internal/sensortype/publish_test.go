package sensortype

import (
	"context"
	"errors"
	"testing"
)

type fakeBroker struct {
	retained map[string]string
	fail     bool
}

func (b *fakeBroker) PublishRetained(topic string, payload []byte) error {
	if b.fail {
		return errors.New("not connected")
	}
	b.retained[topic] = string(payload)
	return nil
}

func (b *fakeBroker) ClearRetained(topic string) error {
	delete(b.retained, topic)
	return nil
}

type fakeChanges struct {
	rows []string
}

func (f *fakeChanges) WriteConfigChange(sensorType, action string, keys int) {
	f.rows = append(f.rows, sensorType+"/"+action+"/"+string(rune('0'+keys)))
}

func topicFor(name string) string { return "sensoradmin/config/" + name }

func TestPublishConfigsObserver(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()
	broker := &fakeBroker{retained: map[string]string{}}
	changes := &fakeChanges{}
	reg.Observe(PublishConfigs(broker, topicFor, nil))
	reg.Observe(RecordChanges(changes))

	st := &SensorType{Name: "Flow", Description: "f", Config: mustParse(t, "[Measurement]\nunit=m3/h\nmax=500")}
	if err := reg.Create(ctx, st); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	want := `{"Measurement":{"unit":"m3/h","max":500}}`
	if got := broker.retained["sensoradmin/config/Flow"]; got != want {
		t.Errorf("retained = %s, want %s", got, want)
	}

	if err := reg.Delete(ctx, "Flow"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := broker.retained["sensoradmin/config/Flow"]; ok {
		t.Error("retained config not cleared on delete")
	}

	if len(changes.rows) != 2 || changes.rows[0] != "Flow/create/2" || changes.rows[1] != "Flow/delete/0" {
		t.Errorf("changes = %v", changes.rows)
	}
}

func TestPublishAll(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()
	if _, err := reg.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}

	broker := &fakeBroker{retained: map[string]string{}}
	if n := reg.PublishAll(ctx, broker, topicFor); n != len(defaultCatalogue) {
		t.Errorf("PublishAll() = %d", n)
	}
	if len(broker.retained) != len(defaultCatalogue) {
		t.Errorf("retained topics = %d", len(broker.retained))
	}

	// Publish failures are logged, not fatal.
	broker.fail = true
	reg.PublishAll(ctx, broker, topicFor)
}
