package telemetry

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStorePutKeepsNewest(t *testing.T) {
	s := NewStore(0)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if !s.Put(Reading{SVID: "A", Value: 1, Timestamp: base}) {
		t.Fatal("first Put rejected")
	}
	if s.Put(Reading{SVID: "A", Value: 0, Timestamp: base.Add(-time.Second)}) {
		t.Error("older reading accepted")
	}
	if !s.Put(Reading{SVID: "A", Value: 2, Timestamp: base}) {
		t.Error("same-timestamp reading rejected")
	}

	r, ok := s.Get("A")
	if !ok || r.Value != 2 {
		t.Errorf("Get() = %+v, %v", r, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) ok")
	}
}

func TestStoreStale(t *testing.T) {
	s := NewStore(time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Put(Reading{SVID: "fresh", Value: 1, Timestamp: now.Add(-30 * time.Second)})
	s.Put(Reading{SVID: "old", Value: 1, Timestamp: now.Add(-2 * time.Minute)})

	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh reading reported stale")
	}
	if _, ok := s.Get("old"); ok {
		t.Error("old reading not reported stale")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestGetBatch(t *testing.T) {
	s := NewStore(0)
	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.Put(Reading{SVID: "S2", Value: 42.5, Timestamp: ts})

	got := s.GetBatch([]string{"S1", "S2"})
	if len(got) != 2 {
		t.Fatalf("GetBatch() len = %d", len(got))
	}
	if got[0].SVID != "S1" || got[0].Status != StatusError || got[0].Value != nil {
		t.Errorf("missing entry = %+v", got[0])
	}
	if got[1].Status != StatusSuccess || got[1].Value == nil || *got[1].Value != 42.5 || !got[1].Timestamp.Equal(ts) {
		t.Errorf("present entry = %+v", got[1])
	}
}

func TestStoreConcurrent(t *testing.T) {
	s := NewStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("S%d", j%10)
				s.Put(Reading{SVID: id, Value: float64(i), Timestamp: time.Now()})
				s.Get(id)
			}
		}(i)
	}
	wg.Wait()

	if ids := s.SVIDs(); len(ids) != 10 || ids[0] != "S0" {
		t.Errorf("SVIDs() = %v", ids)
	}
}
