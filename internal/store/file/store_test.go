package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"setup-scanner/internal/throttle"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "none.txt"), 0)
	if _, ok, err := s.LastSent(context.Background(), "BTC/USDT_conservative"); ok || err != nil {
		t.Fatalf("expected no record, got ok=%v err=%v", ok, err)
	}
}

func TestStore_RoundTripAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "last_alerts.txt")

	s := Open(path, 0)
	if err := s.Put(ctx, "BTC/USDT_conservative", t0); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "ETH/USDT_momentum", t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	reopened := Open(path, 0)
	at, ok, err := reopened.LastSent(ctx, "BTC/USDT_conservative")
	if err != nil || !ok || !at.Equal(t0) {
		t.Fatalf("got at=%v ok=%v err=%v", at, ok, err)
	}
	if reopened.Len() != 2 {
		t.Errorf("expected 2 records, got %d", reopened.Len())
	}
}

func TestStore_SkipsCorruptLinesLaterWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_alerts.txt")
	content := strings.Join([]string{
		"BTC/USDT_conservative|" + t0.Format(time.RFC3339Nano),
		"garbage line",
		"ETH/USDT_momentum|not-a-time",
		"|" + t0.Format(time.RFC3339Nano),
		"BTC/USDT_conservative|" + t0.Add(time.Hour).Format(time.RFC3339Nano),
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Open(path, 0)
	if s.Len() != 1 {
		t.Fatalf("expected 1 valid key, got %d", s.Len())
	}
	at, ok, _ := s.LastSent(context.Background(), "BTC/USDT_conservative")
	if !ok || !at.Equal(t0.Add(time.Hour)) {
		t.Errorf("later line should win: got %v", at)
	}
}

func TestStore_PrunesOnWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "last_alerts.txt")
	s := Open(path, 24*time.Hour)
	s.Put(ctx, "old", t0)
	s.Put(ctx, "new", t0.Add(25*time.Hour))

	if _, ok, _ := s.LastSent(ctx, "old"); ok {
		t.Error("expected old record to be pruned")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "old|") {
		t.Errorf("pruned record still on disk: %q", data)
	}
}

func TestStore_WithThrottle(t *testing.T) {
	ctx := context.Background()
	th := throttle.New(Open(filepath.Join(t.TempDir(), "a.txt"), 0), time.Hour)
	k := throttle.Key{Asset: "BTC/USDT", SetupID: "conservative"}
	th.RecordSent(ctx, k, t0)
	if th.ShouldSend(ctx, k, t0.Add(30*time.Minute)) {
		t.Error("expected suppression within cooldown")
	}
	if !th.ShouldSend(ctx, k, t0.Add(time.Hour)) {
		t.Error("expected send after cooldown")
	}
}

func TestStore_WriteFailure(t *testing.T) {
	// Parent directory does not exist
	s := Open(filepath.Join(t.TempDir(), "missing", "a.txt"), 0)
	err := s.Put(context.Background(), "k", t0)
	if err == nil {
		t.Fatal("expected write error")
	}
	if !errors.Is(err, throttle.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}
}

func TestStore_HeartbeatSurvivesShortCooldown(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "last_alerts.txt")
	interval := 4 * time.Hour
	alerts := throttle.New(Open(path, throttle.PruneAfter(time.Minute, interval)), time.Minute)
	heartbeat := alerts.WithCooldown(interval)
	hb := throttle.Key{Asset: "*", SetupID: "heartbeat"}

	if err := heartbeat.RecordSent(ctx, hb, t0); err != nil {
		t.Fatal(err)
	}
	// An unrelated alert rewrites the file and prunes.
	if err := alerts.RecordSent(ctx, throttle.Key{Asset: "ETH/USDT", SetupID: "momentum"}, t0.Add(30*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if heartbeat.ShouldSend(ctx, hb, t0.Add(time.Hour)) {
		t.Error("heartbeat record pruned before its interval elapsed")
	}
	if !heartbeat.ShouldSend(ctx, hb, t0.Add(interval)) {
		t.Error("expected heartbeat once the interval elapsed")
	}
}
