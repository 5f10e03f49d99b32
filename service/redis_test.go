package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/revanthyasa/DigitSudoku/config"
	"github.com/revanthyasa/DigitSudoku/model"
)

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	svc := NewRedisService(&config.RedisConfig{Addr: mr.Addr(), TTL: time.Hour})
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

func TestRedisServiceRoundTrip(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	if err := svc.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	got, err := svc.GetGrid(ctx, "abc")
	if err != nil || got != nil {
		t.Fatalf("GetGrid() on miss = %v, %v; want nil, nil", got, err)
	}

	want := model.SampleGrid()
	if err := svc.SetGrid(ctx, "abc", want); err != nil {
		t.Fatalf("SetGrid() error = %v", err)
	}
	got, err = svc.GetGrid(ctx, "abc")
	if err != nil {
		t.Fatalf("GetGrid() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetGrid() = %v, want %v", got, want)
	}

	if ttl := mr.TTL("grid:abc"); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	got, err = svc.GetGrid(ctx, "abc")
	if err != nil || got != nil {
		t.Errorf("expected expired entry, got %v, %v", got, err)
	}
}

func TestRedisServiceCorruptEntry(t *testing.T) {
	svc, mr := newTestRedis(t)
	if err := mr.Set("grid:bad", "not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetGrid(context.Background(), "bad"); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
