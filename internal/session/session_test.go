package session

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/todoshare/internal/model"
)

// --- モック定義 ---

type mockProvider struct {
	currentIdentityFn func(ctx context.Context) (*model.Identity, error)
	assignColorFn     func(ctx context.Context, color string) (*model.Identity, error)
	assignCalls       int
}

func (m *mockProvider) CurrentIdentity(ctx context.Context) (*model.Identity, error) {
	if m.currentIdentityFn != nil {
		return m.currentIdentityFn(ctx)
	}
	return nil, nil
}

func (m *mockProvider) AssignColor(ctx context.Context, color string) (*model.Identity, error) {
	m.assignCalls++
	if m.assignColorFn != nil {
		return m.assignColorFn(ctx, color)
	}
	return nil, errors.New("not implemented")
}

func colorlessProvider() *mockProvider {
	return &mockProvider{
		currentIdentityFn: func(ctx context.Context) (*model.Identity, error) {
			return &model.Identity{ID: "u1", Email: "a@b.com"}, nil
		},
		assignColorFn: func(ctx context.Context, color string) (*model.Identity, error) {
			return &model.Identity{ID: "u1", Email: "a@b.com", Color: color}, nil
		},
	}
}

func TestSession_Refresh_NeedsColor(t *testing.T) {
	s := New(colorlessProvider(), nil)

	if s.NeedsColor() {
		t.Error("NeedsColor() should be false before sign-in")
	}
	if !s.Refresh(context.Background()) {
		t.Fatal("Refresh() = false")
	}
	if !s.NeedsColor() {
		t.Error("NeedsColor() should be true for an identity without color")
	}
	if got := s.Identity(); got == nil || got.Email != "a@b.com" {
		t.Errorf("Identity() = %+v", got)
	}
}

func TestSession_AssignColor_UpdatesSnapshotAndNotifies(t *testing.T) {
	s := New(colorlessProvider(), nil)
	s.Refresh(context.Background())

	var notified []*model.Identity
	s.Subscribe(func(ident *model.Identity) { notified = append(notified, ident) })

	if !s.AssignColor(context.Background(), "#bfdbfe") {
		t.Fatal("AssignColor() = false")
	}
	if s.NeedsColor() {
		t.Error("NeedsColor() should be false after assignment")
	}
	if got := s.Identity().Color; got != "#bfdbfe" {
		t.Errorf("color = %q", got)
	}
	if len(notified) != 1 || notified[0].Color != "#bfdbfe" {
		t.Errorf("notified = %+v", notified)
	}
}

func TestSession_AssignColor_OutsidePaletteNoCall(t *testing.T) {
	p := colorlessProvider()
	s := New(p, nil)
	s.Refresh(context.Background())

	if s.AssignColor(context.Background(), "#000000") {
		t.Error("AssignColor(outside palette) = true")
	}
	if p.assignCalls != 0 {
		t.Errorf("provider called %d times, want 0", p.assignCalls)
	}
}

func TestSession_AssignColor_FailureNoRetry(t *testing.T) {
	p := colorlessProvider()
	p.assignColorFn = func(ctx context.Context, color string) (*model.Identity, error) {
		return nil, errors.New("write failed")
	}
	s := New(p, nil)
	s.Refresh(context.Background())

	if s.AssignColor(context.Background(), "#fecaca") {
		t.Error("AssignColor() = true on failure")
	}
	if p.assignCalls != 1 {
		t.Errorf("provider called %d times, want 1", p.assignCalls)
	}
	if !s.NeedsColor() {
		t.Error("snapshot should be unchanged")
	}
}

func TestSession_Refresh_FailureKeepsSnapshot(t *testing.T) {
	p := colorlessProvider()
	s := New(p, nil)
	s.Refresh(context.Background())
	p.currentIdentityFn = func(ctx context.Context) (*model.Identity, error) {
		return nil, errors.New("network down")
	}

	if s.Refresh(context.Background()) {
		t.Error("Refresh() = true on failure")
	}
	if s.Identity() == nil {
		t.Error("snapshot should be kept")
	}
}

func TestSession_Unsubscribe(t *testing.T) {
	s := New(colorlessProvider(), nil)

	calls := 0
	unsubscribe := s.Subscribe(func(*model.Identity) { calls++ })
	s.Refresh(context.Background())
	unsubscribe()
	unsubscribe()
	s.Refresh(context.Background())

	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
}

func TestSession_Clear(t *testing.T) {
	s := New(colorlessProvider(), nil)
	s.Refresh(context.Background())

	last := &model.Identity{}
	s.Subscribe(func(ident *model.Identity) { last = ident })
	s.Clear()

	if s.Identity() != nil || last != nil {
		t.Error("Clear() should drop the identity and notify nil")
	}
	if s.NeedsColor() {
		t.Error("NeedsColor() should be false after sign-out")
	}
}

func TestSession_IdentityIsCopy(t *testing.T) {
	s := New(colorlessProvider(), nil)
	s.Refresh(context.Background())

	s.Identity().Email = "changed"
	if s.Identity().Email != "a@b.com" {
		t.Error("Identity() should return a copy")
	}
}
