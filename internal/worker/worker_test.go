package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"orkutbook/internal/model"
	"orkutbook/internal/queue"
	"orkutbook/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// MockLinkMaintainer records which references were warmed, invalidated
// and removed.
type MockLinkMaintainer struct {
	mu          sync.Mutex
	warmed      []string
	invalidated []string
	removed     []string
	failRefs    map[string]bool
}

func NewMockLinkMaintainer() *MockLinkMaintainer {
	return &MockLinkMaintainer{failRefs: make(map[string]bool)}
}

func (m *MockLinkMaintainer) ResolveLink(ctx context.Context, ref string) *model.ResolvedMediaLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warmed = append(m.warmed, ref)
	return &model.ResolvedMediaLink{SignedURL: "signed:" + ref, ExpiresAt: time.Now().Add(model.SignedURLLifetime)}
}

func (m *MockLinkMaintainer) InvalidateLink(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRefs[ref] {
		return context.DeadlineExceeded
	}
	m.invalidated = append(m.invalidated, ref)
	return nil
}

func (m *MockLinkMaintainer) RemoveObject(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, ref)
	return nil
}

func (m *MockLinkMaintainer) Warmed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warmed...)
}

func (m *MockLinkMaintainer) Invalidated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.invalidated...)
}

func (m *MockLinkMaintainer) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

// MockConsumer serves a scripted batch of messages once, then blocks until
// the context is cancelled.
type MockConsumer struct {
	mu       sync.Mutex
	pending  []queue.Message
	fresh    []queue.Message
	acked    []string
	ackedCh  chan string
	grouped  bool
	served   bool
	servedPd bool
}

func NewMockConsumer(pending, fresh []queue.Message) *MockConsumer {
	return &MockConsumer{
		pending: pending,
		fresh:   fresh,
		ackedCh: make(chan string, 32),
	}
}

func (m *MockConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grouped = true
	return nil
}

func (m *MockConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]queue.Message, error) {
	m.mu.Lock()
	if !m.served {
		m.served = true
		msgs := m.fresh
		m.mu.Unlock()
		return msgs, nil
	}
	m.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-time.After(block):
	}
	return nil, nil
}

func (m *MockConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]queue.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.servedPd {
		return nil, nil
	}
	m.servedPd = true
	return m.pending, nil
}

func (m *MockConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	m.mu.Lock()
	m.acked = append(m.acked, messageIDs...)
	m.mu.Unlock()
	for _, id := range messageIDs {
		m.ackedCh <- id
	}
	return nil
}

func waitForAcks(t *testing.T, c *MockConsumer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.ackedCh:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for ack %d of %d", i+1, n)
		}
	}
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandler_PostCreated_WarmsLinks(t *testing.T) {
	links := NewMockLinkMaintainer()
	h := worker.NewHandler(links)

	event := queue.NewPostCreatedEvent(uuid.New(), uuid.New(), []string{"ref:a.jpg", "ref:b.jpg"})
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	warmed := links.Warmed()
	if len(warmed) != 2 || warmed[0] != "ref:a.jpg" || warmed[1] != "ref:b.jpg" {
		t.Errorf("warmed = %v, want both refs in order", warmed)
	}
	if len(links.Invalidated()) != 0 {
		t.Errorf("invalidated = %v, want none on create", links.Invalidated())
	}
}

func TestHandler_PostUpdated_InvalidatesThenWarms(t *testing.T) {
	links := NewMockLinkMaintainer()
	h := worker.NewHandler(links)

	event := queue.NewPostUpdatedEvent(uuid.New(), uuid.New(), []string{"ref:new.jpg"}, []string{"ref:old.jpg"})
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := links.Invalidated(); len(got) != 1 || got[0] != "ref:old.jpg" {
		t.Errorf("invalidated = %v, want [ref:old.jpg]", got)
	}
	if got := links.Removed(); len(got) != 1 || got[0] != "ref:old.jpg" {
		t.Errorf("removed = %v, want the replaced object reclaimed", got)
	}
	if got := links.Warmed(); len(got) != 1 || got[0] != "ref:new.jpg" {
		t.Errorf("warmed = %v, want [ref:new.jpg]", got)
	}
}

func TestHandler_PostDeleted_InvalidatesLinks(t *testing.T) {
	links := NewMockLinkMaintainer()
	h := worker.NewHandler(links)

	event := queue.NewPostDeletedEvent(uuid.New(), uuid.New(), []string{"ref:gone.jpg"})
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := links.Invalidated(); len(got) != 1 || got[0] != "ref:gone.jpg" {
		t.Errorf("invalidated = %v, want [ref:gone.jpg]", got)
	}
	if got := links.Removed(); len(got) != 1 || got[0] != "ref:gone.jpg" {
		t.Errorf("removed = %v, want the deleted post's object reclaimed", got)
	}
}

func TestHandler_InvalidateFailureSurfaces(t *testing.T) {
	links := NewMockLinkMaintainer()
	links.failRefs["ref:bad.jpg"] = true
	h := worker.NewHandler(links)

	event := queue.NewPostDeletedEvent(uuid.New(), uuid.New(), []string{"ref:bad.jpg", "ref:ok.jpg"})
	if err := h.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected error when invalidation fails")
	}

	// The failure of one ref does not stop the others, and a ref whose
	// link drop failed keeps its object: it may still be served.
	if got := links.Invalidated(); len(got) != 1 || got[0] != "ref:ok.jpg" {
		t.Errorf("invalidated = %v, want [ref:ok.jpg]", got)
	}
	if got := links.Removed(); len(got) != 1 || got[0] != "ref:ok.jpg" {
		t.Errorf("removed = %v, want [ref:ok.jpg]", got)
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h := worker.NewHandler(NewMockLinkMaintainer())

	err := h.HandleEvent(context.Background(), queue.FeedEvent{Type: "post_liked"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

// =============================================================================
// Manager Tests
// =============================================================================

func TestManager_ProcessesPendingThenFresh(t *testing.T) {
	postID := uuid.New()
	actorID := uuid.New()
	pending := []queue.Message{
		{ID: "1-0", Event: queue.NewPostCreatedEvent(postID, actorID, []string{"ref:pending.jpg"})},
	}
	fresh := []queue.Message{
		{ID: "2-0", Event: queue.NewPostDeletedEvent(postID, actorID, []string{"ref:fresh.jpg"})},
	}

	consumer := NewMockConsumer(pending, fresh)
	links := NewMockLinkMaintainer()
	mgr := worker.NewManager(consumer, worker.NewHandler(links), worker.ManagerConfig{
		WorkerCount:  1,
		BatchSize:    10,
		BlockTimeout: 50 * time.Millisecond,
	})

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForAcks(t, consumer, 2)
	mgr.Stop()

	if !consumer.grouped {
		t.Error("consumer group never ensured")
	}
	if got := links.Warmed(); len(got) != 1 || got[0] != "ref:pending.jpg" {
		t.Errorf("warmed = %v, want the pending message's ref", got)
	}
	if got := links.Invalidated(); len(got) != 1 || got[0] != "ref:fresh.jpg" {
		t.Errorf("invalidated = %v, want the fresh message's ref", got)
	}
}

func TestManager_AcksFailedMessages(t *testing.T) {
	// A message the handler rejects is still acknowledged so it cannot
	// wedge the pending list forever.
	fresh := []queue.Message{
		{ID: "1-0", Event: queue.FeedEvent{Type: "bogus"}},
	}

	consumer := NewMockConsumer(nil, fresh)
	mgr := worker.NewManager(consumer, worker.NewHandler(NewMockLinkMaintainer()), worker.ManagerConfig{
		WorkerCount:  1,
		BlockTimeout: 50 * time.Millisecond,
	})

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForAcks(t, consumer, 1)
	mgr.Stop()

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	if len(consumer.acked) != 1 || consumer.acked[0] != "1-0" {
		t.Errorf("acked = %v, want [1-0]", consumer.acked)
	}
}
