package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"orkutbook/internal/model"
	"orkutbook/internal/queue"
)

// LinkMaintainer is the slice of the media service workers need: resolve a
// reference to warm its cached signed link, invalidate one that went stale,
// and remove the stored object a stale reference pointed at.
type LinkMaintainer interface {
	ResolveLink(ctx context.Context, storedReference string) *model.ResolvedMediaLink
	InvalidateLink(ctx context.Context, storedReference string) error
	RemoveObject(ctx context.Context, storedReference string) error
}

// Handler processes feed events from the queue. Mutations publish which
// media references became live or stale; the handler keeps the link cache
// in step so the next feed read does not pay for signing, and reclaims
// storage for media no record references anymore.
type Handler struct {
	links LinkMaintainer
}

// NewHandler creates a new event handler.
func NewHandler(links LinkMaintainer) *Handler {
	return &Handler{links: links}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostUpdated:
		err = h.handlePostUpdated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handlePostCreated warms signed links for a new post's media so the first
// feed read after creation hits the cache.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] PostCreated: post=%s actor=%s refs=%d", event.PostID, event.ActorID, len(event.WarmRefs))
	h.warm(ctx, event.WarmRefs)
	return nil
}

// handlePostUpdated retires links for replaced media, reclaims the replaced
// objects, then warms the replacements. Invalidation runs first so a failure
// partway through never leaves a stale link serving for a reference that
// already changed.
func (h *Handler) handlePostUpdated(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] PostUpdated: post=%s stale=%d warm=%d", event.PostID, len(event.StaleRefs), len(event.WarmRefs))

	if err := h.retire(ctx, event.StaleRefs); err != nil {
		return err
	}
	h.warm(ctx, event.WarmRefs)
	return nil
}

// handlePostDeleted drops cached links for the deleted post's media and
// reclaims the objects themselves; nothing references them anymore.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] PostDeleted: post=%s stale=%d", event.PostID, len(event.StaleRefs))
	return h.retire(ctx, event.StaleRefs)
}

// warm resolves each reference for its cache side effect. Resolution
// degrades instead of failing, so warming is always best-effort.
func (h *Handler) warm(ctx context.Context, refs []string) {
	for _, ref := range refs {
		h.links.ResolveLink(ctx, ref)
	}
}

// retire invalidates each stale reference's cached link and removes its
// stored object. The link drop comes first: a reference must stop serving
// before its object disappears underneath it.
func (h *Handler) retire(ctx context.Context, refs []string) error {
	var failCount int
	for _, ref := range refs {
		if err := h.links.InvalidateLink(ctx, ref); err != nil {
			log.Printf("[Worker] Invalidate failed: ref=%s err=%v", ref, err)
			failCount++
			continue
		}
		if err := h.links.RemoveObject(ctx, ref); err != nil {
			log.Printf("[Worker] Remove object failed: ref=%s err=%v", ref, err)
			failCount++
		}
	}
	if failCount > 0 {
		return fmt.Errorf("retire: %d of %d refs failed", failCount, len(refs))
	}
	return nil
}
