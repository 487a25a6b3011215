package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types for the feed stream
const (
	EventPostCreated = "post_created"
	EventPostUpdated = "post_updated"
	EventPostDeleted = "post_deleted"
)

// Stream and consumer group names
const (
	StreamFeed = "stream:feed"

	ConsumerGroupFeed = "feed_maintenance"
)

// FeedEvent is published after a successful post mutation. Workers use the
// media references it carries to keep the signed-link cache honest: warm
// links for new media, drop links for media that was replaced or deleted.
// Publication is best-effort; clients re-derive state by re-querying either
// way.
type FeedEvent struct {
	Type      string    `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix seconds when the mutation committed
	PostID    uuid.UUID `json:"post_id"`
	ActorID   uuid.UUID `json:"actor_id"`

	// WarmRefs are stored references whose signed links should be
	// pre-resolved; StaleRefs are references whose cached links must drop.
	WarmRefs  []string `json:"warm_refs,omitempty"`
	StaleRefs []string `json:"stale_refs,omitempty"`
}

// NewPostCreatedEvent signals a new post whose media links can be warmed.
func NewPostCreatedEvent(postID, actorID uuid.UUID, warmRefs []string) FeedEvent {
	return FeedEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
		WarmRefs:  warmRefs,
	}
}

// NewPostUpdatedEvent signals an edit. staleRefs carries any replaced media
// reference, warmRefs the reference that took its place.
func NewPostUpdatedEvent(postID, actorID uuid.UUID, warmRefs, staleRefs []string) FeedEvent {
	return FeedEvent{
		Type:      EventPostUpdated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
		WarmRefs:  warmRefs,
		StaleRefs: staleRefs,
	}
}

// NewPostDeletedEvent signals a deletion; the post's media links go stale.
func NewPostDeletedEvent(postID, actorID uuid.UUID, staleRefs []string) FeedEvent {
	return FeedEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
		StaleRefs: staleRefs,
	}
}

// ToMap converts the event for Redis XADD. Streams store field-value pairs,
// so the whole event rides in a JSON "data" field alongside its type.
func (e FeedEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseFeedEvent parses a FeedEvent from Redis stream message values.
func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return FeedEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event FeedEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return FeedEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
