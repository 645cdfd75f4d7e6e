package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hammerline/paddle/internal/domain/bidding"
)

// RedisBroadcaster implements bidding.Broadcaster over Redis pub/sub.
// Gateway processes subscribed to a lot's channel push the update out to
// connected clients. Delivery is best-effort.
type RedisBroadcaster struct {
	client *redis.Client
}

// NewRedisBroadcaster creates a new Redis broadcaster
func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

// ChannelForLot returns the pub/sub channel carrying a lot's bid updates.
func ChannelForLot(lotID uuid.UUID) string {
	return "lot." + lotID.String() + ".bids"
}

// BroadcastBid publishes the update to the lot's channel
func (b *RedisBroadcaster) BroadcastBid(ctx context.Context, update bidding.LiveBidUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal bid update: %w", err)
	}

	if err := b.client.Publish(ctx, ChannelForLot(update.LotID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish bid update: %w", err)
	}
	return nil
}
