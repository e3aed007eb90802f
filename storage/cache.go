package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultTTL matches the 60s the dashboard views were cached for before.
const DefaultTTL = 60 * time.Second

// Cache is the derived-view cache: precomputed read results keyed per
// entity, invalidated synchronously by every write that touches the data
// behind them. It is an optimization only — on a miss the caller recomputes
// from the database, so redis being down degrades reads, never corrupts
// them.
type Cache struct {
	client *redis.Client
	prefix string
}

func NewCache(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = "influencia:"
	}
	return &Cache{client: client, prefix: prefix}
}

// Get returns the cached payload and whether it was present. Errors other
// than a plain miss are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache get %s: %v", key, err)
		return nil, false
	}
	return val, true
}

func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		log.Printf("cache put %s: %v", key, err)
	}
}

// Invalidate removes the given keys. Writes call this before returning
// success, so a reader that races the write repopulates from fresh rows.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		log.Printf("cache invalidate %v: %v", keys, err)
	}
}

// InvalidateAll drops every key under the prefix. Used on sign-out.
func (c *Cache) InvalidateAll(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache flush %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache flush scan: %v", err)
	}
}

// Key helpers. Every cached view embeds the id of the entity it depends on,
// so invalidating one sponsor's dashboard can never touch another's.

func SponsorDashboardKey(sponsorID uint) string {
	return fmt.Sprintf("sponsor:%d:dashboard", sponsorID)
}

func CampaignAdRequestsKey(campaignID uint) string {
	return fmt.Sprintf("campaign:%d:adrequests", campaignID)
}

func CampaignDetailKey(campaignID uint) string {
	return fmt.Sprintf("campaign:%d:detail", campaignID)
}

func AdRequestKey(adRequestID uint) string {
	return fmt.Sprintf("adrequest:%d", adRequestID)
}

func InfluencerDetailKey(influencerID uint) string {
	return fmt.Sprintf("influencer:%d:detail", influencerID)
}

func AdminDashboardKey() string {
	return "admin:dashboard"
}

func PendingSponsorsKey() string {
	return "admin:pending_sponsors"
}

func PublicCampaignsKey() string {
	return "public:campaigns"
}

func PublicAllCampaignsKey() string {
	return "public:campaigns_all"
}

func PublicInfluencersKey() string {
	return "public:influencers"
}

func PublicUsersKey() string {
	return "public:users"
}

func PublicAdRequestsKey() string {
	return "public:adrequests"
}
