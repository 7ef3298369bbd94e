package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sharedcode/regionmerge/region"
)

// keyPrefix mirrors the teacher's redis/locker.go FormatLockKey convention
// of prefixing keys to keep them unique within a shared Redis keyspace.
const keyPrefix = "ritzk:" // "region-in-transition" znode

// ephemeralTTL bounds how long a claim survives without a keep-alive
// refresh, the Redis analogue of a ZooKeeper session timeout.
const ephemeralTTL = 30 * time.Second

// znodeRecord is the JSON envelope stored at a coordination key: the
// transition record plus the CAS version.
type znodeRecord struct {
	Event      EventType
	RegionName []byte
	Origin     string
	Payload    []byte
	Version    int64
}

// casScript atomically compares the stored version against the caller's
// expectation and, on match, writes the new record and bumps the version.
// Grounded in the teacher's claim-then-verify pattern in redis/locker.go,
// generalized from a boolean lock to a versioned CAS since the coordination
// znode needs monotonic versions, not just presence/absence.
var casScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur == false then
  return -2
end
local rec = cjson.decode(cur)
if rec.Version ~= tonumber(ARGV[1]) then
  return -1
end
rec.Event = tonumber(ARGV[2])
rec.Payload = ARGV[3]
rec.Version = rec.Version + 1
redis.call("SET", KEYS[1], cjson.encode(rec), "PX", ARGV[4])
return rec.Version
`)

// redisClient implements Client atop a single *redis.Client connection.
type redisClient struct {
	rdb *redis.Client
}

// NewRedisClient returns a coordination Client backed by Redis, grounded in
// the teacher's redis.NewClient wiring (cache/redis.go, redis/redis.go).
func NewRedisClient(rdb *redis.Client) Client {
	return &redisClient{rdb: rdb}
}

func key(merged region.Descriptor) string {
	return keyPrefix + merged.EncodedName()
}

func (c *redisClient) CreateEphemeralMerging(ctx context.Context, merged region.Descriptor, origin string) (int64, error) {
	k := key(merged)
	rec := znodeRecord{Event: RegionMerging, RegionName: merged.Name(), Origin: origin, Version: 1}
	ba, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	ok, err := c.rdb.SetNX(ctx, k, ba, ephemeralTTL).Result()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNodeExists
	}
	go c.keepAlive(k)
	return rec.Version, nil
}

// keepAlive refreshes the ephemeral TTL until the key disappears, the
// Redis analogue of a ZooKeeper client's session heartbeat keeping an
// ephemeral node alive.
func (c *redisClient) keepAlive(k string) {
	ticker := time.NewTicker(ephemeralTTL / 3)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ok, err := c.rdb.Expire(ctx, k, ephemeralTTL).Result()
		cancel()
		if err != nil {
			log.Warn(fmt.Sprintf("coordination keep-alive failed for %s: %v", k, err))
			return
		}
		if !ok {
			// Key is gone; nothing left to keep alive.
			return
		}
	}
}

func (c *redisClient) transition(ctx context.Context, merged region.Descriptor, event EventType, expectedVersion int64, payload []byte) (int64, error) {
	k := key(merged)
	res, err := casScript.Run(ctx, c.rdb, []string{k}, expectedVersion, int64(event), payload, int64(ephemeralTTL/time.Millisecond)).Int64()
	if err != nil {
		return 0, err
	}
	if res == -2 {
		// Node is gone.
		return LostOwnership, nil
	}
	if res == -1 {
		// Version mismatch: lost ownership.
		return LostOwnership, nil
	}
	return res, nil
}

func (c *redisClient) TransitionMerging(ctx context.Context, merged region.Descriptor, origin string, expectedVersion int64) (int64, error) {
	return c.transition(ctx, merged, RegionMerging, expectedVersion, nil)
}

func (c *redisClient) TransitionMergeFinal(ctx context.Context, merged, a, b region.Descriptor, origin string, expectedVersion int64, payload []byte) (int64, error) {
	return c.transition(ctx, merged, RegionMerge, expectedVersion, payload)
}

func (c *redisClient) TickleMerge(ctx context.Context, merged, a, b region.Descriptor, origin string, expectedVersion int64) (int64, error) {
	payload := append(append([]byte{}, a.Name()...), b.Name()...)
	return c.transition(ctx, merged, RegionMerge, expectedVersion, payload)
}

func (c *redisClient) DeleteIfInState(ctx context.Context, merged region.Descriptor, state EventType) error {
	k := key(merged)
	s, err := c.rdb.Get(ctx, k).Result()
	if err == redis.Nil {
		// Tolerate "already gone".
		return nil
	}
	if err != nil {
		return err
	}
	var rec znodeRecord
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return err
	}
	if rec.Event != state {
		// Someone else transitioned it out of the expected state; leave it alone.
		return nil
	}
	if err := c.rdb.Del(ctx, k).Err(); err != nil {
		return err
	}
	return nil
}
