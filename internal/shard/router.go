// Package shard maps user identities to entity keys and shard ids. The
// placement layer uses these to find or create the per-user view instance;
// both functions are pure so the same identity always lands on the same
// shard within a deployment.
package shard

import (
	"hash/fnv"
	"strconv"
)

// DefaultShardCount matches the deployment default of 10 routing buckets.
const DefaultShardCount = 10

// Router computes routing keys for a fixed shard count.
type Router struct {
	shards uint32
}

// NewRouter returns a router over n shards. n must be at least 1; anything
// lower falls back to a single shard.
func NewRouter(n int) Router {
	if n < 1 {
		n = 1
	}
	return Router{shards: uint32(n)}
}

// EntityKey returns the stable per-user entity key: the string form of the
// user identity.
func (r Router) EntityKey(userID string) string {
	return userID
}

// ShardID returns the routing bucket for the identity: FNV-1a(userID) mod N,
// rendered as a decimal string for the placement layer.
func (r Router) ShardID(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return strconv.FormatUint(uint64(h.Sum32()%r.shards), 10)
}

// Route returns both keys for a request tagged with the given identity.
func (r Router) Route(userID string) (entityKey, shardID string) {
	return r.EntityKey(userID), r.ShardID(userID)
}
