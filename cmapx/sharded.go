package cmapx

import "hash/fnv"

// Sharded divides a key space across several Map shards to reduce
// lock contention between concurrent lookups, such as the room
// manager's admission path and its janitor sweep.
type Sharded[K comparable, V any] struct {
	shards []*Map[K, V]
	hashFn func(K) uint32
}

// defaultShardCount matches the teacher's typical shard fan-out for a
// single-process server; it is not meant to scale beyond one process
// since cross-process room sharding is explicitly out of scope.
const defaultShardCount = 16

// NewSharded constructs a sharded map with count shards (defaulting
// to defaultShardCount) and an optional custom hash function.
func NewSharded[K comparable, V any](count int, hashFn func(K) uint32) *Sharded[K, V] {
	if count <= 0 {
		count = defaultShardCount
	}
	s := &Sharded[K, V]{
		shards: make([]*Map[K, V], count),
		hashFn: hashFn,
	}
	for i := range s.shards {
		s.shards[i] = New[K, V]()
	}
	return s
}

// NewStringSharded is a convenience constructor for the common
// string-keyed case (room ids, connection ids), hashing with FNV-1a.
func NewStringSharded[V any](count int) *Sharded[string, V] {
	return NewSharded[string, V](count, func(k string) uint32 {
		h := fnv.New32a()
		h.Write([]byte(k))
		return h.Sum32()
	})
}

func (s *Sharded[K, V]) shard(key K) *Map[K, V] {
	return s.shards[s.hashFn(key)%uint32(len(s.shards))]
}

func (s *Sharded[K, V]) Has(key K) bool        { return s.shard(key).Has(key) }
func (s *Sharded[K, V]) Get(key K) (V, bool)   { return s.shard(key).Get(key) }
func (s *Sharded[K, V]) Set(key K, value V)    { s.shard(key).Set(key, value) }
func (s *Sharded[K, V]) Delete(key K)          { s.shard(key).Delete(key) }

// Iterator calls f for every pair across all shards, stopping early
// if f returns false.
func (s *Sharded[K, V]) Iterator(f func(K, V) bool) {
	for _, shard := range s.shards {
		cont := true
		shard.Iterator(func(k K, v V) bool {
			cont = f(k, v)
			return cont
		})
		if !cont {
			return
		}
	}
}

func (s *Sharded[K, V]) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Len()
	}
	return total
}
