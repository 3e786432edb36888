// Package cache models instruction-fetch cache timing using Akita cache
// components. Only tags and replacement state are tracked; the simulator
// never executes instructions, so the cache carries no data payloads. A
// lookup answers hit-or-miss plus the cycle cost.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes (cache line size).
	BlockSize int
	// HitLatency in cycles. Hits are absorbed by the fetch stage.
	HitLatency uint64
	// MissLatency in cycles. A miss freezes fetch for this many cycles.
	MissLatency uint64
}

// DefaultIConfig returns a small instruction cache sized for toy traces:
// big enough that a straight-line trace warms up quickly, small enough that
// scattered branch targets still miss.
func DefaultIConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 2,
		BlockSize:     16,
		HitLatency:    1,
		MissLatency:   8,
	}
}

// AccessResult reports the outcome of a cache lookup.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the cycle cost of this access.
	Latency uint64
}

// Statistics holds cache performance counters.
type Statistics struct {
	Reads     uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns the hit rate as a percentage.
func (s Statistics) HitRate() float64 {
	if s.Reads == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Reads) * 100
}

// Cache is a set-associative tag store backed by an Akita cache directory
// for lookup and LRU victim selection.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Read looks up addr, filling the line on a miss. The returned latency is
// HitLatency on a hit and MissLatency on a miss.
func (c *Cache) Read(addr uint64) AccessResult {
	c.stats.Reads++

	blockAddr := (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	c.fill(blockAddr)
	return AccessResult{Hit: false, Latency: c.config.MissLatency}
}

// fill installs blockAddr into the set, evicting the LRU victim if needed.
func (c *Cache) fill(blockAddr uint64) {
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return
	}

	if victim.IsValid {
		c.stats.Evictions++
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)
}

// Reset invalidates all lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
