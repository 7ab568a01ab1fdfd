// Package cache shares loaded snapshots across queries and shell commands
// so each location is read and indexed once per process.
package cache

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type cache struct {
	sync.Mutex
	objects map[string]interface{}
}

type loadFunc func(key string) (interface{}, error)

// GlobalObjectCache is the process-wide object cache.
var GlobalObjectCache *cache

var createOnce sync.Once

func (c *cache) get(key string, load loadFunc) (interface{}, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("cache-hit")
		return obj, nil
	}
	log.Debug().Str("key", key).Msg("cache-miss")
	obj, err := load(key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	return obj, nil
}

func (c *cache) evict(key string) bool {
	c.Lock()
	defer c.Unlock()
	_, ok := c.objects[key]
	delete(c.objects, key)
	return ok
}

func (c *cache) keys() []string {
	c.Lock()
	defer c.Unlock()
	keys := lo.Keys(c.objects)
	slices.Sort(keys)
	return keys
}

func CreateGlobalObjectCache() {
	createOnce.Do(func() {
		GlobalObjectCache = &cache{objects: make(map[string]interface{})}
	})
}

// Load returns the object cached under name, calling load to create it on
// a miss. Failed loads are not cached.
func Load(name string, load loadFunc) (interface{}, error) {
	CreateGlobalObjectCache()
	return GlobalObjectCache.get(name, load)
}

// Evict drops name from the cache so the next Load reloads it.
func Evict(name string) bool {
	CreateGlobalObjectCache()
	return GlobalObjectCache.evict(name)
}

// Keys lists the cached names in sorted order.
func Keys() []string {
	CreateGlobalObjectCache()
	return GlobalObjectCache.keys()
}
