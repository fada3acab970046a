package asset

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"render-core/core"
)

// TextureCache keeps recently decoded image files so repeated loads of the
// same path skip the decoder. Cached textures are shared; callers must not
// modify their Data.
type TextureCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *core.CPUTexture]
	load  func(path string) (*core.CPUTexture, error)
}

// NewTextureCache returns a cache holding at most size decoded textures.
func NewTextureCache(size int) (*TextureCache, error) {
	cache, err := lru.New[string, *core.CPUTexture](size)
	if err != nil {
		return nil, fmt.Errorf("texture cache: %w", err)
	}
	return &TextureCache{cache: cache, load: LoadTexture}, nil
}

// Load returns the texture at path, decoding it on a miss. Failed loads are
// not cached.
func (c *TextureCache) Load(path string) (*core.CPUTexture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.cache.Get(path); ok {
		return t, nil
	}
	t, err := c.load(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(path, t)
	return t, nil
}

func (c *TextureCache) Len() int { return c.cache.Len() }

// Purge drops every cached texture.
func (c *TextureCache) Purge() { c.cache.Purge() }
