package core

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// ContextConfig controls optional Context behaviour.
type ContextConfig struct {
	// AliasingCheck rejects sampling a texture that is attached to the
	// innermost write scope.
	AliasingCheck bool
	// AutoMipMaps regenerates mip levels of attached colour textures when a
	// write scope exits successfully.
	AutoMipMaps bool
	Logger      logrus.FieldLogger
}

func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		AliasingCheck: true,
	}
}

// Context is the shared handle to a Device. Every resource created against
// it holds a reference; the device is released after the owner and every
// resource have released theirs.
type Context struct {
	dev  Device
	caps Caps
	cfg  ContextConfig
	log  logrus.FieldLogger

	refs          int
	ownerReleased bool

	framebuffer  FramebufferID
	scopes       []*writeScope
	scopeSerial  uint64
	screenWidth  uint32
	screenHeight uint32
}

// NewContext wraps dev. The caller owns the returned context and must call
// Release when done with it.
func NewContext(dev Device, cfg ContextConfig) (*Context, error) {
	if dev == nil {
		return nil, &DeviceResourceError{Op: "context", Err: errors.New("nil device")}
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	c := &Context{
		dev:  dev,
		caps: dev.Caps(),
		cfg:  cfg,
		log:  log,
		refs: 1,
	}
	c.log.WithFields(logrus.Fields{
		"max_texture_size": c.caps.MaxTextureSize,
		"max_layers":       c.caps.MaxArrayLayers,
		"max_attachments":  c.caps.MaxColorAttachments,
	}).Debug("context created")
	return c, nil
}

func (c *Context) Device() Device { return c.dev }
func (c *Context) Caps() Caps     { return c.caps }
func (c *Context) Config() ContextConfig {
	return c.cfg
}

// Logger returns the logger resources created against c log to.
func (c *Context) Logger() logrus.FieldLogger { return c.log }

// SetScreenSize records the size of the default framebuffer.
func (c *Context) SetScreenSize(width, height uint32) {
	c.screenWidth, c.screenHeight = width, height
}

// Screen returns the default framebuffer as a render target.
func (c *Context) Screen() *Screen {
	return &Screen{ctx: c}
}

// Release drops the owner's reference. It is safe to call more than once.
func (c *Context) Release() {
	if c.ownerReleased {
		return
	}
	c.ownerReleased = true
	if c.refs > 1 {
		c.log.WithField("resources", c.refs-1).Warn("context released with live resources; device release deferred")
	}
	c.release()
}

// Released reports whether the device has been released.
func (c *Context) Released() bool { return c.refs == 0 }

func (c *Context) retain() { c.refs++ }

func (c *Context) release() {
	if c.refs == 0 {
		return
	}
	c.refs--
	if c.refs == 0 {
		c.log.Debug("device released")
		c.dev.Release()
	}
}

func (c *Context) bindFramebuffer(id FramebufferID) {
	c.framebuffer = id
	c.dev.BindFramebuffer(id)
}

// currentScope returns the innermost active write scope, or nil.
func (c *Context) currentScope() *writeScope {
	if len(c.scopes) == 0 {
		return nil
	}
	return c.scopes[len(c.scopes)-1]
}

// innermostSerial returns the serial of the innermost write scope, or 0 outside
// any scope.
func (c *Context) innermostSerial() uint64 {
	if s := c.currentScope(); s != nil {
		return s.serial
	}
	return 0
}

// scopeActive reports whether the scope with the given serial is still on
// the stack. Serial 0 stands for no scope and is always active.
func (c *Context) scopeActive(serial uint64) bool {
	if serial == 0 {
		return true
	}
	for _, s := range c.scopes {
		if s.serial == serial {
			return true
		}
	}
	return false
}

// ScopeDepth returns the number of active write scopes.
func (c *Context) ScopeDepth() int { return len(c.scopes) }

// BoundFramebuffer returns the framebuffer the context last bound.
func (c *Context) BoundFramebuffer() FramebufferID { return c.framebuffer }
