package core

import (
	"github.com/sirupsen/logrus"
)

// attachment is one layer of a texture bound as a render output.
type attachment struct {
	tex   *texture
	layer uint32
}

// target describes the outputs of a write scope. colors[i] is written by
// fragment output slot i.
type target struct {
	colors []attachment
	depth  *attachment
	screen bool
}

func (t target) validate(c *Context) (width, height uint32, err error) {
	if t.screen {
		return c.screenWidth, c.screenHeight, nil
	}
	if len(t.colors) == 0 && t.depth == nil {
		return 0, 0, unsupported("render target without attachments")
	}
	if limit := c.caps.MaxColorAttachments; limit > 0 && uint32(len(t.colors)) > limit {
		return 0, 0, unsupported("%d colour attachments exceed %d", len(t.colors), limit)
	}
	all := t.colors
	if t.depth != nil {
		all = append(all[:len(all):len(all)], *t.depth)
	}
	seen := make(map[attachment]bool, len(all))
	for i, a := range all {
		if a.tex.id == 0 {
			return 0, 0, &DeviceResourceError{Op: "attach texture", Err: errReleased}
		}
		if err := a.tex.checkLayer(a.layer); err != nil {
			return 0, 0, err
		}
		if seen[a] {
			return 0, 0, unsupported("layer %d of texture %d attached twice", a.layer, a.tex.id)
		}
		seen[a] = true
		if i == 0 {
			width, height = a.tex.width, a.tex.height
		} else if a.tex.width != width || a.tex.height != height {
			return 0, 0, unsupported("attachment %dx%d does not match %dx%d", a.tex.width, a.tex.height, width, height)
		}
	}
	return width, height, nil
}

// writeScope is an active render target binding. Scopes nest; the innermost
// one receives draws.
type writeScope struct {
	serial        uint64
	fb            FramebufferID
	target        target
	width, height uint32
}

func (s *writeScope) hasDepth() bool {
	return s.target.screen || s.target.depth != nil
}

func (s *writeScope) hasColor() bool {
	return s.target.screen || len(s.target.colors) > 0
}

// attached reports whether tex is one of the scope's outputs.
func (s *writeScope) attached(tex *texture) bool {
	for _, a := range s.target.colors {
		if a.tex == tex {
			return true
		}
	}
	return s.target.depth != nil && s.target.depth.tex == tex
}

// write binds t for the duration of render. On every exit path, including
// an error or a panic from render, the previous framebuffer is rebound and
// the scope's framebuffer is deleted.
func (c *Context) write(t target, clear ClearState, render func() error) error {
	width, height, err := t.validate(c)
	if err != nil {
		return err
	}

	c.scopeSerial++
	scope := &writeScope{serial: c.scopeSerial, target: t, width: width, height: height}
	if !t.screen {
		fb, err := c.dev.CreateFramebuffer()
		if err != nil {
			return &DeviceResourceError{Op: "create framebuffer", Err: err}
		}
		scope.fb = fb
	}

	prev := c.framebuffer
	completed := false
	c.scopes = append(c.scopes, scope)
	c.bindFramebuffer(scope.fb)
	defer func() {
		c.scopes = c.scopes[:len(c.scopes)-1]
		c.bindFramebuffer(prev)
		if scope.fb != 0 {
			c.dev.DeleteFramebuffer(scope.fb)
		}
		if completed && c.cfg.AutoMipMaps {
			for _, a := range t.colors {
				a.tex.generateMipMaps()
			}
		}
	}()

	if !t.screen {
		for slot, a := range t.colors {
			c.dev.FramebufferTexture(AttachColor, uint32(slot), a.tex.kind, a.tex.id, 0, a.layer)
		}
		if t.depth != nil {
			c.dev.FramebufferTexture(AttachDepth, 0, t.depth.tex.kind, t.depth.tex.id, 0, t.depth.layer)
		}
		c.dev.DrawBuffers(len(t.colors))
		if err := c.dev.CheckFramebuffer(); err != nil {
			c.log.WithFields(logrus.Fields{
				"framebuffer": scope.fb,
				"colors":      len(t.colors),
				"depth":       t.depth != nil,
			}).WithError(err).Warn("framebuffer incomplete")
			return &DeviceResourceError{Op: "framebuffer incomplete", Err: err}
		}
	}

	if width > 0 && height > 0 {
		c.dev.SetViewport(NewViewport(width, height))
	}
	if cl := clear.restrict(scope.hasColor(), scope.hasDepth()); cl.Mask != 0 {
		c.dev.Clear(cl)
	}

	if render != nil {
		if err := render(); err != nil {
			return err
		}
	}
	completed = true
	return nil
}
