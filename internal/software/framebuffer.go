package software

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"render-core/core"
)

// Attachment is one texture layer bound to a framebuffer.
type Attachment struct {
	Texture core.TextureID
	Kind    core.TextureKind
	Level   uint32
	Layer   uint32
}

type framebuffer struct {
	colors      map[uint32]Attachment
	depth       *Attachment
	drawBuffers int
}

func (d *Device) CreateFramebuffer() (core.FramebufferID, error) {
	id, err := d.allocate()
	if err != nil {
		return 0, err
	}
	d.framebuffers[core.FramebufferID(id)] = &framebuffer{colors: map[uint32]Attachment{}}
	return core.FramebufferID(id), nil
}

func (d *Device) BindFramebuffer(id core.FramebufferID) {
	d.bound = id
}

// BoundFramebuffer returns the framebuffer draws currently go to; 0 is the screen.
func (d *Device) BoundFramebuffer() core.FramebufferID { return d.bound }

func (d *Device) FramebufferTexture(point core.AttachmentPoint, slot uint32, kind core.TextureKind, tex core.TextureID, level, layer uint32) {
	fb, ok := d.framebuffers[d.bound]
	if !ok {
		return
	}
	a := Attachment{Texture: tex, Kind: kind, Level: level, Layer: layer}
	if point == core.AttachDepth {
		fb.depth = &a
		return
	}
	fb.colors[slot] = a
}

func (d *Device) DrawBuffers(count int) {
	if fb, ok := d.framebuffers[d.bound]; ok {
		fb.drawBuffers = count
	}
}

func (d *Device) CheckFramebuffer() error {
	if d.bound == 0 {
		return nil
	}
	fb, ok := d.framebuffers[d.bound]
	if !ok {
		return fmt.Errorf("software device: unknown framebuffer %d", d.bound)
	}
	if len(fb.colors) == 0 && fb.depth == nil {
		return errors.New("incomplete: missing attachment")
	}
	if fb.drawBuffers > len(fb.colors) {
		return fmt.Errorf("incomplete: %d draw buffers for %d attachments", fb.drawBuffers, len(fb.colors))
	}
	var size image.Point
	check := func(a Attachment, wantDepth bool) error {
		t, ok := d.textures[a.Texture]
		if !ok {
			return fmt.Errorf("incomplete: texture %d deleted", a.Texture)
		}
		if t.desc.Format.IsDepth() != wantDepth {
			return fmt.Errorf("incomplete: texture %d has format %s", a.Texture, t.desc.Format)
		}
		if a.Level >= t.desc.Levels || a.Layer >= t.desc.Depth {
			return fmt.Errorf("incomplete: level %d layer %d out of range", a.Level, a.Layer)
		}
		s := image.Pt(levelSize(t.desc.Width, a.Level), levelSize(t.desc.Height, a.Level))
		if size == (image.Point{}) {
			size = s
		} else if s != size {
			return fmt.Errorf("incomplete: attachment size %v differs from %v", s, size)
		}
		return nil
	}
	for _, a := range fb.colors {
		if err := check(a, false); err != nil {
			return err
		}
	}
	if fb.depth != nil {
		return check(*fb.depth, true)
	}
	return nil
}

func (d *Device) DeleteFramebuffer(id core.FramebufferID) {
	delete(d.framebuffers, id)
	if d.bound == id {
		d.bound = 0
	}
}

// Attachments returns the colour attachments of a framebuffer by slot and
// its depth attachment.
func (d *Device) Attachments(id core.FramebufferID) (map[uint32]Attachment, *Attachment) {
	fb, ok := d.framebuffers[id]
	if !ok {
		return nil, nil
	}
	colors := make(map[uint32]Attachment, len(fb.colors))
	for k, v := range fb.colors {
		colors[k] = v
	}
	return colors, fb.depth
}

func (d *Device) Clear(c core.ClearState) {
	fill := image.NewUniform(toRGBA64([4]float64{
		float64(c.Color.R), float64(c.Color.G), float64(c.Color.B), float64(c.Color.A),
	}))
	if d.bound == 0 {
		if c.Mask&core.ClearMaskColor != 0 {
			draw.Draw(d.screen, d.screen.Bounds(), fill, image.Point{}, draw.Src)
		}
		if c.Mask&core.ClearMaskDepth != 0 {
			fillDepth(d.screenDepth, c.Depth)
		}
		return
	}
	fb, ok := d.framebuffers[d.bound]
	if !ok {
		return
	}
	if c.Mask&core.ClearMaskColor != 0 {
		for slot, a := range fb.colors {
			if int(slot) >= fb.drawBuffers {
				continue
			}
			if img := d.ColorLayer(a.Texture, a.Level, a.Layer); img != nil {
				draw.Draw(img, img.Bounds(), fill, image.Point{}, draw.Src)
			}
		}
	}
	if c.Mask&core.ClearMaskDepth != 0 && fb.depth != nil {
		fillDepth(d.DepthLayer(fb.depth.Texture, fb.depth.Layer), c.Depth)
	}
}

func fillDepth(buf []float32, v float32) {
	for i := range buf {
		buf[i] = v
	}
}

// Screen returns the colour contents of the default framebuffer.
func (d *Device) Screen() *image.RGBA64 { return d.screen }

// ScreenDepth returns the depth contents of the default framebuffer.
func (d *Device) ScreenDepth() []float32 { return d.screenDepth }
