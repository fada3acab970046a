// Package opengl implements core.Device on OpenGL 4.1 core through go-gl.
// Every call must be made on the goroutine that owns the GL context.
package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"render-core/core"
)

type uniformKey struct {
	program core.ProgramID
	name    string
}

// Device drives the current OpenGL context.
type Device struct {
	caps core.Caps
	log  logrus.FieldLogger

	// vao is the single vertex array object all attribute state lives in.
	vao uint32

	programs    map[core.ProgramID]*program
	uniformLocs *lru.Cache[uniformKey, int32]
	enabled     []uint32

	states core.RenderStates
}

// NewDevice loads GL function pointers and queries the context limits.
// A GL context must be current. uniformCacheSize bounds the number of
// cached uniform locations.
func NewDevice(log logrus.FieldLogger, uniformCacheSize int) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	cache, err := lru.New[uniformKey, int32](uniformCacheSize)
	if err != nil {
		return nil, fmt.Errorf("uniform cache: %w", err)
	}

	d := &Device{
		log:         log,
		programs:    map[core.ProgramID]*program{},
		uniformLocs: cache,
	}
	d.caps = core.Caps{
		MaxTextureSize:       getUint(gl.MAX_TEXTURE_SIZE),
		MaxArrayLayers:       getUint(gl.MAX_ARRAY_TEXTURE_LAYERS),
		MaxColorAttachments:  getUint(gl.MAX_COLOR_ATTACHMENTS),
		MaxTextureUnits:      getUint(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS),
		FloatLinearFiltering: true,
	}

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)

	log.WithFields(logrus.Fields{
		"version":  gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer": gl.GoStr(gl.GetString(gl.RENDERER)),
	}).Info("OpenGL device ready")
	return d, nil
}

func getUint(name uint32) uint32 {
	var v int32
	gl.GetIntegerv(name, &v)
	return uint32(v)
}

// glError returns the pending GL error, if any.
func glError(op string) error {
	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%s: out of memory", op)
	default:
		return fmt.Errorf("%s: GL error 0x%X", op, code)
	}
}

func (d *Device) Caps() core.Caps { return d.caps }

func (d *Device) Release() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	d.uniformLocs.Purge()
}

var _ core.Device = (*Device)(nil)
