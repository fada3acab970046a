package core

import (
	"fmt"
	"unsafe"

	"github.com/sirupsen/logrus"

	"render-core/math"
)

// A buffer shrinks its storage when a fill needs less than
// 1/shrinkFactor of the current capacity.
const shrinkFactor = 4

type elementInfo struct {
	dataType   DataType
	components int
	size       int
}

func elementInfoOf[T any]() (elementInfo, error) {
	var zero T
	info := elementInfo{size: int(unsafe.Sizeof(zero))}
	switch any(zero).(type) {
	case float32:
		info.dataType, info.components = Float, 1
	case int32:
		info.dataType, info.components = Int, 1
	case uint8:
		info.dataType, info.components = UnsignedByte, 1
	case uint16:
		info.dataType, info.components = UnsignedShort, 1
	case uint32:
		info.dataType, info.components = UnsignedInt, 1
	case [2]float32, math.Vec2:
		info.dataType, info.components = Float, 2
	case [3]float32, math.Vec3:
		info.dataType, info.components = Float, 3
	case [4]float32, math.Vec4, Color:
		info.dataType, info.components = Float, 4
	case [4]uint8:
		info.dataType, info.components = UnsignedByte, 4
	case math.Mat4:
		info.dataType, info.components = Float, 16
	default:
		return elementInfo{}, unsupported("buffer element type %T", zero)
	}
	return info, nil
}

// asBytes reinterprets a slice of plain values as raw bytes without copying.
func asBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), len(data)*int(unsafe.Sizeof(data[0])))
}

// Buffer is a typed device buffer. Count reflects the last successful fill.
type Buffer[T any] struct {
	ctx      *Context
	id       BufferID
	target   BufferTarget
	usage    BufferUsage
	info     elementInfo
	count    int
	capacity int
}

// NewBuffer creates an empty buffer.
func NewBuffer[T any](ctx *Context, target BufferTarget, usage BufferUsage) (*Buffer[T], error) {
	info, err := elementInfoOf[T]()
	if err != nil {
		return nil, err
	}
	id, err := ctx.dev.CreateBuffer()
	if err != nil {
		return nil, &DeviceResourceError{Op: "create buffer", Err: err}
	}
	ctx.retain()
	ctx.log.WithFields(logrus.Fields{"buffer": id, "element": info.dataType, "components": info.components}).Debug("buffer created")
	return &Buffer[T]{ctx: ctx, id: id, target: target, usage: usage, info: info}, nil
}

// NewBufferWithData creates a buffer holding data.
func NewBufferWithData[T any](ctx *Context, target BufferTarget, usage BufferUsage, data []T) (*Buffer[T], error) {
	b, err := NewBuffer[T](ctx, target, usage)
	if err != nil {
		return nil, err
	}
	if err := b.Fill(data); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// Fill replaces the buffer contents. Storage is reallocated when data does
// not fit or is much smaller than the current allocation, and overwritten
// in place otherwise.
func (b *Buffer[T]) Fill(data []T) error {
	if b.id == 0 {
		return &DeviceResourceError{Op: "fill buffer", Err: errReleased}
	}
	raw := asBytes(data)
	switch {
	case len(raw) > b.capacity || len(raw) < b.capacity/shrinkFactor:
		if err := b.ctx.dev.BufferData(b.target, b.id, raw, b.usage); err != nil {
			return &DeviceResourceError{Op: "buffer data", Err: err}
		}
		b.capacity = len(raw)
	case len(raw) > 0:
		b.ctx.dev.BufferSubData(b.target, b.id, 0, raw)
	}
	b.count = len(data)
	return nil
}

// AttributeCount returns the number of elements from the last fill.
func (b *Buffer[T]) AttributeCount() int { return b.count }

// ComponentCount returns the number of scalars per element.
func (b *Buffer[T]) ComponentCount() int { return b.info.components }

// Capacity returns the allocated storage in bytes.
func (b *Buffer[T]) Capacity() int { return b.capacity }

func (b *Buffer[T]) ID() BufferID { return b.id }

// Release deletes the device buffer. Further calls are no-ops.
func (b *Buffer[T]) Release() {
	if b.id == 0 {
		return
	}
	b.ctx.dev.DeleteBuffer(b.id)
	b.ctx.log.WithField("buffer", b.id).Debug("buffer released")
	b.id = 0
	b.ctx.release()
}

func (b *Buffer[T]) String() string {
	return fmt.Sprintf("buffer(%d, %d x %s%d)", b.id, b.count, b.info.dataType, b.info.components)
}

// VertexSource is a buffer that can feed a shader attribute.
type VertexSource interface {
	vertexAttribute() (BufferID, AttributeLayout, int)
}

// VertexBuffer holds per-vertex or per-instance attribute data.
type VertexBuffer[T any] struct {
	buf *Buffer[T]
}

func NewVertexBuffer[T any](ctx *Context, usage BufferUsage) (*VertexBuffer[T], error) {
	b, err := NewBuffer[T](ctx, BufferTargetArray, usage)
	if err != nil {
		return nil, err
	}
	return &VertexBuffer[T]{buf: b}, nil
}

func NewVertexBufferWithData[T any](ctx *Context, data []T) (*VertexBuffer[T], error) {
	b, err := NewBufferWithData(ctx, BufferTargetArray, StaticDraw, data)
	if err != nil {
		return nil, err
	}
	return &VertexBuffer[T]{buf: b}, nil
}

func (v *VertexBuffer[T]) Fill(data []T) error { return v.buf.Fill(data) }

// VertexCount returns the number of elements (vertices or instances).
func (v *VertexBuffer[T]) VertexCount() int { return v.buf.count }

// Count returns the number of scalars stored.
func (v *VertexBuffer[T]) Count() int { return v.buf.count * v.buf.info.components }

func (v *VertexBuffer[T]) Buffer() *Buffer[T] { return v.buf }
func (v *VertexBuffer[T]) Release()           { v.buf.Release() }

func (v *VertexBuffer[T]) vertexAttribute() (BufferID, AttributeLayout, int) {
	return v.buf.id, AttributeLayout{
		Type:       v.buf.info.dataType,
		Components: v.buf.info.components,
		Normalized: v.buf.info.dataType == UnsignedByte,
	}, v.buf.count
}

// Index is the set of element index types.
type Index interface {
	uint8 | uint16 | uint32
}

// IndexSource is a buffer of element indices.
type IndexSource interface {
	elements() (BufferID, DataType, int)
}

// ElementBuffer holds triangle indices.
type ElementBuffer[T Index] struct {
	buf      *Buffer[T]
	maxIndex T
}

func NewElementBuffer[T Index](ctx *Context, usage BufferUsage) (*ElementBuffer[T], error) {
	b, err := NewBuffer[T](ctx, BufferTargetElementArray, usage)
	if err != nil {
		return nil, err
	}
	return &ElementBuffer[T]{buf: b}, nil
}

func NewElementBufferWithData[T Index](ctx *Context, data []T) (*ElementBuffer[T], error) {
	e, err := NewElementBuffer[T](ctx, StaticDraw)
	if err != nil {
		return nil, err
	}
	if err := e.Fill(data); err != nil {
		e.Release()
		return nil, err
	}
	return e, nil
}

func (e *ElementBuffer[T]) Fill(data []T) error {
	if err := e.buf.Fill(data); err != nil {
		return err
	}
	var m T
	for _, i := range data {
		m = max(m, i)
	}
	e.maxIndex = m
	return nil
}

// Count returns the number of indices.
func (e *ElementBuffer[T]) Count() int { return e.buf.count }

// MaxIndex returns the largest index from the last fill.
func (e *ElementBuffer[T]) MaxIndex() T { return e.maxIndex }

func (e *ElementBuffer[T]) Buffer() *Buffer[T] { return e.buf }
func (e *ElementBuffer[T]) Release()           { e.buf.Release() }

func (e *ElementBuffer[T]) elements() (BufferID, DataType, int) {
	return e.buf.id, e.buf.info.dataType, e.buf.count
}
