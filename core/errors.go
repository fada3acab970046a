package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package that belongs to one of
// these kinds matches it with errors.Is.
var (
	// ErrDeviceResource reports an allocation or compilation failure on the device.
	ErrDeviceResource = errors.New("device resource error")
	// ErrUnsupportedConfiguration reports a format, filter, size or layer
	// combination the device or the API cannot serve.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
	// ErrMissingBinding reports a draw issued before every input the shader
	// references was bound.
	ErrMissingBinding = errors.New("missing binding")
	// ErrAliasingViolation reports a texture sampled while it is attached to
	// the active render target.
	ErrAliasingViolation = errors.New("aliasing violation")
)

// DeviceResourceError wraps a failure reported by the Device.
type DeviceResourceError struct {
	Op  string
	Err error
}

func (e *DeviceResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("device resource error: %s", e.Op)
	}
	return fmt.Sprintf("device resource error: %s: %v", e.Op, e.Err)
}

func (e *DeviceResourceError) Unwrap() error        { return e.Err }
func (e *DeviceResourceError) Is(target error) bool { return target == ErrDeviceResource }

// UnsupportedConfigurationError carries the reason a configuration was refused.
type UnsupportedConfigurationError struct {
	Reason string
}

func (e *UnsupportedConfigurationError) Error() string {
	return "unsupported configuration: " + e.Reason
}

func (e *UnsupportedConfigurationError) Is(target error) bool {
	return target == ErrUnsupportedConfiguration
}

func unsupported(format string, args ...any) error {
	return &UnsupportedConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// BindingKind names the kind of shader input a MissingBindingError refers to.
type BindingKind string

const (
	BindingUniform   BindingKind = "uniform"
	BindingTexture   BindingKind = "texture"
	BindingAttribute BindingKind = "attribute"
)

// MissingBindingError identifies the first shader input that was not bound
// when a draw was issued.
type MissingBindingError struct {
	Kind BindingKind
	Name string
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("missing binding for %s %q", e.Kind, e.Name)
}

func (e *MissingBindingError) Is(target error) bool { return target == ErrMissingBinding }

// AliasingViolationError identifies a texture that was bound for sampling
// while attached to the innermost active write scope.
type AliasingViolationError struct {
	Name    string // shader input name
	Texture TextureID
}

func (e *AliasingViolationError) Error() string {
	return fmt.Sprintf("texture %d bound to %q is attached to the active render target", e.Texture, e.Name)
}

func (e *AliasingViolationError) Is(target error) bool { return target == ErrAliasingViolation }

var errReleased = errors.New("resource already released")
