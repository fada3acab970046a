package core

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"render-core/math"
)

type attributeBinding struct {
	buf    BufferID
	layout AttributeLayout
	count  int
}

// Program is a compiled shader program with transient input bindings.
// Inputs are bound with the Use methods and cleared after every draw,
// successful or not, after any failed Use call, and when the write scope
// they were bound in exits.
type Program struct {
	ctx      *Context
	id       ProgramID
	uniforms map[string]UniformInfo
	attrs    map[string]bool

	// scope is the serial of the write scope the current bindings belong to.
	scope uint64

	values     map[string]any
	textures   map[string]*texture
	attributes map[string]attributeBinding
}

// NewProgram compiles and links a program. Compilation failures are not
// retried.
func NewProgram(ctx *Context, vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := ctx.dev.CreateProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, &DeviceResourceError{Op: "compile program", Err: err}
	}
	inputs := ctx.dev.ProgramInputs(id)
	p := &Program{
		ctx:        ctx,
		id:         id,
		uniforms:   make(map[string]UniformInfo, len(inputs.Uniforms)),
		attrs:      make(map[string]bool, len(inputs.Attributes)),
		values:     map[string]any{},
		textures:   map[string]*texture{},
		attributes: map[string]attributeBinding{},
	}
	for _, u := range inputs.Uniforms {
		p.uniforms[u.Name] = u
	}
	for _, a := range inputs.Attributes {
		p.attrs[a] = true
	}
	ctx.retain()
	ctx.log.WithFields(logrus.Fields{
		"program":    id,
		"uniforms":   len(inputs.Uniforms),
		"attributes": len(inputs.Attributes),
	}).Debug("program created")
	return p, nil
}

func (p *Program) ID() ProgramID { return p.id }

// Uniforms returns the active uniforms sorted by name.
func (p *Program) Uniforms() []UniformInfo {
	out := make([]UniformInfo, 0, len(p.uniforms))
	for _, u := range p.uniforms {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b UniformInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Requires reports whether name is an active uniform or attribute.
func (p *Program) Requires(name string) bool {
	_, ok := p.uniforms[name]
	return ok || p.attrs[name]
}

func uniformValueSupported(v any) bool {
	switch v.(type) {
	case float32, int32, uint32, bool,
		math.Vec2, math.Vec3, math.Vec4, math.Mat4, Color,
		[]float32, []math.Vec2, []math.Vec3, []math.Vec4, []math.Mat4:
		return true
	}
	return false
}

// UseUniform binds a uniform value for the next draw. Names the program does
// not use are ignored.
func (p *Program) UseUniform(name string, value any) error {
	p.begin()
	if !uniformValueSupported(value) {
		return p.fail(unsupported("uniform %q value of type %T", name, value))
	}
	u, ok := p.uniforms[name]
	if !ok {
		return nil
	}
	if u.Type.IsSampler() {
		return p.fail(unsupported("uniform %q is a sampler, bind it with UseTexture", name))
	}
	p.values[name] = value
	return nil
}

// UseTexture binds a texture to a sampler uniform for the next draw. Names
// the program does not use are ignored.
func (p *Program) UseTexture(name string, tex Texture) error {
	p.begin()
	var t *texture
	if tex != nil {
		t = tex.base()
	}
	if t == nil {
		return p.fail(unsupported("nil texture for %q", name))
	}
	u, ok := p.uniforms[name]
	if !ok {
		return nil
	}
	if !u.Type.IsSampler() {
		return p.fail(unsupported("uniform %q is not a sampler", name))
	}
	if t.id == 0 {
		return p.fail(&DeviceResourceError{Op: "bind texture " + name, Err: errReleased})
	}
	if err := p.checkAliasing(name, t); err != nil {
		return p.fail(err)
	}
	p.textures[name] = t
	return nil
}

// UseVertexAttribute binds per-vertex data to an attribute for the next draw.
func (p *Program) UseVertexAttribute(name string, buf VertexSource) error {
	return p.useAttribute(name, buf, 0)
}

// UseInstanceAttribute binds per-instance data to an attribute for the next draw.
func (p *Program) UseInstanceAttribute(name string, buf VertexSource) error {
	return p.useAttribute(name, buf, 1)
}

func (p *Program) useAttribute(name string, buf VertexSource, divisor uint32) error {
	p.begin()
	if !p.attrs[name] {
		return nil
	}
	id, layout, _ := buf.vertexAttribute()
	if id == 0 {
		return p.fail(&DeviceResourceError{Op: "bind attribute " + name, Err: errReleased})
	}
	layout.Divisor = divisor
	p.attributes[name] = attributeBinding{buf: id, layout: layout}
	return nil
}

func (p *Program) checkAliasing(name string, t *texture) error {
	if !p.ctx.cfg.AliasingCheck {
		return nil
	}
	if s := p.ctx.currentScope(); s != nil && s.attached(t) {
		return &AliasingViolationError{Name: name, Texture: t.id}
	}
	return nil
}

// Draw issues a non-indexed draw of count vertices.
func (p *Program) Draw(states RenderStates, viewport Viewport, count int) error {
	return p.draw(states, viewport, nil, count, 1)
}

// DrawInstanced issues count vertices for each of instances instances.
func (p *Program) DrawInstanced(states RenderStates, viewport Viewport, count, instances int) error {
	return p.draw(states, viewport, nil, count, instances)
}

// DrawElements issues an indexed draw of every index in elements.
func (p *Program) DrawElements(states RenderStates, viewport Viewport, elements IndexSource) error {
	return p.draw(states, viewport, elements, 0, 1)
}

func (p *Program) DrawElementsInstanced(states RenderStates, viewport Viewport, elements IndexSource, instances int) error {
	return p.draw(states, viewport, elements, 0, instances)
}

func (p *Program) draw(states RenderStates, viewport Viewport, elements IndexSource, count, instances int) error {
	defer p.reset()
	p.dropStale()
	if p.id == 0 {
		return &DeviceResourceError{Op: "draw", Err: errReleased}
	}
	if err := viewport.validate(); err != nil {
		return err
	}
	if err := p.checkBindings(); err != nil {
		return err
	}
	if limit := p.ctx.caps.MaxTextureUnits; limit > 0 && uint32(len(p.textures)) > limit {
		return unsupported("%d textures exceed %d units", len(p.textures), limit)
	}

	dev := p.ctx.dev
	dev.UseProgram(p.id)

	// Units are assigned in name order so repeated draws bind identically.
	names := make([]string, 0, len(p.textures))
	for name := range p.textures {
		names = append(names, name)
	}
	slices.Sort(names)
	for unit, name := range names {
		t := p.textures[name]
		dev.BindTexture(uint32(unit), t.kind, t.id)
		if err := dev.SetUniform(p.id, name, int32(unit)); err != nil {
			return fmt.Errorf("bind sampler %q: %w", name, err)
		}
	}
	for name, v := range p.values {
		if err := dev.SetUniform(p.id, name, v); err != nil {
			return fmt.Errorf("set uniform %q: %w", name, err)
		}
	}
	for name, a := range p.attributes {
		dev.SetVertexAttribute(p.id, name, a.buf, a.layout)
	}
	defer dev.DisableVertexAttributes(p.id)

	// Without a depth attachment there is nothing to test against.
	if s := p.ctx.currentScope(); s != nil && !s.hasDepth() {
		states.DepthTest = DepthTestAlways
		states.WriteMask.Depth = false
	}
	dev.SetViewport(viewport)
	dev.SetRenderStates(states)

	if elements != nil {
		id, indexType, n := elements.elements()
		if id == 0 {
			return &DeviceResourceError{Op: "draw elements", Err: errReleased}
		}
		dev.DrawElements(id, indexType, n, instances)
		return nil
	}
	dev.DrawArrays(count, instances)
	return nil
}

// checkBindings verifies that every active input has a binding, that
// sampler kinds match and that no bound texture is being written.
func (p *Program) checkBindings() error {
	for _, u := range p.Uniforms() {
		if !u.Type.IsSampler() {
			if _, ok := p.values[u.Name]; !ok {
				return &MissingBindingError{Kind: BindingUniform, Name: u.Name}
			}
			continue
		}
		t, ok := p.textures[u.Name]
		if !ok {
			return &MissingBindingError{Kind: BindingTexture, Name: u.Name}
		}
		if t.id == 0 {
			return &DeviceResourceError{Op: "bind texture " + u.Name, Err: errReleased}
		}
		if want := u.Type.samplerKind(); t.kind != want {
			return unsupported("sampler %q expects a %s texture, got %s", u.Name, want, t.kind)
		}
		if err := p.checkAliasing(u.Name, t); err != nil {
			return err
		}
	}
	attrs := make([]string, 0, len(p.attrs))
	for a := range p.attrs {
		attrs = append(attrs, a)
	}
	slices.Sort(attrs)
	for _, a := range attrs {
		if _, ok := p.attributes[a]; !ok {
			return &MissingBindingError{Kind: BindingAttribute, Name: a}
		}
	}
	return nil
}

// begin prepares for a new binding. Bindings left over from a scope that has
// since exited are dropped; a fresh set belongs to the innermost scope.
func (p *Program) begin() {
	p.dropStale()
	if !p.bound() {
		p.scope = p.ctx.innermostSerial()
	}
}

func (p *Program) dropStale() {
	if p.bound() && !p.ctx.scopeActive(p.scope) {
		p.reset()
	}
}

func (p *Program) bound() bool {
	return len(p.values)+len(p.textures)+len(p.attributes) > 0
}

// fail clears every binding so a half-bound pass cannot leak into the next.
func (p *Program) fail(err error) error {
	p.reset()
	return err
}

func (p *Program) reset() {
	clear(p.values)
	clear(p.textures)
	clear(p.attributes)
}

// Release deletes the program. Further calls are no-ops.
func (p *Program) Release() {
	if p.id == 0 {
		return
	}
	p.ctx.dev.DeleteProgram(p.id)
	p.ctx.log.WithField("program", p.id).Debug("program released")
	p.id = 0
	p.ctx.release()
}
