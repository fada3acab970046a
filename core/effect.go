package core

// imageEffectVertexSrc draws one triangle covering the viewport from
// gl_VertexID, so no vertex buffer is bound.
const imageEffectVertexSrc = `#version 410 core
out vec2 uv;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    uv          = pos[gl_VertexID] * 0.5 + 0.5;
}
`

// ImageEffect runs a fragment shader over the whole viewport. The fragment
// stage receives the interpolated texture coordinate as "in vec2 uv".
type ImageEffect struct {
	program *Program
}

func NewImageEffect(ctx *Context, fragmentSrc string) (*ImageEffect, error) {
	p, err := NewProgram(ctx, imageEffectVertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &ImageEffect{program: p}, nil
}

func (e *ImageEffect) UseUniform(name string, value any) error {
	return e.program.UseUniform(name, value)
}

func (e *ImageEffect) UseTexture(name string, tex Texture) error {
	return e.program.UseTexture(name, tex)
}

// Requires reports whether the fragment shader reads name.
func (e *ImageEffect) Requires(name string) bool { return e.program.Requires(name) }

// Apply draws the effect into the innermost write scope with exactly the
// given states.
func (e *ImageEffect) Apply(states RenderStates, viewport Viewport) error {
	return e.program.Draw(states, viewport, 3)
}

func (e *ImageEffect) Program() *Program { return e.program }

func (e *ImageEffect) Release() { e.program.Release() }
