package software

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"render-core/core"
	"render-core/math"
)

var (
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	uniformDecl  = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`)
	inputDecl    = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?in\s+\w+\s+(\w+)\s*;`)
	errorDir     = regexp.MustCompile(`(?m)^\s*#error\s*(.*)$`)
	mainFunc     = regexp.MustCompile(`\bvoid\s+main\s*\(`)
)

var uniformTypes = map[string]core.UniformType{
	"float":                core.UniformFloat,
	"vec2":                 core.UniformVec2,
	"vec3":                 core.UniformVec3,
	"vec4":                 core.UniformVec4,
	"int":                  core.UniformInt,
	"uint":                 core.UniformUint,
	"bool":                 core.UniformBool,
	"mat3":                 core.UniformMat3,
	"mat4":                 core.UniformMat4,
	"sampler2D":            core.UniformSampler2D,
	"sampler2DArray":       core.UniformSampler2DArray,
	"samplerCube":          core.UniformSamplerCube,
	"sampler2DShadow":      core.UniformSampler2DShadow,
	"sampler2DArrayShadow": core.UniformSampler2DArrayShadow,
}

type program struct {
	inputs   core.ProgramInputs
	types    map[string]core.UniformInfo
	uniforms map[string]any
}

// compileStage strips comments and checks the minimum a driver would: an
// entry point and no #error directive.
func compileStage(stage, src string) (string, error) {
	src = blockComment.ReplaceAllString(src, "")
	src = lineComment.ReplaceAllString(src, "")
	if m := errorDir.FindStringSubmatch(src); m != nil {
		return "", fmt.Errorf("%s shader compile error: %s", stage, strings.TrimSpace(m[1]))
	}
	if !mainFunc.MatchString(src) {
		return "", fmt.Errorf("%s shader compile error: missing main", stage)
	}
	return src, nil
}

// used reports whether name appears in src outside its declarations,
// mirroring drivers that drop unused uniforms and attributes.
func used(src, name string, decls *regexp.Regexp) bool {
	body := decls.ReplaceAllString(src, "")
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`).MatchString(body)
}

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (core.ProgramID, error) {
	vs, err := compileStage("vertex", vertexSrc)
	if err != nil {
		return 0, err
	}
	fs, err := compileStage("fragment", fragmentSrc)
	if err != nil {
		return 0, err
	}
	id, err := d.allocate()
	if err != nil {
		return 0, err
	}

	p := &program{types: map[string]core.UniformInfo{}, uniforms: map[string]any{}}
	for _, src := range []string{vs, fs} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			name := m[2]
			if _, dup := p.types[name]; dup || !used(src, name, uniformDecl) {
				continue
			}
			info := core.UniformInfo{Name: name, Type: uniformTypes[m[1]], Size: 1}
			if m[3] != "" {
				fmt.Sscan(m[3], &info.Size)
			}
			p.types[name] = info
		}
	}
	for _, m := range inputDecl.FindAllStringSubmatch(vs, -1) {
		if used(vs, m[1], inputDecl) {
			p.inputs.Attributes = append(p.inputs.Attributes, m[1])
		}
	}
	for _, name := range slices.Sorted(maps.Keys(p.types)) {
		p.inputs.Uniforms = append(p.inputs.Uniforms, p.types[name])
	}
	d.programs[core.ProgramID(id)] = p
	return core.ProgramID(id), nil
}

func (d *Device) ProgramInputs(id core.ProgramID) core.ProgramInputs {
	if p, ok := d.programs[id]; ok {
		return p.inputs
	}
	return core.ProgramInputs{}
}

func (d *Device) UseProgram(id core.ProgramID) {
	d.current = id
}

func (d *Device) SetUniform(id core.ProgramID, name string, value any) error {
	p, ok := d.programs[id]
	if !ok {
		return fmt.Errorf("software device: unknown program %d", id)
	}
	info, ok := p.types[name]
	if !ok {
		return nil
	}
	if !accepts(info, value) {
		return fmt.Errorf("uniform %q of type %d cannot take %T", name, info.Type, value)
	}
	p.uniforms[name] = value
	return nil
}

func accepts(info core.UniformInfo, v any) bool {
	if info.Size > 1 {
		switch v.(type) {
		case []float32:
			return info.Type == core.UniformFloat
		case []math.Vec2:
			return info.Type == core.UniformVec2
		case []math.Vec3:
			return info.Type == core.UniformVec3
		case []math.Vec4:
			return info.Type == core.UniformVec4
		case []math.Mat4:
			return info.Type == core.UniformMat4
		}
	}
	switch v.(type) {
	case float32:
		return info.Type == core.UniformFloat
	case int32:
		return info.Type == core.UniformInt || info.Type == core.UniformBool || info.Type.IsSampler()
	case uint32:
		return info.Type == core.UniformUint
	case bool:
		return info.Type == core.UniformBool
	case math.Vec2:
		return info.Type == core.UniformVec2
	case math.Vec3:
		return info.Type == core.UniformVec3
	case math.Vec4, core.Color:
		return info.Type == core.UniformVec4
	case math.Mat4:
		return info.Type == core.UniformMat4
	}
	return false
}

func (d *Device) SetVertexAttribute(id core.ProgramID, name string, buf core.BufferID, _ core.AttributeLayout) {
	if _, ok := d.buffers[buf]; ok && id == d.current {
		d.attributes[name] = buf
	}
}

func (d *Device) DisableVertexAttributes(core.ProgramID) {
	clear(d.attributes)
}

func (d *Device) DeleteProgram(id core.ProgramID) {
	delete(d.programs, id)
	if d.current == id {
		d.current = 0
	}
}

// Uniform returns the value last set on a program uniform.
func (d *Device) Uniform(id core.ProgramID, name string) (any, bool) {
	p, ok := d.programs[id]
	if !ok {
		return nil, false
	}
	v, ok := p.uniforms[name]
	return v, ok
}
