package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-core/core"
	"render-core/math"
)

type program struct {
	inputs     core.ProgramInputs
	uniforms   map[string]core.UniformInfo
	attributes map[string]attribute
}

type attribute struct {
	location uint32
	// slots is the number of consecutive locations the attribute spans;
	// a mat4 takes four.
	slots int
}

var uniformTypes = map[uint32]core.UniformType{
	gl.FLOAT:                     core.UniformFloat,
	gl.FLOAT_VEC2:                core.UniformVec2,
	gl.FLOAT_VEC3:                core.UniformVec3,
	gl.FLOAT_VEC4:                core.UniformVec4,
	gl.INT:                       core.UniformInt,
	gl.UNSIGNED_INT:              core.UniformUint,
	gl.BOOL:                      core.UniformBool,
	gl.FLOAT_MAT3:                core.UniformMat3,
	gl.FLOAT_MAT4:                core.UniformMat4,
	gl.SAMPLER_2D:                core.UniformSampler2D,
	gl.SAMPLER_2D_ARRAY:          core.UniformSampler2DArray,
	gl.SAMPLER_CUBE:              core.UniformSamplerCube,
	gl.SAMPLER_2D_SHADOW:         core.UniformSampler2DShadow,
	gl.SAMPLER_2D_ARRAY_SHADOW:   core.UniformSampler2DArrayShadow,
	gl.INT_SAMPLER_2D:            core.UniformSampler2D,
	gl.UNSIGNED_INT_SAMPLER_2D:   core.UniformSampler2D,
	gl.INT_SAMPLER_2D_ARRAY:      core.UniformSampler2DArray,
	gl.UNSIGNED_INT_SAMPLER_CUBE: core.UniformSamplerCube,
}

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (core.ProgramID, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	defer gl.DeleteShader(vert)
	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}
	defer gl.DeleteShader(frag)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}

	id := core.ProgramID(prog)
	d.programs[id] = reflect(prog)
	return id, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

// reflect lists the active uniforms and attributes of a linked program.
func reflect(prog uint32) *program {
	p := &program{
		uniforms:   map[string]core.UniformInfo{},
		attributes: map[string]attribute{},
	}

	var count, maxLen int32
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	for i := int32(0); i < count; i++ {
		name, size, xtype := activeName(maxLen, func(n *int32, size *int32, xtype *uint32, buf *uint8) {
			gl.GetActiveUniform(prog, uint32(i), maxLen, n, size, xtype, buf)
		})
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		info := core.UniformInfo{Name: name, Type: uniformTypes[xtype], Size: int(size)}
		p.uniforms[name] = info
		p.inputs.Uniforms = append(p.inputs.Uniforms, info)
	}

	gl.GetProgramiv(prog, gl.ACTIVE_ATTRIBUTES, &count)
	gl.GetProgramiv(prog, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, &maxLen)
	for i := int32(0); i < count; i++ {
		name, size, xtype := activeName(maxLen, func(n *int32, size *int32, xtype *uint32, buf *uint8) {
			gl.GetActiveAttrib(prog, uint32(i), maxLen, n, size, xtype, buf)
		})
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		loc := gl.GetAttribLocation(prog, gl.Str(name+"\x00"))
		if loc < 0 {
			continue
		}
		slots := 1
		switch xtype {
		case gl.FLOAT_MAT4:
			slots = 4
		case gl.FLOAT_MAT3:
			slots = 3
		}
		p.attributes[name] = attribute{location: uint32(loc), slots: slots * int(size)}
		p.inputs.Attributes = append(p.inputs.Attributes, name)
	}
	return p
}

func activeName(maxLen int32, query func(n *int32, size *int32, xtype *uint32, buf *uint8)) (string, int32, uint32) {
	buf := make([]uint8, maxLen+1)
	var n, size int32
	var xtype uint32
	query(&n, &size, &xtype, &buf[0])
	return strings.TrimSuffix(string(buf[:n]), "[0]"), size, xtype
}

func (d *Device) ProgramInputs(id core.ProgramID) core.ProgramInputs {
	if p, ok := d.programs[id]; ok {
		return p.inputs
	}
	return core.ProgramInputs{}
}

func (d *Device) UseProgram(id core.ProgramID) {
	gl.UseProgram(uint32(id))
}

// location returns the uniform location, cached per program and name.
func (d *Device) location(id core.ProgramID, name string) int32 {
	key := uniformKey{program: id, name: name}
	if loc, ok := d.uniformLocs.Get(key); ok {
		return loc
	}
	loc := gl.GetUniformLocation(uint32(id), gl.Str(name+"\x00"))
	d.uniformLocs.Add(key, loc)
	return loc
}

func (d *Device) SetUniform(id core.ProgramID, name string, value any) error {
	loc := d.location(id, name)
	if loc < 0 {
		return fmt.Errorf("uniform %q is not active in program %d", name, id)
	}
	switch v := value.(type) {
	case float32:
		gl.Uniform1f(loc, v)
	case int32:
		gl.Uniform1i(loc, v)
	case uint32:
		gl.Uniform1ui(loc, v)
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.Uniform1i(loc, i)
	case math.Vec2:
		gl.Uniform2f(loc, v.X, v.Y)
	case math.Vec3:
		gl.Uniform3f(loc, v.X, v.Y, v.Z)
	case math.Vec4:
		gl.Uniform4f(loc, v.X, v.Y, v.Z, v.W)
	case core.Color:
		gl.Uniform4f(loc, v.R, v.G, v.B, v.A)
	case math.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0][0])
	case []float32:
		if len(v) > 0 {
			gl.Uniform1fv(loc, int32(len(v)), &v[0])
		}
	case []math.Vec2:
		if len(v) > 0 {
			gl.Uniform2fv(loc, int32(len(v)), &v[0].X)
		}
	case []math.Vec3:
		if len(v) > 0 {
			gl.Uniform3fv(loc, int32(len(v)), &v[0].X)
		}
	case []math.Vec4:
		if len(v) > 0 {
			gl.Uniform4fv(loc, int32(len(v)), &v[0].X)
		}
	case []math.Mat4:
		if len(v) > 0 {
			gl.UniformMatrix4fv(loc, int32(len(v)), false, &v[0][0][0])
		}
	default:
		return fmt.Errorf("uniform %q: unsupported value type %T", name, value)
	}
	return glError("set uniform " + name)
}

func attribType(t core.DataType) uint32 {
	switch t {
	case core.UnsignedByte:
		return gl.UNSIGNED_BYTE
	case core.UnsignedShort:
		return gl.UNSIGNED_SHORT
	case core.UnsignedInt:
		return gl.UNSIGNED_INT
	case core.Int:
		return gl.INT
	case core.HalfFloat:
		return gl.HALF_FLOAT
	}
	return gl.FLOAT
}

// SetVertexAttribute points an attribute at a tightly packed buffer. An
// attribute wider than vec4 is fed as consecutive vec4 columns.
func (d *Device) SetVertexAttribute(id core.ProgramID, name string, buf core.BufferID, layout core.AttributeLayout) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	a, ok := p.attributes[name]
	if !ok {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	columns := a.slots
	perColumn := max(layout.Components/columns, 1)
	stride := int32(layout.Components * layout.Type.Size())
	for c := 0; c < columns; c++ {
		loc := a.location + uint32(c)
		offset := uintptr(c * perColumn * layout.Type.Size())
		gl.EnableVertexAttribArray(loc)
		isInt := layout.Type != core.Float && layout.Type != core.HalfFloat && !layout.Normalized
		if isInt {
			gl.VertexAttribIPointerWithOffset(loc, int32(perColumn), attribType(layout.Type), stride, offset)
		} else {
			gl.VertexAttribPointerWithOffset(loc, int32(perColumn), attribType(layout.Type), layout.Normalized, stride, offset)
		}
		gl.VertexAttribDivisor(loc, layout.Divisor)
		d.enabled = append(d.enabled, loc)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *Device) DisableVertexAttributes(core.ProgramID) {
	for _, loc := range d.enabled {
		gl.VertexAttribDivisor(loc, 0)
		gl.DisableVertexAttribArray(loc)
	}
	d.enabled = d.enabled[:0]
}

func (d *Device) DeleteProgram(id core.ProgramID) {
	if p, ok := d.programs[id]; ok {
		for name := range p.uniforms {
			d.uniformLocs.Remove(uniformKey{program: id, name: name})
		}
		delete(d.programs, id)
	}
	gl.DeleteProgram(uint32(id))
}
