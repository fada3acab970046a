package main

import (
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/sirupsen/logrus"

	"render-core/asset"
	"render-core/core"
	"render-core/effect"
	"render-core/internal/config"
	"render-core/internal/logging"
	"render-core/internal/opengl"
	"render-core/internal/window"
	"render-core/math"
)

const (
	// shadowDistance is the radius around the eye covered by the last cascade.
	shadowDistance = 60
	skySize        = 64
)

// app owns the window, the render context and every per-frame resource.
type app struct {
	cfg *config.Config
	log *logrus.Entry
	win *window.Window
	ctx *core.Context

	scene      *gpuScene
	sceneProg  *core.Program
	shadowProg *core.Program

	hdr     *core.Texture2D
	depth   *core.DepthTexture2D
	target  *core.RenderTarget
	shadows *core.DepthTexture2DArray

	fog     *effect.FogEffect
	toneMap *effect.ToneMapEffect
	bloom   *effect.BloomEffect
	ssao    *effect.SSAOEffect
	copy    *effect.CopyEffect
	sky     *effect.SkyboxEffect
	spray   *effect.ParticleEffect
	// fountain is nil for loaded scenes.
	fountain *effect.ParticleEmitter

	camera     *effect.PerspectiveCamera
	controller *walkController
	dayNight   *DayNight
	stats      frameStats
	drawn      int

	resized bool
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, log: logging.Component("demo")}
	if err := a.init(); err != nil {
		a.Release()
		return nil, err
	}
	return a, nil
}

func (a *app) init() error {
	cfg := a.cfg
	var err error
	a.win, err = window.New(window.Config{
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Title:     cfg.Window.Title,
		Resizable: cfg.Window.Resizable,
		VSync:     cfg.Window.VSync,
	})
	if err != nil {
		return err
	}
	a.win.OnResize(func(int, int) { a.resized = true })

	dev, err := opengl.NewDevice(logging.Component("opengl"), cfg.Render.UniformCacheSize)
	if err != nil {
		return err
	}
	a.ctx, err = core.NewContext(dev, core.ContextConfig{
		AliasingCheck: cfg.Render.AliasingCheck,
		AutoMipMaps:   cfg.Render.AutoMipMaps,
		Logger:        logging.Component("core"),
	})
	if err != nil {
		dev.Release()
		return err
	}

	if err := a.loadScene(); err != nil {
		return err
	}
	if a.sceneProg, err = core.NewProgram(a.ctx, sceneVertSrc, sceneFragSrc); err != nil {
		return fmt.Errorf("scene shader: %w", err)
	}
	if a.shadowProg, err = core.NewProgram(a.ctx, shadowVertSrc, shadowFragSrc); err != nil {
		return fmt.Errorf("shadow shader: %w", err)
	}

	size := uint32(cfg.Render.ShadowSize)
	a.shadows, err = core.NewDepthTexture2DArray(a.ctx, size, size, uint32(cfg.Render.ShadowLayers), core.DefaultDepthTextureOptions())
	if err != nil {
		return fmt.Errorf("shadow map: %w", err)
	}

	if err := a.createEffects(); err != nil {
		return err
	}
	if err := a.resize(); err != nil {
		return err
	}

	a.camera = effect.NewPerspectiveCamera(a.ctx.Screen().Viewport(), math.NewVec3(0, 1.7, 12), math.Vec3Zero)
	a.camera.Far = 200
	a.controller = newWalkController()
	a.controller.collideWith(a.scene, "Bldg_", "Wall_", "Fountain")
	a.dayNight = NewDayNight(cfg.Effects.Fog.DayLength)
	return a.bakeSky()
}

// bakeSky rebuilds the sky cube map from the current time of day.
func (a *app) bakeSky() error {
	p := a.dayNight.Palette()
	h := p.horizon
	a.sky.Horizon = h
	a.sky.Zenith = core.Color{R: h.R * 0.4, G: h.G * 0.55, B: h.B * 0.9, A: 1}
	a.sky.Ground = p.ambient
	a.sky.SunDirection = a.dayNight.SunDirection()
	a.sky.SunColor = p.sunColor
	return a.sky.Bake()
}

func (a *app) loadScene() error {
	var scene *asset.Scene
	if path := a.cfg.Render.Scene; path == "" {
		scene = builtinScene()
		a.fountain = effect.NewFountainEmitter(math.NewVec3(0, 2, 0), 2000)
	} else {
		cache, err := asset.NewTextureCache(a.cfg.Render.TextureCacheSize)
		if err != nil {
			return err
		}
		loader := &asset.Loader{Log: logging.Component("asset"), Cache: cache}
		if scene, err = loader.Load(path); err != nil {
			return err
		}
	}

	var mipFilter *core.Interpolation
	switch a.cfg.Render.MipFilter {
	case "nearest":
		mipFilter = core.Mip(core.Nearest)
	case "linear":
		mipFilter = core.Mip(core.Linear)
	}

	var err error
	if a.scene, err = uploadScene(a.ctx, scene, mipFilter); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"meshes":    len(a.scene.meshes),
		"instances": len(a.scene.instances),
		"textures":  len(a.scene.textures),
	}).Info("Scene uploaded")
	return nil
}

func (a *app) createEffects() error {
	e := a.cfg.Effects
	var err error
	fogColor := core.Color{R: e.Fog.Color[0], G: e.Fog.Color[1], B: e.Fog.Color[2], A: 1}
	if a.fog, err = effect.NewFogEffect(a.ctx, fogColor, e.Fog.Density, e.Fog.Animation); err != nil {
		return err
	}
	if a.toneMap, err = effect.NewToneMapEffect(a.ctx); err != nil {
		return err
	}
	a.toneMap.Exposure = e.ToneMap.Exposure
	a.toneMap.BloomStrength = e.Bloom.Strength
	a.toneMap.AOStrength = e.SSAO.Strength

	w, h := a.win.FramebufferSize()
	if a.bloom, err = effect.NewBloomEffect(a.ctx, uint32(w), uint32(h)); err != nil {
		return err
	}
	a.bloom.Threshold = e.Bloom.Threshold
	a.bloom.Passes = e.Bloom.Passes
	if a.ssao, err = effect.NewSSAOEffect(a.ctx, uint32(w), uint32(h)); err != nil {
		return err
	}
	a.ssao.Radius = e.SSAO.Radius
	a.ssao.Bias = e.SSAO.Bias

	if a.copy, err = effect.NewCopyEffect(a.ctx); err != nil {
		return err
	}
	if a.sky, err = effect.NewSkyboxEffect(a.ctx, skySize); err != nil {
		return err
	}
	a.spray, err = effect.NewParticleEffect(a.ctx)
	return err
}

// resize recreates the screen-sized targets to match the framebuffer.
func (a *app) resize() error {
	fw, fh := a.win.FramebufferSize()
	if fw <= 0 || fh <= 0 {
		// Minimised; keep the old targets.
		return nil
	}
	w, h := uint32(fw), uint32(fh)
	a.ctx.SetScreenSize(w, h)
	if a.camera != nil {
		a.camera.View = a.ctx.Screen().Viewport()
	}

	a.releaseTargets()
	var err error
	a.hdr, err = core.NewTexture2D(a.ctx, w, h, core.TextureOptions{
		Format:    core.FormatRGBA,
		DataType:  core.HalfFloat,
		MinFilter: core.Linear,
		MagFilter: core.Linear,
		WrapS:     core.ClampToEdge,
		WrapT:     core.ClampToEdge,
	})
	if err != nil {
		return fmt.Errorf("hdr buffer: %w", err)
	}
	if a.depth, err = core.NewDepthTexture2D(a.ctx, w, h, core.DefaultDepthTextureOptions()); err != nil {
		return fmt.Errorf("depth buffer: %w", err)
	}
	if a.target, err = core.NewRenderTarget(a.ctx, a.hdr, a.depth); err != nil {
		return err
	}
	if err := a.bloom.Resize(w, h); err != nil {
		return err
	}
	if err := a.ssao.Resize(w, h); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{"width": w, "height": h}).Debug("Render targets resized")
	return nil
}

// lightMatrices returns one orthographic light view-projection per cascade,
// centred on the eye. Cascade i covers (i+1) * cascadeSize world units.
func (a *app) lightMatrices(sun math.Vec3) []math.Mat4 {
	up := math.Vec3Up
	if abs32(sun.Y) > 0.99 {
		up = math.Vec3{Z: 1}
	}
	center := a.camera.Eye
	view := math.Mat4LookAt(center.Sub(sun.Mul(100)), center, up)

	n := int(a.shadows.Depth())
	size := a.cascadeSize()
	mats := make([]math.Mat4, maxCascades)
	for i := range mats {
		r := size * float32(min(i, n-1)+1)
		mats[i] = view.Mul(math.Mat4Orthographic(-r, r, -r, r, 1, 200))
	}
	return mats
}

func (a *app) cascadeSize() float32 {
	return shadowDistance / float32(a.shadows.Depth())
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// drawScene draws every instance whose bounds intersect the frustum of
// viewProjection and returns how many it drew. uniforms are rebound before
// each draw.
func (a *app) drawScene(p *core.Program, states core.RenderStates, viewport core.Viewport, viewProjection math.Mat4, uniforms map[string]any, withMaterial bool) (int, error) {
	frustum := math.FrustumFromViewProjection(viewProjection)
	drawn := 0
	for _, inst := range a.scene.instances {
		if !a.scene.bounds[inst.Mesh].Transform(inst.Transform).IntersectsFrustum(&frustum) {
			continue
		}
		for name, v := range uniforms {
			if err := p.UseUniform(name, v); err != nil {
				return drawn, err
			}
		}
		if err := p.UseUniform("model", inst.Transform); err != nil {
			return drawn, err
		}
		if withMaterial {
			m := a.scene.materials[a.scene.meshMaterial[inst.Mesh]]
			if err := errors.Join(
				p.UseTexture("albedoMap", m.texture),
				p.UseTexture("shadowMap", a.shadows),
				p.UseUniform("albedo", m.albedo),
				p.UseUniform("emissive", m.emissive),
			); err != nil {
				return drawn, err
			}
		}
		if err := a.scene.meshes[inst.Mesh].Draw(p, states, viewport); err != nil {
			return drawn, fmt.Errorf("draw %s: %w", inst.Node, err)
		}
		drawn++
	}
	return drawn, nil
}

func (a *app) renderShadows(lights []math.Mat4) error {
	states := core.DefaultRenderStates()
	states.WriteMask = core.WriteMaskDepth
	viewport := core.NewViewport(a.shadows.Width(), a.shadows.Height())
	for layer := range a.shadows.Depth() {
		err := a.shadows.Write(layer, core.ClearDepth(1), func() error {
			_, err := a.drawScene(a.shadowProg, states, viewport, lights[layer], map[string]any{
				"lightViewProjection": lights[layer],
			}, false)
			return err
		})
		if err != nil {
			return fmt.Errorf("shadow layer %d: %w", layer, err)
		}
	}
	return nil
}

func (a *app) renderFrame(timeMs float32) error {
	palette := a.dayNight.Palette()
	sun := a.dayNight.SunDirection()
	lights := a.lightMatrices(sun)

	if err := a.renderShadows(lights); err != nil {
		return err
	}

	if a.dayNight.Active {
		if err := a.bakeSky(); err != nil {
			return err
		}
	}

	err := a.target.Write(core.ClearDepth(1), func() error {
		if err := a.sky.Apply(a.camera); err != nil {
			return err
		}
		states := core.DefaultRenderStates()
		states.Cull = core.CullBack
		vp := a.camera.ViewProjection()
		var err error
		a.drawn, err = a.drawScene(a.sceneProg, states, a.target.Viewport(), vp, map[string]any{
			"viewProjection":      vp,
			"sunDirection":        sun,
			"sunColor":            palette.sunColor.Vec4().XYZ(),
			"ambient":             palette.ambient.Vec4().XYZ(),
			"eyePosition":         a.camera.Eye,
			"lightViewProjection": lights,
			"cascades":            int32(a.shadows.Depth()),
			"cascadeSize":         a.cascadeSize(),
		}, true)
		if err != nil || a.fountain == nil {
			return err
		}
		return a.spray.Apply(a.camera, a.fountain)
	})
	if err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}

	var ao, bloom *core.Texture2D
	if a.cfg.Effects.SSAO.Enabled {
		if err := a.ssao.Apply(a.depth, a.camera.Projection()); err != nil {
			return fmt.Errorf("ssao: %w", err)
		}
		ao = a.ssao.Output()
	}

	if a.cfg.Effects.Fog.Enabled {
		if a.dayNight.Active {
			a.fog.Color = palette.fogColor
			a.fog.Density = palette.fogDensity
		}
		if err := a.hdr.Write(core.ClearNone(), func() error {
			return a.fog.Apply(a.camera, a.depth, timeMs)
		}); err != nil {
			return fmt.Errorf("fog: %w", err)
		}
	}

	if a.cfg.Effects.Bloom.Enabled {
		if err := a.bloom.Apply(a.hdr); err != nil {
			return fmt.Errorf("bloom: %w", err)
		}
		bloom = a.bloom.Output()
	}

	c := a.cfg.Render.ClearColor
	return a.ctx.Screen().Write(core.ClearColorAndDepth(c[0], c[1], c[2], c[3], 1), func() error {
		screen := a.ctx.Screen().Viewport()
		if err := a.toneMap.Apply(a.hdr, bloom, ao, screen); err != nil {
			return fmt.Errorf("tone map: %w", err)
		}
		if !a.win.IsKeyPressed(glfw.KeyF1) {
			return nil
		}
		// Cycle through the cascades once per second.
		layer := uint32(timeMs/1000) % a.shadows.Depth()
		debug := core.NewViewport(screen.Width/4, screen.Height/4)
		return a.copy.Apply(a.shadows, layer, debug)
	})
}

// Run drives the frame loop until the window closes.
func (a *app) Run() error {
	last := a.win.Time()
	for !a.win.ShouldClose() {
		now := a.win.Time()
		dt := now - last
		last = now

		a.win.PollEvents()
		if a.resized {
			a.resized = false
			if err := a.resize(); err != nil {
				return err
			}
		}
		if a.win.IsKeyPressed(glfw.KeyEscape) {
			a.win.Handle.SetShouldClose(true)
		}

		a.controller.Update(a.win, a.camera, float32(dt))
		a.dayNight.Update(float32(dt))
		if a.fountain != nil {
			a.fountain.Update(float32(dt))
		}

		if err := a.renderFrame(float32(now * 1000)); err != nil {
			return err
		}
		a.win.SwapBuffers()

		if a.stats.Tick(dt) {
			if a.dayNight.Active {
				a.stats.AddLine("%s", a.dayNight.TimeOfDayStr())
			}
			a.stats.AddLine("%d/%d drawn", a.drawn, len(a.scene.instances))
			a.stats.AddLine("%.1f, %.1f, %.1f", a.camera.Eye.X, a.camera.Eye.Y, a.camera.Eye.Z)
			a.win.SetTitle(a.stats.Title(a.cfg.Window.Title))
		}
	}
	return nil
}

func (a *app) releaseTargets() {
	if a.hdr != nil {
		a.hdr.Release()
	}
	if a.depth != nil {
		a.depth.Release()
	}
	a.hdr, a.depth, a.target = nil, nil, nil
}

// Release frees every resource in reverse order of creation. It is safe on
// a partially constructed app.
func (a *app) Release() {
	a.releaseTargets()
	if a.spray != nil {
		a.spray.Release()
	}
	if a.sky != nil {
		a.sky.Release()
	}
	if a.copy != nil {
		a.copy.Release()
	}
	if a.ssao != nil {
		a.ssao.Release()
	}
	if a.bloom != nil {
		a.bloom.Release()
	}
	if a.toneMap != nil {
		a.toneMap.Release()
	}
	if a.fog != nil {
		a.fog.Release()
	}
	if a.shadows != nil {
		a.shadows.Release()
	}
	if a.shadowProg != nil {
		a.shadowProg.Release()
	}
	if a.sceneProg != nil {
		a.sceneProg.Release()
	}
	if a.scene != nil {
		a.scene.Release()
	}
	if a.ctx != nil {
		a.ctx.Release()
	}
	if a.win != nil {
		a.win.Destroy()
	}
}
