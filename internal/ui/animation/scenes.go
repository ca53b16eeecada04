package animation

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"time"

	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847

func fillBackground(dst *image.RGBA, fill color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
}

func circlePath(rasterizer *vector.Rasterizer, cx, cy, radius float32, reverse bool) {
	k := radius * kappa
	rasterizer.MoveTo(cx+radius, cy)
	if reverse {
		rasterizer.CubeTo(cx+radius, cy-k, cx+k, cy-radius, cx, cy-radius)
		rasterizer.CubeTo(cx-k, cy-radius, cx-radius, cy-k, cx-radius, cy)
		rasterizer.CubeTo(cx-radius, cy+k, cx-k, cy+radius, cx, cy+radius)
		rasterizer.CubeTo(cx+k, cy+radius, cx+radius, cy+k, cx+radius, cy)
	} else {
		rasterizer.CubeTo(cx+radius, cy+k, cx+k, cy+radius, cx, cy+radius)
		rasterizer.CubeTo(cx-k, cy+radius, cx-radius, cy+k, cx-radius, cy)
		rasterizer.CubeTo(cx-radius, cy-k, cx-k, cy-radius, cx, cy-radius)
		rasterizer.CubeTo(cx+k, cy-radius, cx+radius, cy-k, cx+radius, cy)
	}
	rasterizer.ClosePath()
}

func newRasterizer(dst *image.RGBA) *vector.Rasterizer {
	bounds := dst.Bounds()
	rasterizer := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	rasterizer.DrawOp = draw.Over
	return rasterizer
}

func paint(rasterizer *vector.Rasterizer, dst *image.RGBA, fill color.Color) {
	rasterizer.Draw(dst, dst.Bounds(), image.NewUniform(fill), image.Point{})
}

func fillCircle(dst *image.RGBA, cx, cy, radius float32, fill color.Color) {
	if radius <= 0 {
		return
	}
	rasterizer := newRasterizer(dst)
	circlePath(rasterizer, cx, cy, radius, false)
	paint(rasterizer, dst, fill)
}

func strokeCircle(dst *image.RGBA, cx, cy, radius, width float32, stroke color.Color) {
	inner := radius - width/2
	outer := radius + width/2
	if outer <= 0 {
		return
	}
	rasterizer := newRasterizer(dst)
	circlePath(rasterizer, cx, cy, outer, false)
	if inner > 0 {
		circlePath(rasterizer, cx, cy, inner, true)
	}
	paint(rasterizer, dst, stroke)
}

func seconds(value time.Duration) float64 {
	return value.Seconds()
}

const (
	rippleLife     = 4 * time.Second
	rippleInterval = 1200 * time.Millisecond
)

type ripple struct {
	x, y float32
	age  time.Duration
	size float32
}

// RippleScene spawns expanding rings across a still surface.
type RippleScene struct {
	rng     *rand.Rand
	ripples []ripple
	spawn   time.Duration
	tint    float64
}

// NewRippleScene creates a ripple field.
func NewRippleScene(seed int64) *RippleScene {
	return &RippleScene{rng: rand.New(rand.NewSource(seed))}
}

func (scene *RippleScene) Step(_, delta time.Duration, progress float64) {
	kept := scene.ripples[:0]
	for _, current := range scene.ripples {
		current.age += delta
		if current.age < rippleLife {
			kept = append(kept, current)
		}
	}
	scene.ripples = kept

	scene.spawn -= delta
	for scene.spawn <= 0 {
		scene.ripples = append(scene.ripples, ripple{
			x:    float32(scene.rng.Float64() * sceneWidth),
			y:    float32(scene.rng.Float64() * sceneHeight),
			size: float32(60 + scene.rng.Float64()*90),
		})
		scene.spawn += rippleInterval
	}
	scene.tint = progress
}

func (scene *RippleScene) Draw(dst *image.RGBA) {
	fillBackground(dst, color.RGBA{R: 8, G: uint8(24 + 16*scene.tint), B: 48, A: 255})
	for _, current := range scene.ripples {
		life := float32(seconds(current.age) / seconds(rippleLife))
		alpha := uint8(180 * (1 - life))
		stroke := color.NRGBA{R: 150, G: 210, B: 255, A: alpha}
		strokeCircle(dst, current.x, current.y, current.size*life, 2, stroke)
		strokeCircle(dst, current.x, current.y, current.size*life*0.6, 1.5, stroke)
	}
}

// Len returns the number of live ripples.
func (scene *RippleScene) Len() int {
	return len(scene.ripples)
}

// CandleScene draws a single flickering flame that burns down with progress.
type CandleScene struct {
	rng     *rand.Rand
	flicker float64
	sway    float64
	burn    float64
}

// NewCandleScene creates a candle.
func NewCandleScene(seed int64) *CandleScene {
	return &CandleScene{rng: rand.New(rand.NewSource(seed))}
}

func (scene *CandleScene) Step(elapsed, delta time.Duration, progress float64) {
	t := seconds(elapsed)
	target := 0.85 + 0.1*math.Sin(t*7.3) + 0.05*math.Sin(t*13.1) + 0.06*(scene.rng.Float64()-0.5)
	// Smooth toward target so the flame does not jitter.
	blend := math.Min(1, seconds(delta)*12)
	scene.flicker += (target - scene.flicker) * blend
	scene.sway = 4 * math.Sin(t*1.7)
	scene.burn = progress
}

func (scene *CandleScene) Draw(dst *image.RGBA) {
	fillBackground(dst, color.RGBA{R: 10, G: 6, B: 4, A: 255})

	cx := float32(sceneWidth / 2)
	bodyHeight := float32(110 * (1 - 0.5*scene.burn))
	bodyTop := float32(sceneHeight) - 20 - bodyHeight
	flame := float32(56 * scene.flicker)

	for layer, radius := range []float32{120, 80, 48} {
		alpha := uint8(float64(18+layer*14) * scene.flicker)
		fillCircle(dst, cx, bodyTop-flame*0.45, radius, color.NRGBA{R: 255, G: 150, B: 40, A: alpha})
	}

	body := newRasterizer(dst)
	body.MoveTo(cx-18, bodyTop)
	body.LineTo(cx+18, bodyTop)
	body.LineTo(cx+18, float32(sceneHeight)-20)
	body.LineTo(cx-18, float32(sceneHeight)-20)
	body.ClosePath()
	paint(body, dst, color.RGBA{R: 235, G: 225, B: 205, A: 255})

	tipX := cx + float32(scene.sway)
	tipY := bodyTop - 6 - flame
	outer := newRasterizer(dst)
	outer.MoveTo(cx, bodyTop-4)
	outer.QuadTo(cx-16, bodyTop-flame*0.35, tipX, tipY)
	outer.QuadTo(cx+16, bodyTop-flame*0.35, cx, bodyTop-4)
	outer.ClosePath()
	paint(outer, dst, color.NRGBA{R: 255, G: 170, B: 50, A: 230})

	inner := newRasterizer(dst)
	inner.MoveTo(cx, bodyTop-6)
	inner.QuadTo(cx-7, bodyTop-flame*0.25, (cx+tipX)/2, bodyTop-flame*0.6)
	inner.QuadTo(cx+7, bodyTop-flame*0.25, cx, bodyTop-6)
	inner.ClosePath()
	paint(inner, dst, color.NRGBA{R: 255, G: 240, B: 190, A: 240})
}

// Flicker returns the current flame scale.
func (scene *CandleScene) Flicker() float64 {
	return scene.flicker
}

const cosmosStars = 220

type star struct {
	x, y, z float64
}

// CosmosScene flies through a starfield that speeds up as the session advances.
type CosmosScene struct {
	rng   *rand.Rand
	stars []star
}

// NewCosmosScene creates a starfield.
func NewCosmosScene(seed int64) *CosmosScene {
	scene := &CosmosScene{rng: rand.New(rand.NewSource(seed))}
	scene.stars = make([]star, cosmosStars)
	for index := range scene.stars {
		scene.stars[index] = scene.newStar(scene.rng.Float64())
	}
	return scene
}

func (scene *CosmosScene) newStar(depth float64) star {
	return star{
		x: scene.rng.Float64()*2 - 1,
		y: scene.rng.Float64()*2 - 1,
		z: 0.05 + depth*0.95,
	}
}

func (scene *CosmosScene) Step(_, delta time.Duration, progress float64) {
	speed := 0.15 + 0.45*progress
	for index := range scene.stars {
		scene.stars[index].z -= speed * seconds(delta)
		if scene.stars[index].z <= 0.05 {
			scene.stars[index] = scene.newStar(1)
		}
	}
}

func (scene *CosmosScene) Draw(dst *image.RGBA) {
	fillBackground(dst, color.RGBA{R: 2, G: 2, B: 12, A: 255})
	cx := float64(sceneWidth) / 2
	cy := float64(sceneHeight) / 2
	for _, current := range scene.stars {
		sx := cx + current.x/current.z*cx*0.5
		sy := cy + current.y/current.z*cy*0.5
		if sx < 0 || sy < 0 || sx >= sceneWidth || sy >= sceneHeight {
			continue
		}
		nearness := 1 - current.z
		radius := float32(0.6 + 2.2*nearness)
		alpha := uint8(90 + 165*nearness)
		fillCircle(dst, float32(sx), float32(sy), radius, color.NRGBA{R: 220, G: 230, B: 255, A: alpha})
	}
}

// Depths returns the star depths, nearest values closest to zero.
func (scene *CosmosScene) Depths() []float64 {
	depths := make([]float64, len(scene.stars))
	for index, current := range scene.stars {
		depths[index] = current.z
	}
	return depths
}
