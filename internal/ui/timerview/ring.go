package timerview

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	breathPeriod   = 4 * time.Second
	breathMinScale = 0.9
	ringMinSide    = 240
)

var (
	accentColor = color.NRGBA{R: 94, G: 176, B: 160, A: 255}
	trackColor  = color.NRGBA{R: 60, G: 64, B: 72, A: 255}
)

// Ring is the circular progress indicator. It also serves as the surface
// for the breathing and hue animation styles.
type Ring struct {
	widget.BaseWidget

	mu       sync.Mutex
	progress float64
	hue      float64
	scale    float64

	raster *canvas.Raster
	breath *fyne.Animation
}

// NewRing creates an empty ring.
func NewRing() *Ring {
	ring := &Ring{scale: 1}
	ring.raster = canvas.NewRasterWithPixels(ring.pixel)
	ring.raster.SetMinSize(fyne.NewSize(ringMinSide, ringMinSide))
	ring.ExtendBaseWidget(ring)
	return ring
}

func (ring *Ring) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ring.raster)
}

// SetProgress sets the filled fraction.
func (ring *Ring) SetProgress(fraction float64) {
	ring.mu.Lock()
	ring.progress = math.Max(0, math.Min(1, fraction))
	ring.mu.Unlock()
	fyne.Do(ring.raster.Refresh)
}

// SetHue rotates the accent color by degrees.
func (ring *Ring) SetHue(degrees float64) {
	ring.mu.Lock()
	ring.hue = degrees
	ring.mu.Unlock()
	fyne.Do(ring.raster.Refresh)
}

// SetBreathing starts or stops the slow scale pulse.
func (ring *Ring) SetBreathing(enabled bool) {
	fyne.Do(func() {
		if ring.breath != nil {
			ring.breath.Stop()
			ring.breath = nil
		}
		if !enabled {
			ring.setScale(1)
			return
		}
		ring.breath = fyne.NewAnimation(breathPeriod/2, func(position float32) {
			ring.setScale(1 - (1-breathMinScale)*float64(position))
		})
		ring.breath.AutoReverse = true
		ring.breath.Curve = fyne.AnimationEaseInOut
		ring.breath.RepeatCount = fyne.AnimationRepeatForever
		ring.breath.Start()
	})
}

func (ring *Ring) setScale(scale float64) {
	ring.mu.Lock()
	ring.scale = scale
	ring.mu.Unlock()
	ring.raster.Refresh()
}

func (ring *Ring) pixel(x, y, width, height int) color.Color {
	ring.mu.Lock()
	progress, hue, scale := ring.progress, ring.hue, ring.scale
	ring.mu.Unlock()
	return ringColorAt(x, y, width, height, progress, hue, scale)
}

// ringColorAt shades one pixel of a ring filled clockwise from twelve o'clock.
func ringColorAt(x, y, width, height int, progress, hue, scale float64) color.Color {
	cx := float64(width) / 2
	cy := float64(height) / 2
	radius := math.Min(cx, cy) * 0.85 * scale
	thickness := radius * 0.09
	dx := float64(x) + 0.5 - cx
	dy := float64(y) + 0.5 - cy
	distance := math.Hypot(dx, dy)
	if math.Abs(distance-radius) > thickness/2 {
		return color.Transparent
	}

	angle := math.Atan2(dx, -dy)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	if angle/(2*math.Pi) <= progress && progress > 0 {
		return rotateHue(accentColor, hue)
	}
	return trackColor
}

// rotateHue shifts base around the color wheel by degrees.
func rotateHue(base color.NRGBA, degrees float64) color.NRGBA {
	if degrees == 0 {
		return base
	}
	h, s, v := toHSV(base)
	h = math.Mod(h+degrees, 360)
	if h < 0 {
		h += 360
	}
	rotated := fromHSV(h, s, v)
	rotated.A = base.A
	return rotated
}

func toHSV(c color.NRGBA) (h, s, v float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255
	high := math.Max(r, math.Max(g, b))
	low := math.Min(r, math.Min(g, b))
	delta := high - low
	v = high
	if high > 0 {
		s = delta / high
	}
	switch {
	case delta == 0:
		h = 0
	case high == r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case high == g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

func fromHSV(h, s, v float64) color.NRGBA {
	chroma := v * s
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - chroma
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}
	return color.NRGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}
