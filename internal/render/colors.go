package render

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ParseColor understands the two formats the server uses: "#RRGGBB" for
// snake head/body colors and "hsla(h,s%,l%,a)" / "hsl(h,s%,l%)" for particle
// colors. Anything else falls back to white.
func ParseColor(s string) color.RGBA {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "hsla(") || strings.HasPrefix(s, "hsl("):
		return parseHSL(s)
	default:
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
}

func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.RGBA{
		R: uint8(n >> 16),
		G: uint8(n >> 8),
		B: uint8(n),
		A: 255,
	}
}

func parseHSL(s string) color.RGBA {
	open := strings.Index(s, "(")
	closeIdx := strings.LastIndex(s, ")")
	if open < 0 || closeIdx <= open {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}

	parts := strings.Split(s[open+1:closeIdx], ",")
	if len(parts) < 3 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}

	h := parseFloat(parts[0])
	sat := parseFloat(strings.TrimSuffix(strings.TrimSpace(parts[1]), "%")) / 100
	l := parseFloat(strings.TrimSuffix(strings.TrimSpace(parts[2]), "%")) / 100
	a := 1.0
	if len(parts) >= 4 {
		a = parseFloat(parts[3])
	}

	r, g, b := hslToRGB(h, sat, l)
	return color.RGBA{
		R: uint8(r * 255),
		G: uint8(g * 255),
		B: uint8(b * 255),
		A: uint8(a * 255),
	}
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func hslToRGB(h, s, l float64) (float64, float64, float64) {
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	if s == 0 {
		return l, l, l
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// scaled multiplies a color by an alpha factor, premultiplied the way the
// draw layer expects.
func scaled(c color.RGBA, alpha float64) color.RGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(float64(c.A) * alpha),
	}
}
