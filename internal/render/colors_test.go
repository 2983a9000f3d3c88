package render

import (
	"image/color"
	"testing"
)

func TestParseColor_Hex(t *testing.T) {
	got := ParseColor("#7C4DFF")
	want := color.RGBA{R: 0x7C, G: 0x4D, B: 0xFF, A: 255}
	if got != want {
		t.Fatalf("ParseColor(#7C4DFF) = %v, want %v", got, want)
	}
}

func TestParseColor_HSLA(t *testing.T) {
	// hsla(0,100%,50%) is pure red.
	got := ParseColor("hsla(0,100%,50%,1)")
	if got.R != 255 || got.G != 0 || got.B != 0 || got.A != 255 {
		t.Fatalf("ParseColor(red hsla) = %v", got)
	}

	// Alpha carries through.
	got = ParseColor("hsla(0,100%,50%,0.5)")
	if got.A != 127 {
		t.Fatalf("half-alpha hsla: A = %d, want 127", got.A)
	}
}

func TestParseColor_HSLGrey(t *testing.T) {
	// Zero saturation collapses to lightness on every channel.
	got := ParseColor("hsl(123,0%,50%)")
	if got.R != got.G || got.G != got.B {
		t.Fatalf("desaturated hsl should be grey, got %v", got)
	}
}

func TestParseColor_GarbageFallsBackToWhite(t *testing.T) {
	want := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, s := range []string{"", "blurple", "#12", "hsla(", "#GGGGGG"} {
		if got := ParseColor(s); got != want {
			t.Fatalf("ParseColor(%q) = %v, want white fallback", s, got)
		}
	}
}

func TestScaled_LinearFade(t *testing.T) {
	c := color.RGBA{R: 200, G: 100, B: 50, A: 255}

	full := scaled(c, 1)
	if full != c {
		t.Fatalf("alpha 1 changed the color: %v", full)
	}

	none := scaled(c, 0)
	if none != (color.RGBA{}) {
		t.Fatalf("alpha 0 should zero the color, got %v", none)
	}

	half := scaled(c, 0.5)
	if half.R != 100 || half.A != 127 {
		t.Fatalf("alpha 0.5: got %v", half)
	}
}
