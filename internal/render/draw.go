package render

import (
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	gridLineColor = color.RGBA{R: 10, G: 10, B: 10, A: 10} // 4% white on black
	foodColor     = color.RGBA{R: 255, G: 82, B: 82, A: 255}
	foodGlint     = color.RGBA{R: 178, G: 178, B: 178, A: 178}
	eyeWhite      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	eyePupil      = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Draw renders one frame: grid, particles, then food and snakes once a
// snapshot is held. Draws nothing while stopped.
func (s *Scene) Draw(screen *ebiten.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	screen.Clear()
	s.drawGrid(screen)
	s.drawParticles(screen)

	if s.state != nil {
		s.drawFood(screen)
		s.drawSnakes(screen)
	}
}

func (s *Scene) drawGrid(screen *ebiten.Image) {
	w := float32(s.gridW * s.cell)
	h := float32(s.gridH * s.cell)
	step := float32(s.cell)

	for x := float32(0); x <= w; x += step {
		vector.StrokeLine(screen, x, 0, x, h, 1, gridLineColor, false)
	}
	for y := float32(0); y <= h; y += step {
		vector.StrokeLine(screen, 0, y, w, y, 1, gridLineColor, false)
	}
}

func (s *Scene) drawParticles(screen *ebiten.Image) {
	for _, p := range s.particles {
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), 3, scaled(p.Color, p.alpha()), true)
	}
}

func (s *Scene) drawFood(screen *ebiten.Image) {
	// Radius oscillates on a 200ms period so food reads as alive.
	pulse := 4 + math.Sin(float64(time.Now().UnixMilli())/200)*2
	cell := float64(s.cell)

	for _, f := range s.state.Foods {
		cx := (float64(f.X) + 0.5) * cell
		cy := (float64(f.Y) + 0.5) * cell
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(pulse), foodColor, true)
		vector.DrawFilledCircle(screen, float32(cx-1), float32(cy-1), 1.5, foodGlint, true)
	}
}

func (s *Scene) drawSnakes(screen *ebiten.Image) {
	cell := float32(s.cell)

	for _, p := range s.state.Players {
		if !p.Alive || len(p.Snake) == 0 {
			continue
		}

		headColor := ParseColor(p.Color.Head)
		bodyColor := ParseColor(p.Color.Body)

		// Head-first: segment 0 gets the head color and eyes.
		for i, seg := range p.Snake {
			col := bodyColor
			if i == 0 {
				col = headColor
			}
			vector.DrawFilledRect(screen,
				float32(seg.X)*cell+1.5,
				float32(seg.Y)*cell+1.5,
				cell-3,
				cell-3,
				col, false)

			if i == 0 {
				s.drawEyes(screen, seg.X, seg.Y)
			}
		}
	}
}

func (s *Scene) drawEyes(screen *ebiten.Image, x, y int) {
	cell := float32(s.cell)
	const eyeOffset = 5

	ex1 := float32(x)*cell + eyeOffset
	ey := float32(y)*cell + eyeOffset
	ex2 := float32(x)*cell + cell - eyeOffset

	vector.DrawFilledCircle(screen, ex1, ey, 2, eyeWhite, true)
	vector.DrawFilledCircle(screen, ex2, ey, 2, eyeWhite, true)
	vector.DrawFilledCircle(screen, ex1, ey, 0.8, eyePupil, true)
	vector.DrawFilledCircle(screen, ex2, ey, 0.8, eyePupil, true)
}
