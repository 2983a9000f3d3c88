package render

import (
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// InputPoller is polled once per frame tick; the controls adapter hangs off
// it so input sampling shares the frame cadence.
type InputPoller interface {
	Poll()
}

// Renderer is the ebiten shell around a Scene. The display's refresh drives
// Update/Draw, which keeps render cadence fully decoupled from network tick
// arrival.
type Renderer struct {
	scene *Scene
	input InputPoller
	log   *zap.Logger
}

func NewRenderer(scene *Scene, input InputPoller, log *zap.Logger) *Renderer {
	return &Renderer{scene: scene, input: input, log: log}
}

func (r *Renderer) Scene() *Scene { return r.scene }

func (r *Renderer) Update() error {
	if r.input != nil {
		r.input.Poll()
	}
	r.scene.Advance()
	return nil
}

func (r *Renderer) Draw(screen *ebiten.Image) {
	r.scene.Draw(screen)
}

func (r *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.scene.Size()
}

// Run blocks inside the ebiten main loop until the window closes.
func (r *Renderer) Run() error {
	w, h := r.scene.Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Zmeyka Online")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(true)

	r.log.Info("render loop starting", zap.Int("w", w), zap.Int("h", h))
	return ebiten.RunGame(r)
}
