package controls

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/protocol"
)

var (
	dirUp    = protocol.Vec{X: 0, Y: -1}
	dirDown  = protocol.Vec{X: 0, Y: 1}
	dirLeft  = protocol.Vec{X: -1, Y: 0}
	dirRight = protocol.Vec{X: 1, Y: 0}
)

// One key cluster per local player, split-keyboard style: WASD, TFGH, IJKL
// and the arrow keys.
var schemes = map[string]map[ebiten.Key]protocol.Vec{
	"keyboard1": {
		ebiten.KeyW: dirUp,
		ebiten.KeyS: dirDown,
		ebiten.KeyA: dirLeft,
		ebiten.KeyD: dirRight,
	},
	"keyboard2": {
		ebiten.KeyT: dirUp,
		ebiten.KeyG: dirDown,
		ebiten.KeyF: dirLeft,
		ebiten.KeyH: dirRight,
	},
	"keyboard3": {
		ebiten.KeyI: dirUp,
		ebiten.KeyK: dirDown,
		ebiten.KeyJ: dirLeft,
		ebiten.KeyL: dirRight,
	},
	"keyboard4": {
		ebiten.KeyArrowUp:    dirUp,
		ebiten.KeyArrowDown:  dirDown,
		ebiten.KeyArrowLeft:  dirLeft,
		ebiten.KeyArrowRight: dirRight,
	},
}

// Game is what the keyboard adapter needs from the client facade.
type Game interface {
	IsRunning() bool
	HumanCount() int
	PlayerControl(i int) string
	ChangeDirection(localIndex int, dir protocol.Vec)
}

// Keyboard samples key presses once per frame and dispatches direction
// intents for every locally controlled player.
type Keyboard struct {
	game Game
}

func NewKeyboard(game Game) *Keyboard {
	return &Keyboard{game: game}
}

func (k *Keyboard) Poll() {
	if !k.game.IsRunning() {
		return
	}

	for i := 0; i < k.game.HumanCount(); i++ {
		scheme := schemes[k.game.PlayerControl(i)]
		for key, dir := range scheme {
			if inpututil.IsKeyJustPressed(key) {
				k.game.ChangeDirection(i, dir)
			}
		}
	}
}
