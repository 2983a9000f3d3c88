package render

import (
	"sync"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/config"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/protocol"
)

// FieldScale is the doubling factor for the grid: every 8 players both
// dimensions double, quadrupling the visible area.
func FieldScale(playerCount int) int {
	return 1 << (playerCount / config.FieldScaleThreshold)
}

// Scene owns everything the frame loop reads: the latest authoritative
// snapshot, the decorative particle set and the grid geometry. Snapshots
// arrive from the network goroutine while the frame loop draws, so access
// is serialized by a mutex.
type Scene struct {
	mu        sync.Mutex
	state     *protocol.State
	particles []Particle
	gridW     int
	gridH     int
	cell      int
	running   bool
}

func NewScene() *Scene {
	return &Scene{
		gridW: config.BaseGridW,
		gridH: config.BaseGridH,
		cell:  config.CellSize,
	}
}

// Start arms the frame loop. Frames advance and draw only while running.
func (s *Scene) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
}

// Stop takes effect before the next frame: once it returns, Advance and
// Draw are no-ops. Stopping an already stopped scene does nothing.
func (s *Scene) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scene) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// UpdateState replaces the held snapshot wholesale. A snapshot carrying grid
// dimensions different from the current ones resizes the surface before the
// next draw.
func (s *Scene) UpdateState(state *protocol.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if state != nil && state.GridW > 0 && state.GridH > 0 {
		s.gridW = state.GridW
		s.gridH = state.GridH
	}
}

// UpdateFieldSize recomputes grid dimensions from the player count.
func (s *Scene) UpdateFieldSize(playerCount int) {
	scale := FieldScale(playerCount)
	s.mu.Lock()
	s.gridW = config.BaseGridW * scale
	s.gridH = config.BaseGridH * scale
	s.mu.Unlock()
}

// Size reports the drawing surface in pixels.
func (s *Scene) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gridW * s.cell, s.gridH * s.cell
}

// GridSize reports the current grid in cells.
func (s *Scene) GridSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gridW, s.gridH
}

// Snapshot returns the currently held state, which may be nil before the
// first server tick.
func (s *Scene) Snapshot() *protocol.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Advance runs one frame of local simulation: particle motion and lifetime.
// The authoritative snapshot is never touched here.
func (s *Scene) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.advanceParticles()
}
