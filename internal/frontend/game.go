// Package frontend runs the battle in an ebiten window. The left mouse button is cursor
// 0 and each touch gets the lowest free cursor id from 1 up.
package frontend

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/battle"
	"github.com/cory-johannsen/taktiks/internal/config"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/input"
)

// MouseCursor is the cursor id of the left mouse button.
const MouseCursor = 0

// Game implements ebiten.Game.
type Game struct {
	logger *zap.Logger
	cfg    config.Config
	battle *battle.Battle
	hub    *input.Hub
	dt     float64

	mouseDown bool
	mouseAt   geom.Vec2
	touches   map[ebiten.TouchID]touch
	pressed   []ebiten.TouchID
	released  []ebiten.TouchID
}

type touch struct {
	cursor int
	at     geom.Vec2
}

// NewGame creates a Game that feeds pointer input into hub and advances b every frame.
//
// Precondition: logger, b and hub must be non-nil; cfg must be valid.
func NewGame(logger *zap.Logger, cfg config.Config, b *battle.Battle, hub *input.Hub) *Game {
	return &Game{
		logger:  logger.Named("frontend"),
		cfg:     cfg,
		battle:  b,
		hub:     hub,
		dt:      1 / float64(cfg.Battle.TickRate),
		touches: make(map[ebiten.TouchID]touch),
	}
}

// Update polls pointers and advances the battle by one frame.
func (g *Game) Update() error {
	g.pollMouse()
	g.pollTouches()
	g.battle.Tick(g.dt)
	return nil
}

// Layout implements ebiten.Game with a fixed logical screen.
func (g *Game) Layout(int, int) (int, int) {
	return g.cfg.Display.Width, g.cfg.Display.Height
}

// Draw renders units, the acting unit's menu, resolved amounts, and the result banner.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	c := canvas{dst: screen}
	acting := g.battle.Acting()
	for _, u := range g.battle.Units() {
		c.drawUnit(u, u == acting)
	}
	g.battle.Draw(c)
	for _, n := range g.battle.Notices() {
		c.notice(n)
	}
	if w := g.battle.Winner(); w != 0 {
		c.banner(fmt.Sprintf("Player %d wins", w), g.cfg.Display.Width, g.cfg.Display.Height)
	}
}

func (g *Game) pollMouse() {
	x, y := ebiten.CursorPosition()
	p := geom.V(float64(x), float64(y))
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.mouseDown = true
		g.raise(g.hub.RaiseCursorDown(MouseCursor, p))
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.mouseDown = false
		g.raise(g.hub.RaiseCursorUp(MouseCursor, p))
	case g.mouseDown && p != g.mouseAt:
		g.raise(g.hub.RaiseCursorUpdate(MouseCursor, p))
	}
	g.mouseAt = p
}

func (g *Game) pollTouches() {
	g.pressed = inpututil.AppendJustPressedTouchIDs(g.pressed[:0])
	for _, id := range g.pressed {
		x, y := ebiten.TouchPosition(id)
		t := touch{cursor: g.freeCursor(), at: geom.V(float64(x), float64(y))}
		g.touches[id] = t
		g.raise(g.hub.RaiseCursorDown(t.cursor, t.at))
	}
	g.released = inpututil.AppendJustReleasedTouchIDs(g.released[:0])
	for _, id := range g.released {
		t, ok := g.touches[id]
		if !ok {
			continue
		}
		x, y := inpututil.TouchPositionInPreviousTick(id)
		delete(g.touches, id)
		g.raise(g.hub.RaiseCursorUp(t.cursor, geom.V(float64(x), float64(y))))
	}
	for id, t := range g.touches {
		x, y := ebiten.TouchPosition(id)
		p := geom.V(float64(x), float64(y))
		if p == t.at {
			continue
		}
		t.at = p
		g.touches[id] = t
		g.raise(g.hub.RaiseCursorUpdate(t.cursor, p))
	}
}

func (g *Game) freeCursor() int {
	used := make(map[int]bool, len(g.touches))
	for _, t := range g.touches {
		used[t.cursor] = true
	}
	c := MouseCursor + 1
	for used[c] {
		c++
	}
	return c
}

func (g *Game) raise(err error) {
	if err != nil {
		g.logger.Warn("dropping pointer event", zap.Error(err))
	}
}
