package frontend

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/cory-johannsen/taktiks/internal/battle"
	"github.com/cory-johannsen/taktiks/internal/game/action"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
)

var (
	colorBackground = color.RGBA{0x1c, 0x24, 0x1c, 0xff}
	colorPanel      = color.RGBA{0x10, 0x10, 0x18, 0xd0}
	colorRow        = color.RGBA{0x30, 0x38, 0x50, 0xff}
	colorSelected   = color.RGBA{0xc8, 0x8c, 0x28, 0xff}
	colorDisabled   = color.RGBA{0x40, 0x40, 0x40, 0xff}
	colorBorder     = color.RGBA{0x90, 0x98, 0xb0, 0xff}
	colorSeat1      = color.RGBA{0x40, 0x80, 0xe0, 0xff}
	colorSeat2      = color.RGBA{0xe0, 0x50, 0x40, 0xff}
	colorLife       = color.RGBA{0x40, 0xd0, 0x60, 0xff}
	colorTime       = color.RGBA{0xe0, 0xe0, 0x60, 0xff}
	colorDamage     = color.RGBA{0xb0, 0x20, 0x20, 0xe0}
	colorHeal       = color.RGBA{0x20, 0x90, 0x40, 0xe0}
)

const (
	unitRadius = 18
	barWidth   = 40
	barHeight  = 4
	textInset  = 8
	// noticeRise is how far a notice drifts upward per second.
	noticeRise = 24
	glyphWidth = 6
)

// canvas draws menu rows and units onto an ebiten image.
type canvas struct {
	dst *ebiten.Image
}

func (c canvas) FillPanel(r geom.Rect) {
	vector.DrawFilledRect(c.dst, float32(r.Min.X), float32(r.Min.Y), float32(r.Size.X), float32(r.Size.Y), colorPanel, false)
}

func (c canvas) DrawRow(r action.Row) {
	fill := colorRow
	switch {
	case !r.Enabled:
		fill = colorDisabled
	case r.Selected:
		fill = colorSelected
	}
	x, y, w, h := float32(r.Rect.Min.X), float32(r.Rect.Min.Y), float32(r.Rect.Size.X), float32(r.Rect.Size.Y)
	vector.DrawFilledRect(c.dst, x+1, y+1, w-2, h-2, fill, false)
	vector.StrokeRect(c.dst, x+1, y+1, w-2, h-2, 1, colorBorder, false)
	indent := textInset
	if !r.Header {
		indent *= 3
	}
	ebitenutil.DebugPrintAt(c.dst, r.Label, int(r.Rect.Min.X)+indent, int(r.Rect.Min.Y+r.Rect.Size.Y/2)-8)
}

func (c canvas) drawUnit(u *unit.Unit, acting bool) {
	p := u.Position()
	x, y := float32(p.X), float32(p.Y)
	clr := colorSeat1
	if u.Seat == 2 {
		clr = colorSeat2
	}
	if u.IsDead() {
		clr = colorDisabled
	}
	vector.DrawFilledCircle(c.dst, x, y, unitRadius, clr, true)
	if acting {
		vector.StrokeCircle(c.dst, x, y, unitRadius+4, 2, colorSelected, true)
	}
	c.bar(x-barWidth/2, y+unitRadius+4, float32(u.Life())/float32(u.FullLife), colorLife)
	c.bar(x-barWidth/2, y+unitRadius+4+barHeight+2, float32(u.Time()), colorTime)
	ebitenutil.DebugPrintAt(c.dst, u.Name, int(x)-barWidth/2, int(y)-unitRadius-18)
}

func (c canvas) bar(x, y, frac float32, clr color.Color) {
	vector.DrawFilledRect(c.dst, x, y, barWidth, barHeight, colorDisabled, false)
	vector.DrawFilledRect(c.dst, x, y, barWidth*frac, barHeight, clr, false)
}

func (c canvas) banner(text string, width, height int) {
	vector.DrawFilledRect(c.dst, 0, float32(height/2-30), float32(width), 60, colorPanel, false)
	ebitenutil.DebugPrintAt(c.dst, text, width/2-len(text)*3, height/2-8)
}

// notice draws a resolved amount above where it landed, drifting up as it ages.
func (c canvas) notice(n battle.Notice) {
	x := float32(n.Position.X) - float32(len(n.Text)*glyphWidth)/2
	y := float32(n.Position.Y) - unitRadius - 40 - float32(n.Age*noticeRise)
	if !n.Missed {
		clr := colorDamage
		if n.Heal {
			clr = colorHeal
		}
		vector.DrawFilledRect(c.dst, x-3, y-1, float32(len(n.Text)*glyphWidth)+6, 18, clr, false)
	}
	ebitenutil.DebugPrintAt(c.dst, n.Text, int(x), int(y))
}
