package menu

import "github.com/cory-johannsen/taktiks/internal/game/geom"

// Relayout assigns row positions if the layout is dirty. Rows are stacked from
// Origin.Y in category order, with the expanded group's children directly under its
// header.
//
// Postcondition: Returns true iff positions were recomputed; Dirty() is false.
func (m *Menu) Relayout() bool {
	if !m.dirty {
		return false
	}
	l := m.layout
	m.rows = m.rows[:0]
	row := 0
	place := func(e *Entry) {
		e.position = geom.V(l.Origin.X, l.Origin.Y+float64(row)*l.RowHeight)
		m.rows = append(m.rows, e)
		row++
	}
	for i, g := range m.groups {
		place(g.header)
		if i == m.expanded {
			for _, c := range g.children {
				place(c)
			}
		}
	}
	m.dirty = false
	return true
}

// Rows returns the visible rows from the last layout pass, top to bottom.
func (m *Menu) Rows() []*Entry { return append([]*Entry(nil), m.rows...) }

// VisibleHeight returns visibleRows * RowHeight for the last layout pass.
func (m *Menu) VisibleHeight() float64 {
	return float64(len(m.rows)) * m.layout.RowHeight
}

// Bounds is the touch area of the menu: X in [Origin.X, Origin.X+ItemWidth) and
// Y in [Origin.Y, ScreenHeight).
func (m *Menu) Bounds() geom.Rect {
	l := m.layout
	return geom.R(l.Origin.X, l.Origin.Y, l.ItemWidth, l.ScreenHeight-l.Origin.Y)
}

// Panel is the background rectangle: from PanelTop down to the bottom of the last
// visible row.
func (m *Menu) Panel() geom.Rect {
	l := m.layout
	top := min(l.PanelTop, l.Origin.Y)
	bottom := l.Origin.Y + m.VisibleHeight()
	return geom.R(l.Origin.X, top, l.ItemWidth, bottom-top)
}

// Hit is the result of a hit-test.
type Hit struct {
	// Inside is true when the point lies within Bounds.
	Inside bool
	// Entry is the touched row, or nil.
	Entry *Entry
}

// HitTest relayouts if needed, then finds the row under p. Group headers are tested
// first in category order, then the expanded group's children; the first match wins.
//
// Postcondition: Entry != nil implies Inside; a point on the boundary between two rows
// belongs to the lower row.
func (m *Menu) HitTest(p geom.Vec2) Hit {
	if !m.Bounds().Contains(p) {
		return Hit{}
	}
	m.Relayout()
	for _, g := range m.groups {
		if g.header.Rect().Contains(p) {
			return Hit{Inside: true, Entry: g.header}
		}
	}
	if g := m.Expanded(); g != nil {
		for _, c := range g.children {
			if c.Rect().Contains(p) {
				return Hit{Inside: true, Entry: c}
			}
		}
	}
	return Hit{Inside: true}
}
