package action

import (
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/menu"
)

// Row is everything a renderer needs to paint one menu row.
type Row struct {
	Label    string
	Rect     geom.Rect
	Category menu.Category
	Header   bool
	Selected bool
	Enabled  bool
}

// Canvas is the rendering surface the manager draws onto.
type Canvas interface {
	FillPanel(r geom.Rect)
	DrawRow(r Row)
}

// Draw paints the menu panel and its visible rows. A disabled manager draws nothing.
func (m *Manager) Draw(c Canvas) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return
	}
	m.relayoutLocked()
	c.FillPanel(m.menu.Panel())
	for _, e := range m.menu.Rows() {
		c.DrawRow(Row{
			Label:    e.Label(),
			Rect:     e.Rect(),
			Category: e.Category(),
			Header:   e.IsHeader(),
			Selected: e.Selected(),
			Enabled:  e.Enabled(),
		})
	}
}
