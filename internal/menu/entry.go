package menu

import (
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
)

// Category returns the tag of the group the entry belongs to.
func (e *Entry) Category() Category { return e.group.category }

// Group returns the group the entry belongs to.
func (e *Entry) Group() *Group { return e.group }

// Owner returns the unit whose menu holds the entry.
func (e *Entry) Owner() *unit.Unit { return e.menu.owner }

// IsHeader reports whether the entry is a group header rather than a leaf command.
func (e *Entry) IsHeader() bool { return e.command == nil }

// Command returns the underlying command of a leaf, or nil for a header.
func (e *Entry) Command() *unit.Command { return e.command }

// Label is the text drawn on the row.
func (e *Entry) Label() string {
	if e.command == nil {
		return e.group.category.String()
	}
	return e.command.Name
}

// Position returns the top-left corner assigned by the last layout pass.
func (e *Entry) Position() geom.Vec2 { return e.position }

// Rect returns the row rectangle from the last layout pass.
func (e *Entry) Rect() geom.Rect {
	l := e.menu.layout
	return geom.Rect{Min: e.position, Size: geom.V(l.ItemWidth, l.RowHeight)}
}

// Selected reports whether a header is expanded or a leaf is armed.
func (e *Entry) Selected() bool {
	if e.command == nil {
		return e.menu.expanded == e.group.index
	}
	return e.menu.armed == e
}

// Enabled reports whether touching the row can change state. Headers are always
// enabled; a leaf follows its command.
func (e *Entry) Enabled() bool {
	if e.command == nil {
		return true
	}
	return e.command.Enabled()
}

// Category returns the group tag.
func (g *Group) Category() Category { return g.category }

// Header returns the group's own row.
func (g *Group) Header() *Entry { return g.header }

// Children returns the leaf rows in catalog order.
func (g *Group) Children() []*Entry { return append([]*Entry(nil), g.children...) }

// Expanded reports whether g is the expanded group.
func (g *Group) Expanded() bool { return g.header.Selected() }
