// Package menu lays out a unit's command menu and hit-tests touches against it.
//
// A Menu is a vertical stack of rows: one header row per Group in category order, with
// the children of the single expanded group inserted directly beneath its header.
// Selection is held by the Menu as one expanded group and one armed leaf, so at most
// one of each can ever be selected.
//
// Menu is not safe for concurrent use; its owner serializes access.
package menu

import (
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
)

// Category tags a top-level group. Groups are always laid out in this order.
type Category int

const (
	CategoryMove Category = iota
	CategoryAttack
	CategorySkills
	CategoryItems
)

// Categories lists every category in layout order.
var Categories = []Category{CategoryMove, CategoryAttack, CategorySkills, CategoryItems}

// String returns the header label for the category.
func (c Category) String() string {
	switch c {
	case CategoryMove:
		return "Move"
	case CategoryAttack:
		return "Attack"
	case CategorySkills:
		return "Skills"
	case CategoryItems:
		return "Items"
	default:
		return "Unknown"
	}
}

// Layout is the fixed geometry of one menu.
type Layout struct {
	// Origin is the top-left corner of the first row.
	Origin geom.Vec2
	// RowHeight is the height of every row.
	RowHeight float64
	// ItemWidth is the width of every row.
	ItemWidth float64
	// ScreenHeight bounds the menu's touch area from below.
	ScreenHeight float64
	// PanelTop is where the drawn background panel starts; it may sit above Origin.Y.
	PanelTop float64
}

// Entry is one row: a group header or a leaf command.
type Entry struct {
	menu     *Menu
	group    *Group
	command  *unit.Command
	position geom.Vec2
}

// Group is a top-level category row and its ordered leaf children.
type Group struct {
	category Category
	header   *Entry
	children []*Entry
	index    int
}

// Menu holds one unit's groups and their selection.
type Menu struct {
	owner  *unit.Unit
	layout Layout
	groups []*Group

	// expanded is the index of the expanded group, or -1.
	expanded int
	armed    *Entry

	dirty bool
	rows  []*Entry
}

// New builds the menu for u: Move (no children), Attack, Skills and Items groups whose
// children follow the unit's catalog order. The group and row sets never change after
// construction.
//
// Precondition: u must be non-nil; layout.RowHeight and layout.ItemWidth > 0.
// Postcondition: No group is expanded, no leaf is armed, and the layout is dirty.
func New(u *unit.Unit, layout Layout) *Menu {
	m := &Menu{owner: u, layout: layout, expanded: -1, dirty: true}
	catalogs := map[Category][]*unit.Command{
		CategoryAttack: u.Attacks(),
		CategorySkills: u.Skills(),
		CategoryItems:  u.Items(),
	}
	for i, cat := range Categories {
		g := &Group{category: cat, index: i}
		g.header = &Entry{menu: m, group: g}
		for _, cmd := range catalogs[cat] {
			g.children = append(g.children, &Entry{menu: m, group: g, command: cmd})
		}
		m.groups = append(m.groups, g)
	}
	return m
}

// Owner returns the unit the menu commands.
func (m *Menu) Owner() *unit.Unit { return m.owner }

// Layout returns the menu geometry.
func (m *Menu) Layout() Layout { return m.layout }

// Groups returns the groups in category order.
func (m *Menu) Groups() []*Group { return append([]*Group(nil), m.groups...) }

// Group returns the group for cat.
func (m *Menu) Group(cat Category) *Group {
	for _, g := range m.groups {
		if g.category == cat {
			return g
		}
	}
	return nil
}

// Expanded returns the expanded group, or nil.
func (m *Menu) Expanded() *Group {
	if m.expanded < 0 {
		return nil
	}
	return m.groups[m.expanded]
}

// Armed returns the armed leaf, or nil.
func (m *Menu) Armed() *Entry { return m.armed }

// Expand collapses every group, disarms any leaf, and expands g.
//
// Precondition: g belongs to m.
// Postcondition: Expanded() == g; Armed() == nil; Dirty().
func (m *Menu) Expand(g *Group) {
	m.expanded = g.index
	m.armed = nil
	m.dirty = true
}

// Collapse closes the expanded group and disarms any leaf.
//
// Postcondition: Expanded() == nil; Armed() == nil; Dirty().
func (m *Menu) Collapse() {
	m.expanded = -1
	m.armed = nil
	m.dirty = true
}

// Arm selects leaf e, disarming any other leaf.
//
// Precondition: e is a leaf of the expanded group.
// Postcondition: Armed() == e.
func (m *Menu) Arm(e *Entry) {
	m.armed = e
}

// Disarm clears the armed leaf, leaving the expanded group open.
func (m *Menu) Disarm() {
	m.armed = nil
}

// Dirty reports whether the layout must be recomputed before the next draw or hit-test.
func (m *Menu) Dirty() bool { return m.dirty }

// MarkDirty forces a relayout before the next draw or hit-test.
func (m *Menu) MarkDirty() { m.dirty = true }
