package battle

import (
	"strconv"

	"github.com/cory-johannsen/taktiks/internal/game/effect"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
)

const (
	// NoticeLifetime is how many seconds a resolved amount stays on screen.
	NoticeLifetime = 1.5
	maxNotices     = 16
)

// Notice is a resolved command's amount floating over where it landed.
type Notice struct {
	Text     string
	Position geom.Vec2
	Heal     bool
	Missed   bool
	// Age is the seconds since the command resolved.
	Age float64
}

// Record queues a Notice for o and counts it. It is registered with the effect resolver
// and runs on whichever goroutine executed the command.
func (b *Battle) Record(o effect.Outcome) {
	n := Notice{Position: o.Position, Heal: o.Effect == unit.EffectHeal, Missed: o.Missed}
	switch {
	case o.Missed:
		n.Text = "miss"
	case n.Heal:
		n.Text = "+" + strconv.Itoa(o.Applied)
	default:
		n.Text = "-" + strconv.Itoa(o.Applied)
	}
	if o.Target != nil {
		n.Position = o.Target.Position()
	}

	b.noticeMu.Lock()
	defer b.noticeMu.Unlock()
	b.resolved++
	b.notices = append(b.notices, n)
	if len(b.notices) > maxNotices {
		b.notices = b.notices[len(b.notices)-maxNotices:]
	}
}

// Notices returns the notices still on screen, oldest first.
func (b *Battle) Notices() []Notice {
	b.noticeMu.Lock()
	defer b.noticeMu.Unlock()
	return append([]Notice(nil), b.notices...)
}

// Resolved returns how many commands have resolved since the battle began.
func (b *Battle) Resolved() int {
	b.noticeMu.Lock()
	defer b.noticeMu.Unlock()
	return b.resolved
}

func (b *Battle) ageNotices(dt float64) {
	b.noticeMu.Lock()
	defer b.noticeMu.Unlock()
	kept := b.notices[:0]
	for _, n := range b.notices {
		n.Age += dt
		if n.Age < NoticeLifetime {
			kept = append(kept, n)
		}
	}
	b.notices = kept
}
