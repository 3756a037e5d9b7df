package console

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/move"
)

const barWidth = 12

// RenderSnapshot formats a combat snapshot as colored terminal text.
func RenderSnapshot(snap combat.Snapshot) string {
	var b strings.Builder

	b.WriteString("\r\n")
	b.WriteString(Colorf(BrightYellow, "== Beat %d ==", snap.Beat+1))
	b.WriteString("  ")
	b.WriteString(Colorf(heatColor(snap.Heat), "Heat x%.2f", snap.Heat))
	b.WriteString("\r\n")

	b.WriteString(renderCombatant(snap.Player))
	for _, a := range snap.Allies {
		b.WriteString(renderCombatant(a))
	}
	if len(snap.Enemies) > 0 {
		b.WriteString(Colorize(Cyan, "Enemies:"))
		b.WriteString("\r\n")
		for _, e := range snap.Enemies {
			b.WriteString(renderCombatant(e))
		}
	}

	if snap.PlayerBusy {
		b.WriteString(Colorf(Dim, "%s is busy.", snap.Player.Name))
		b.WriteString("\r\n")
		return b.String()
	}
	if len(snap.Moves) > 0 {
		b.WriteString(Colorize(Cyan, "Moves:"))
		b.WriteString("\r\n")
		for _, m := range snap.Moves {
			b.WriteString(renderMove(m))
		}
	}
	return b.String()
}

func renderCombatant(v combat.CombatantView) string {
	var b strings.Builder
	name := v.Name
	if v.Player {
		name = Colorize(Bold, name)
	}
	fmt.Fprintf(&b, "  %-18s HP %s %3d/%-3d  FT %s %2d/%-2d",
		name,
		Bar(v.HP, v.MaxHP, barWidth, healthColor(v.HP, v.MaxHP)), v.HP, v.MaxHP,
		Bar(v.Fatigue, v.MaxFatigue, barWidth/2, Blue), v.Fatigue, v.MaxFatigue,
	)
	if v.Distance >= 0 {
		fmt.Fprintf(&b, "  %s", Colorf(White, "@%.1f", v.Distance))
	}
	if v.Using != "" {
		fmt.Fprintf(&b, "  %s", Colorf(Magenta, "(%s)", v.Using))
	}
	if len(v.Statuses) > 0 {
		fmt.Fprintf(&b, "  %s", Colorf(Yellow, "[%s]", strings.Join(v.Statuses, ", ")))
	}
	b.WriteString("\r\n")
	return b.String()
}

func renderMove(m combat.MoveView) string {
	label := fmt.Sprintf("%d) %-12s %2d ft", m.Index+1, m.Name, m.Cost)
	if m.Stage != move.StageReady {
		label += fmt.Sprintf("  %s %d", m.Stage, m.BeatsLeft)
	}
	if !m.Legal {
		return "  " + Colorize(Dim, label) + "\r\n"
	}
	return "  " + Colorize(BrightWhite, label) + "\r\n"
}

func heatColor(h float64) string {
	switch {
	case h >= 3:
		return BrightRed
	case h > 1:
		return BrightYellow
	default:
		return White
	}
}

// RenderTargets lists target options nearest first.
func RenderTargets(opts []combat.TargetOption) string {
	var b strings.Builder
	b.WriteString(Colorize(Cyan, "Targets:"))
	b.WriteString("\r\n")
	for i, o := range opts {
		fmt.Fprintf(&b, "  %d) %-18s %s\r\n", i+1, o.Name, Colorf(White, "@%.1f", o.Distance))
	}
	return b.String()
}
