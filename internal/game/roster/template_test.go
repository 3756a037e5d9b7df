package roster_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/move"
	"github.com/cory-johannsen/skirmish/internal/game/roster"
)

func testMoves(t *testing.T) *move.Registry {
	t.Helper()
	reg := move.NewRegistry()
	require.NoError(t, reg.Register(&move.Def{ID: "slash", Name: "Slash", Targeted: true,
		Effects: []move.EffectSpec{{Kind: move.EffectDamage, Amount: "1d6"}}}))
	require.NoError(t, reg.Register(&move.Def{ID: "mend", Name: "Mend",
		Effects: []move.EffectSpec{{Kind: move.EffectHeal, Amount: "3"}}}))
	return reg
}

func TestLoadTemplateFromBytes(t *testing.T) {
	tmpl, err := roster.LoadTemplateFromBytes([]byte(`
id: goblin
name: Goblin
max_hp: 14
max_fatigue: 6
stats:
  speed: 14
resistances:
  fire: -0.25
moves: [slash]
exp: 10
`))
	require.NoError(t, err)
	assert.Equal(t, roster.KindNPC, tmpl.Kind)
	assert.Equal(t, 14, tmpl.Stats.Speed)
	assert.Equal(t, -0.25, tmpl.Resistances["fire"])
	assert.Equal(t, []string{"slash"}, tmpl.Moves)
}

func TestLoadTemplateFromBytes_UnknownField(t *testing.T) {
	_, err := roster.LoadTemplateFromBytes([]byte("id: x\nname: X\nmax_hp: 3\narmor_class: 12\n"))
	assert.Error(t, err)
}

func TestTemplate_Validate(t *testing.T) {
	valid := func() *roster.Template {
		return &roster.Template{ID: "g", Name: "G", MaxHP: 5}
	}
	tests := []struct {
		name   string
		mutate func(*roster.Template)
	}{
		{"empty id", func(t *roster.Template) { t.ID = "" }},
		{"empty name", func(t *roster.Template) { t.Name = "" }},
		{"bad kind", func(t *roster.Template) { t.Kind = "boss" }},
		{"zero hp", func(t *roster.Template) { t.MaxHP = 0 }},
		{"negative fatigue", func(t *roster.Template) { t.MaxFatigue = -1 }},
		{"negative exp", func(t *roster.Template) { t.Exp = -5 }},
		{"unknown element", func(t *roster.Template) { t.Resistances = map[string]float64{"poison": 0.5} }},
		{"resistance out of range", func(t *roster.Template) { t.Resistances = map[string]float64{"fire": 1.5} }},
	}
	require.NoError(t, valid().Validate())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := valid()
			tc.mutate(tmpl)
			assert.Error(t, tmpl.Validate())
		})
	}
}

func TestRoster_RegisterRejectsDuplicates(t *testing.T) {
	r := roster.New()
	require.NoError(t, r.Register(&roster.Template{ID: "g", Name: "G", MaxHP: 5}))
	assert.Error(t, r.Register(&roster.Template{ID: "g", Name: "G2", MaxHP: 5}))
	assert.Error(t, r.Register(nil))
	assert.Len(t, r.All(), 1)
}

func TestSpawn_NPCGetsFreshIDs(t *testing.T) {
	tmpl := &roster.Template{ID: "goblin", Name: "Goblin", MaxHP: 14, MaxFatigue: 6, Exp: 10,
		Resistances: map[string]float64{"fire": -0.25}, Moves: []string{"slash", "mend"}}
	require.NoError(t, tmpl.Validate())

	a, err := roster.Spawn(tmpl, testMoves(t), zap.NewNop())
	require.NoError(t, err)
	b, err := roster.Spawn(tmpl, testMoves(t), zap.NewNop())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, strings.HasPrefix(a.ID(), "goblin-"))
	assert.Equal(t, combat.KindNPC, a.Kind)
	assert.Equal(t, 14, a.HP)
	assert.Equal(t, 6, a.Fatigue)
	assert.Equal(t, 10, a.Exp)
	assert.Equal(t, -0.25, a.Resist("fire"))
	require.Len(t, a.Moves(), 2)
	assert.Equal(t, "slash", a.Moves()[0].Def.ID)
}

func TestSpawn_PlayerKeepsTemplateID(t *testing.T) {
	tmpl := &roster.Template{ID: "mara", Name: "Mara", Kind: roster.KindPlayer, MaxHP: 40}
	c, err := roster.Spawn(tmpl, testMoves(t), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mara", c.ID())
	assert.True(t, c.IsPlayer())
}

func TestSpawn_UnknownMove(t *testing.T) {
	tmpl := &roster.Template{ID: "g", Name: "G", MaxHP: 5, Moves: []string{"teleport"}}
	_, err := roster.Spawn(tmpl, testMoves(t), zap.NewNop())
	assert.ErrorContains(t, err, "teleport")
}

func TestSpawnParty(t *testing.T) {
	r := roster.New()
	require.NoError(t, r.Register(&roster.Template{ID: "rat", Name: "Rat", MaxHP: 4}))
	require.NoError(t, r.Register(&roster.Template{ID: "mara", Name: "Mara", Kind: roster.KindPlayer, MaxHP: 40}))

	party, err := r.SpawnParty([]string{"rat", "rat"}, testMoves(t), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, party, 2)
	assert.NotEqual(t, party[0].ID(), party[1].ID())

	_, err = r.SpawnParty([]string{"mara"}, testMoves(t), zap.NewNop())
	assert.Error(t, err)
	_, err = r.SpawnParty([]string{"dragon"}, testMoves(t), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rat.yaml"), []byte("id: rat\nname: Rat\nmax_hp: 4\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	r, err := roster.LoadDirectory(dir)
	require.NoError(t, err)
	_, ok := r.Get("rat")
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\nname: Bad\nmax_hp: 0\n"), 0644))
	_, err = roster.LoadDirectory(dir)
	assert.Error(t, err)

	_, err = roster.LoadDirectory("/nonexistent/roster")
	assert.Error(t, err)
}

func TestLoadShippedContent(t *testing.T) {
	moves, err := move.LoadDirectory("../../../content/moves")
	require.NoError(t, err)
	r, err := roster.LoadDirectory("../../../content/roster")
	require.NoError(t, err)
	require.NotEmpty(t, r.All())
	for _, tmpl := range r.All() {
		_, err := roster.Spawn(tmpl, moves, zap.NewNop())
		assert.NoError(t, err, tmpl.ID)
	}
}

func TestProperty_ValidTemplatesSpawnAtFullHealth(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tmpl := &roster.Template{
			ID:         "x",
			Name:       "X",
			MaxHP:      rapid.IntRange(1, 500).Draw(rt, "hp"),
			MaxFatigue: rapid.IntRange(0, 50).Draw(rt, "fatigue"),
		}
		if err := tmpl.Validate(); err != nil {
			rt.Fatalf("valid template rejected: %v", err)
		}
		c, err := roster.Spawn(tmpl, move.NewRegistry(), zap.NewNop())
		if err != nil {
			rt.Fatal(err)
		}
		assert.Equal(rt, c.MaxHP, c.HP)
		assert.Equal(rt, c.MaxFatigue, c.Fatigue)
	})
}
