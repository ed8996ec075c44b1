package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	search "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/evaluator"
)

const sampleRoster = `
crew:
  - symbol: kirk
    name: James T. Kirk
    rarity: 5
    skills: [command_skill, diplomacy_skill]
    traits: [human, federation]
    owned: true
  - symbol: spock
    rarity: 5
    skills: [science_skill, diplomacy_skill]
    traits: [vulcan, federation]
    owned: true
  - symbol: gorkon
    rarity: 4
    skills: [command_skill, diplomacy_skill]
    traits: [klingon]
`

func TestLoad_DecodesRoster(t *testing.T) {
	crew, err := Load(strings.NewReader(sampleRoster))

	require.NoError(t, err)
	require.Len(t, crew, 3)
	assert.Equal(t, "James T. Kirk", crew[0].Name)
	assert.Equal(t, []string{"command_skill", "diplomacy_skill"}, crew[0].Skills)
	assert.True(t, crew[1].Owned)
	assert.False(t, crew[2].Owned)
}

func TestLoad_EmptyInput(t *testing.T) {
	crew, err := Load(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, crew)
}

func TestLoad_RejectsInvalidRosters(t *testing.T) {
	cases := map[string]string{
		"unknown field":    "crew:\n  - symbol: kirk\n    rarity: 5\n    shoe_size: 11\n",
		"missing symbol":   "crew:\n  - rarity: 5\n",
		"rarity too high":  "crew:\n  - symbol: kirk\n    rarity: 6\n",
		"duplicate symbol": "crew:\n  - symbol: kirk\n    rarity: 5\n  - symbol: kirk\n    rarity: 4\n",
		"empty trait":      "crew:\n  - symbol: kirk\n    rarity: 5\n    traits: [\"\"]\n",
		"not yaml":         "crew: [",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidRoster)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRoster), 0o600))

	crew, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, crew, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild_UniverseOrderAndCategories(t *testing.T) {
	crew, err := Load(strings.NewReader(sampleRoster))
	require.NoError(t, err)

	d := Build(crew, DefaultOptions())

	symbols := make([]string, len(d.Universe))
	for i, item := range d.Universe {
		symbols[i] = item.Symbol
	}
	assert.Equal(t, []string{
		"rarity:4", "rarity:5",
		"command_skill", "diplomacy_skill", "science_skill",
		"federation", "human", "klingon", "vulcan",
	}, symbols)
	assert.Equal(t, CategoryRarity, d.Universe[0].Category)
	assert.Equal(t, CategorySkill, d.Universe[2].Category)
	assert.Equal(t, CategoryTrait, d.Universe[8].Category)
	assert.Equal(t, []string{CategoryRarity}, d.ExclusiveCategories)
}

func TestBuild_Dispositions(t *testing.T) {
	crew, err := Load(strings.NewReader(sampleRoster))
	require.NoError(t, err)

	d := Build(crew, Options{Traits: true, Exclude: []string{" spock "}})

	require.Len(t, d.Entities, 3)
	assert.Equal(t, search.DispositionInclude, d.Entities[0].Disposition)
	assert.Equal(t, search.DispositionExclude, d.Entities[1].Disposition)
	assert.Equal(t, search.DispositionUnowned, d.Entities[2].Disposition)
	assert.Equal(t, []string{"human", "federation"}, d.Entities[0].Attributes)
	assert.Empty(t, d.ExclusiveCategories)
}

func TestBuild_DisabledKindsAreLeftOut(t *testing.T) {
	crew, err := Load(strings.NewReader(sampleRoster))
	require.NoError(t, err)

	d := Build(crew, Options{Skills: true})

	require.Len(t, d.Universe, 3)
	for _, item := range d.Universe {
		assert.Equal(t, CategorySkill, item.Category)
	}
	assert.Equal(t, []string{"command_skill", "diplomacy_skill"}, d.Entities[0].Attributes)
}

func TestDomain_RunConfigFeedsEvaluator(t *testing.T) {
	crew, err := Load(strings.NewReader(sampleRoster))
	require.NoError(t, err)
	d := Build(crew, DefaultOptions())

	cfg := d.RunConfig(2)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.K)

	ctx := evaluator.New(cfg.Universe, cfg.Entities, evaluator.Options{
		UnownedBudget:       1,
		ExclusiveCategories: cfg.ExclusiveCategories,
	})

	// rarity:4 with rarity:5 can never hold together
	_, err = ctx.Evaluate([]int{0, 1})
	assert.ErrorIs(t, err, evaluator.ErrCategoryConflict)

	// diplomacy_skill + federation unlocks kirk and spock
	res, err := ctx.Evaluate([]int{3, 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"kirk", "spock"}, res.Unlocks)

	// command_skill + diplomacy_skill unlocks kirk and the unowned gorkon
	res, err = ctx.Evaluate([]int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cost.Unowned)
}

func TestRaritySymbol(t *testing.T) {
	assert.Equal(t, "rarity:5", RaritySymbol(5))
}
