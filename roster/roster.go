// Package roster turns a crew roster into a polestar universe and the tagged
// entities a search runs against.
package roster

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	search "github.com/getpup/polestar-search"
)

// Item categories produced by Build.
const (
	CategoryRarity = "rarity"
	CategorySkill  = "skill"
	CategoryTrait  = "trait"
)

// ErrInvalidRoster indicates the roster file could not be decoded or failed validation.
var ErrInvalidRoster = errors.New("invalid roster")

// Crew is one roster record.
type Crew struct {
	Symbol string   `yaml:"symbol" validate:"required"`
	Name   string   `yaml:"name"`
	Rarity int      `yaml:"rarity" validate:"gte=1,lte=5"`
	Skills []string `yaml:"skills" validate:"dive,required"`
	Traits []string `yaml:"traits" validate:"dive,required"`
	Owned  bool     `yaml:"owned"`
}

type file struct {
	Crew []Crew `yaml:"crew" validate:"unique=Symbol,dive"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func rosterValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Load decodes a YAML roster of the form
//
//	crew:
//	  - symbol: kirk_captain
//	    rarity: 5
//	    skills: [command_skill, diplomacy_skill]
//	    traits: [human, federation]
//	    owned: true
//
// Unknown fields are rejected.
func Load(r io.Reader) ([]Crew, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}
	if err := rosterValidator().Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}
	return f.Crew, nil
}

// LoadFile reads a YAML roster from path.
func LoadFile(path string) ([]Crew, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	return Load(fh)
}

// Options selects which polestars make up the universe.
type Options struct {
	Rarity bool
	Skills bool
	Traits bool

	// Exclude lists crew symbols that disqualify any combination unlocking them.
	Exclude []string
}

// DefaultOptions enables every polestar kind.
func DefaultOptions() Options {
	return Options{Rarity: true, Skills: true, Traits: true}
}

// Domain is the input of a search derived from a roster.
type Domain struct {
	Universe            []search.Item
	Entities            []search.Entity
	ExclusiveCategories []string
}

// RunConfig returns a run configuration for k-combinations over the domain.
func (d Domain) RunConfig(k int) search.RunConfig {
	return search.RunConfig{
		Universe:            d.Universe,
		Entities:            d.Entities,
		ExclusiveCategories: d.ExclusiveCategories,
		K:                   k,
	}
}

// RaritySymbol returns the polestar symbol of a rarity tier, e.g. "rarity:5".
func RaritySymbol(rarity int) string {
	return CategoryRarity + ":" + strconv.Itoa(rarity)
}

// Build derives the universe and the tagged entities from crew.
//
// The universe holds every distinct enabled polestar ordered rarity first
// (ascending), then skills, then traits (each alphabetical). Crew listed in
// opts.Exclude are excluded, owned crew are included and everyone else is
// unowned. Rarity polestars form an exclusive category since a crew member
// has exactly one rarity.
func Build(crew []Crew, opts Options) Domain {
	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, s := range opts.Exclude {
		excluded[strings.TrimSpace(s)] = struct{}{}
	}

	rarities := map[int]struct{}{}
	skills := map[string]struct{}{}
	traits := map[string]struct{}{}

	entities := make([]search.Entity, 0, len(crew))
	for _, c := range crew {
		var attrs []string
		if opts.Rarity {
			rarities[c.Rarity] = struct{}{}
			attrs = append(attrs, RaritySymbol(c.Rarity))
		}
		if opts.Skills {
			for _, s := range c.Skills {
				skills[s] = struct{}{}
				attrs = append(attrs, s)
			}
		}
		if opts.Traits {
			for _, t := range c.Traits {
				traits[t] = struct{}{}
				attrs = append(attrs, t)
			}
		}

		disposition := search.DispositionUnowned
		if _, ok := excluded[c.Symbol]; ok {
			disposition = search.DispositionExclude
		} else if c.Owned {
			disposition = search.DispositionInclude
		}

		entities = append(entities, search.Entity{
			Symbol:      c.Symbol,
			Name:        c.Name,
			Rarity:      c.Rarity,
			Attributes:  attrs,
			Disposition: disposition,
		})
	}

	var universe []search.Item
	seen := map[string]struct{}{}
	add := func(symbol, category string) {
		if _, ok := seen[symbol]; ok {
			return
		}
		seen[symbol] = struct{}{}
		universe = append(universe, search.Item{Symbol: symbol, Category: category})
	}

	for _, r := range sortedInts(rarities) {
		add(RaritySymbol(r), CategoryRarity)
	}
	for _, s := range sortedKeys(skills) {
		add(s, CategorySkill)
	}
	for _, t := range sortedKeys(traits) {
		add(t, CategoryTrait)
	}

	d := Domain{Universe: universe, Entities: entities}
	if opts.Rarity {
		d.ExclusiveCategories = []string{CategoryRarity}
	}
	return d
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedInts(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
