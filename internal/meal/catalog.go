package meal

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Predicate narrows a catalog draw. A nil Predicate matches everything.
type Predicate func(Entry) bool

type catalogFile struct {
	Entries []catalogEntry `yaml:"entries"`
}

type catalogEntry struct {
	Slot    SlotType `yaml:"slot"`
	Cuisine string   `yaml:"cuisine"`
	Entry   `yaml:",inline"`
}

// Catalog is a read-only pool of dishes grouped by slot, with an optional
// cuisine-tagged subset per slot. It is safe for concurrent use.
type Catalog struct {
	base     map[SlotType][]Entry
	cuisines map[string]map[SlotType][]Entry

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCatalog builds the catalog shipped with the binary.
func NewCatalog(rng *rand.Rand) (*Catalog, error) {
	return ParseCatalog(defaultCatalog, rng)
}

// LoadCatalog reads a catalog from a YAML file on disk.
func LoadCatalog(path string, rng *rand.Rand) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data, rng)
}

// ParseCatalog decodes YAML catalog data. Every slot needs at least one
// untagged entry so a draw can never come back empty.
func ParseCatalog(data []byte, rng *rand.Rand) (*Catalog, error) {
	if rng == nil {
		return nil, fmt.Errorf("catalog requires a random source")
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	validate := validator.New()
	c := &Catalog{
		base:     make(map[SlotType][]Entry),
		cuisines: make(map[string]map[SlotType][]Entry),
		rng:      rng,
	}
	for i, ce := range file.Entries {
		if !isSlot(ce.Slot) {
			return nil, fmt.Errorf("catalog entry %d (%q): unknown slot %q", i, ce.Title, ce.Slot)
		}
		if err := validate.Struct(ce.Entry); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%q) is invalid: %w", i, ce.Title, err)
		}

		cuisine := normalizeCuisine(ce.Cuisine)
		if cuisine == "" {
			c.base[ce.Slot] = append(c.base[ce.Slot], ce.Entry.Clone())
			continue
		}
		if c.cuisines[cuisine] == nil {
			c.cuisines[cuisine] = make(map[SlotType][]Entry)
		}
		c.cuisines[cuisine][ce.Slot] = append(c.cuisines[cuisine][ce.Slot], ce.Entry.Clone())
	}

	for _, s := range Slots {
		if len(c.base[s]) == 0 {
			return nil, fmt.Errorf("catalog has no %s entries", s)
		}
	}
	return c, nil
}

// SampleBySlot picks uniformly among the slot's entries that satisfy pred.
// When nothing matches, the whole slot pool is used instead.
func (c *Catalog) SampleBySlot(slot SlotType, pred Predicate) Entry {
	pool, ok := c.base[slot]
	if !ok {
		pool = c.base[Breakfast]
	}

	candidates := pool
	if pred != nil {
		var matched []Entry
		for _, e := range pool {
			if pred(e) {
				matched = append(matched, e)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		}
	}
	return c.pick(candidates).Clone()
}

// SampleByCuisine picks among the entries tagged with cuisine for slot.
// The boolean is false when the pair has no tagged entries.
func (c *Catalog) SampleByCuisine(slot SlotType, cuisine string) (Entry, bool) {
	pool := c.cuisines[normalizeCuisine(cuisine)][slot]
	if len(pool) == 0 {
		return Entry{}, false
	}
	return c.pick(pool).Clone(), true
}

// HasCuisine reports whether any slot carries entries tagged with cuisine.
func (c *Catalog) HasCuisine(cuisine string) bool {
	_, ok := c.cuisines[normalizeCuisine(cuisine)]
	return ok
}

// Cuisines lists the known cuisine tags in alphabetical order.
func (c *Catalog) Cuisines() []string {
	names := make([]string, 0, len(c.cuisines))
	for name := range c.cuisines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns copies of the untagged entries for slot.
func (c *Catalog) Entries(slot SlotType) []Entry {
	out := make([]Entry, 0, len(c.base[slot]))
	for _, e := range c.base[slot] {
		out = append(out, e.Clone())
	}
	return out
}

func (c *Catalog) pick(pool []Entry) Entry {
	c.mu.Lock()
	i := c.rng.Intn(len(pool))
	c.mu.Unlock()
	return pool[i]
}

func isSlot(s SlotType) bool {
	for _, known := range Slots {
		if s == known {
			return true
		}
	}
	return false
}

func normalizeCuisine(cuisine string) string {
	return strings.ToLower(strings.TrimSpace(cuisine))
}
