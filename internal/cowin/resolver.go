package cowin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrStateCatalog     = errors.New("state catalog unavailable")
	ErrStateNotFound    = errors.New("state not found")
	ErrDistrictCatalog  = errors.New("district catalog unavailable")
	ErrDistrictNotFound = errors.New("district not found")
	ErrInvalidPattern   = errors.New("invalid district pattern")
)

// ResolvedDistrict is a district id paired with its upstream display name.
type ResolvedDistrict struct {
	Name string
	ID   int
}

// NormalizeName lower-cases s and strips every whitespace rune.
func NormalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(s))
}

type districtEntry struct {
	key      string
	district ResolvedDistrict
}

// DistrictCatalog keeps the districts of one state in upstream order, keyed by
// normalized name.
type DistrictCatalog struct {
	entries []districtEntry
}

func NewDistrictCatalog(districts []Districts) DistrictCatalog {
	index := make(map[string]int, len(districts))
	cat := DistrictCatalog{entries: make([]districtEntry, 0, len(districts))}
	for _, d := range districts {
		key := NormalizeName(d.DistrictName)
		rd := ResolvedDistrict{Name: d.DistrictName, ID: d.DistrictID}
		// A repeated key keeps its first position and takes the later value.
		if i, ok := index[key]; ok {
			cat.entries[i].district = rd
			continue
		}
		index[key] = len(cat.entries)
		cat.entries = append(cat.entries, districtEntry{key: key, district: rd})
	}
	return cat
}

// Keys returns the normalized district names in upstream order.
func (c DistrictCatalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.key
	}
	return keys
}

// Match returns the first district, in upstream order, whose normalized name
// matches pattern at its start. Ambiguous patterns resolve by catalog order.
func (c DistrictCatalog) Match(pattern string) (ResolvedDistrict, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return ResolvedDistrict{}, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	for _, e := range c.entries {
		if re.MatchString(e.key) {
			return e.district, nil
		}
	}
	return ResolvedDistrict{}, fmt.Errorf("%w: %q", ErrDistrictNotFound, pattern)
}

// Resolver maps configured state and district names to upstream ids.
type Resolver struct {
	catalog Catalog
	states  map[string]int
}

func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// LoadStates fetches the state catalog once. Later calls are no-ops.
func (r *Resolver) LoadStates(ctx context.Context) error {
	if r.states != nil {
		return nil
	}
	states, err := r.catalog.States(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStateCatalog, err)
	}
	r.states = make(map[string]int, len(states.States))
	for _, s := range states.States {
		r.states[NormalizeName(s.StateName)] = s.StateID
	}
	return nil
}

func (r *Resolver) ResolveState(ctx context.Context, name string) (int, error) {
	if err := r.LoadStates(ctx); err != nil {
		return 0, err
	}
	id, ok := r.states[NormalizeName(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrStateNotFound, name)
	}
	return id, nil
}

func (r *Resolver) Districts(ctx context.Context, stateID int) (DistrictCatalog, error) {
	districts, err := r.catalog.Districts(ctx, stateID)
	if err != nil {
		return DistrictCatalog{}, fmt.Errorf("%w: %w", ErrDistrictCatalog, err)
	}
	return NewDistrictCatalog(districts.Districts), nil
}
