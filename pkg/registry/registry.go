// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Tables holds the canonical lookup tables for location and commodity
// resolution. Built once at startup, read-only afterwards; every lookup is a
// pure function of the normalized input, so concurrent use needs no locking.
type Tables struct {
	version         string
	states          map[string]struct{}
	stateAliases    map[string]string
	cities          map[string]string
	pincodePrefixes map[string]string
	commodities     map[string]struct{}
	synonyms        map[string]string

	stateList     []string
	commodityList []string
}

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Load reads, validates and normalizes a tables document from disk.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables document: %w", err)
	}
	return Parse(data)
}

// Parse validates raw JSON against the document schema and builds the tables.
func Parse(data []byte) (*Tables, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate tables document: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid tables document: %s", strings.Join(msgs, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tables document: %w", err)
	}
	return Build(&doc)
}

// Build normalizes a document into lookup tables. Alias and synonym targets
// must name a known state/commodity; a dangling target is a config error.
func Build(doc *Document) (*Tables, error) {
	t := &Tables{
		version:         doc.Version,
		states:          make(map[string]struct{}, len(doc.States)),
		stateAliases:    make(map[string]string, len(doc.StateAliases)),
		cities:          make(map[string]string, len(doc.Cities)),
		pincodePrefixes: make(map[string]string, len(doc.PincodePrefixes)),
		commodities:     make(map[string]struct{}, len(doc.Commodities)),
		synonyms:        make(map[string]string, len(doc.CommoditySynonyms)),
	}

	for _, s := range doc.States {
		t.states[Normalize(s)] = struct{}{}
	}
	for alias, state := range doc.StateAliases {
		state = Normalize(state)
		if _, ok := t.states[state]; !ok {
			return nil, fmt.Errorf("state alias %q targets unknown state %q", alias, state)
		}
		t.stateAliases[Normalize(alias)] = state
	}
	for city, state := range doc.Cities {
		state = Normalize(state)
		if _, ok := t.states[state]; !ok {
			return nil, fmt.Errorf("city %q targets unknown state %q", city, state)
		}
		t.cities[Normalize(city)] = state
	}
	for prefix, state := range doc.PincodePrefixes {
		state = Normalize(state)
		if _, ok := t.states[state]; !ok {
			return nil, fmt.Errorf("pincode prefix %q targets unknown state %q", prefix, state)
		}
		t.pincodePrefixes[strings.TrimSpace(prefix)] = state
	}
	for _, c := range doc.Commodities {
		t.commodities[Normalize(c)] = struct{}{}
	}
	for syn, canonical := range doc.CommoditySynonyms {
		canonical = Normalize(canonical)
		if _, ok := t.commodities[canonical]; !ok {
			return nil, fmt.Errorf("synonym %q targets unknown commodity %q", syn, canonical)
		}
		t.synonyms[Normalize(syn)] = canonical
	}

	for s := range t.states {
		t.stateList = append(t.stateList, s)
	}
	sort.Strings(t.stateList)
	for c := range t.commodities {
		t.commodityList = append(t.commodityList, c)
	}
	sort.Strings(t.commodityList)

	return t, nil
}

// Normalize lower-cases and collapses whitespace, the canonical key form for
// every table lookup.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// Version reports the loaded document version.
func (t *Tables) Version() string { return t.version }

// CanonicalState resolves a name or alias to a canonical state, reporting
// whether it is known.
func (t *Tables) CanonicalState(name string) (string, bool) {
	name = Normalize(name)
	if _, ok := t.states[name]; ok {
		return name, true
	}
	if state, ok := t.stateAliases[name]; ok {
		return state, true
	}
	return "", false
}

// CityState looks up the state a known city belongs to.
func (t *Tables) CityState(city string) (string, bool) {
	state, ok := t.cities[Normalize(city)]
	return state, ok
}

// PincodeState maps a full 6-digit pincode to a state via its 3-digit sorting
// prefix. Non-pincode input reports false.
func (t *Tables) PincodeState(pincode string) (string, bool) {
	pincode = strings.TrimSpace(pincode)
	if !pincodePattern.MatchString(pincode) {
		return "", false
	}
	state, ok := t.pincodePrefixes[pincode[:3]]
	return state, ok
}

// CanonicalCommodity reports whether a name is a vocabulary member.
func (t *Tables) CanonicalCommodity(name string) (string, bool) {
	name = Normalize(name)
	if _, ok := t.commodities[name]; ok {
		return name, true
	}
	return "", false
}

// SynonymOf resolves a typo/synonym to its canonical commodity.
func (t *Tables) SynonymOf(name string) (string, bool) {
	canonical, ok := t.synonyms[Normalize(name)]
	return canonical, ok
}

// States returns the canonical state list, sorted.
func (t *Tables) States() []string { return append([]string(nil), t.stateList...) }

// Commodities returns the canonical commodity vocabulary, sorted.
func (t *Tables) Commodities() []string { return append([]string(nil), t.commodityList...) }
