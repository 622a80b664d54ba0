// Package jurisdiction holds the static legal reference data of the tracker:
// jurisdiction codes, working-day calendars, statutory deadline rules, and
// exemption catalogs.  Everything here is immutable after construction and
// safe for concurrent use.
package jurisdiction

import (
	"sort"
	"strings"

	"github.com/turtacn/foia-tracker/pkg/errors"
)

// Code is a normalized jurisdiction code.
type Code string

const (
	USFederal Code = "US-FEDERAL"
	India     Code = "INDIA"
	UK        Code = "UK"
	EU        Code = "EU"

	// StatePrefix introduces a US state code, e.g. US-STATE-CA.
	StatePrefix = "US-STATE-"

	// USState is the family code shared by every US-STATE-* jurisdiction.
	USState Code = "US-STATE"
)

func (c Code) String() string { return string(c) }

// IsState reports whether c is a US-STATE-* code.
func (c Code) IsState() bool {
	return strings.HasPrefix(string(c), StatePrefix) && len(c) > len(StatePrefix)
}

// Family returns the code whose tables govern c.  Every US state maps onto
// USState; other codes are their own family.
func (c Code) Family() Code {
	if c.IsState() {
		return USState
	}
	return c
}

// Info holds descriptive metadata about a jurisdiction.
type Info struct {
	Code    Code   `json:"code"`
	Name    string `json:"name"`
	Statute string `json:"statute"`
}

// Registry resolves user-supplied codes and aliases.
type Registry interface {
	Normalize(code string) (Code, error)
	Get(code string) (*Info, error)
	List() []*Info
}

// InMemoryRegistry is the default Registry backed by static tables.
type InMemoryRegistry struct {
	jurisdictions map[Code]*Info
	aliases       map[string]Code
}

// NewRegistry creates a registry preloaded with the supported jurisdictions.
func NewRegistry() *InMemoryRegistry {
	r := &InMemoryRegistry{
		jurisdictions: make(map[Code]*Info),
		aliases:       make(map[string]Code),
	}
	r.init()
	return r
}

func (r *InMemoryRegistry) init() {
	r.add(USFederal, "United States (federal)", "Freedom of Information Act, 5 U.S.C. § 552")
	r.addAlias("US", USFederal)
	r.addAlias("USA", USFederal)
	r.addAlias("FOIA", USFederal)
	r.addAlias("US_FEDERAL", USFederal)

	r.add(India, "India", "Right to Information Act, 2005")
	r.addAlias("IN", India)
	r.addAlias("IND", India)
	r.addAlias("RTI", India)

	r.add(UK, "United Kingdom", "Freedom of Information Act 2000")
	r.addAlias("GB", UK)
	r.addAlias("GBR", UK)
	r.addAlias("UNITED KINGDOM", UK)

	r.add(EU, "European Union institutions", "Regulation (EC) No 1049/2001")
	r.addAlias("EUR", EU)
	r.addAlias("EUROPEAN UNION", EU)
}

func (r *InMemoryRegistry) add(code Code, name, statute string) {
	r.jurisdictions[code] = &Info{Code: code, Name: name, Statute: statute}
}

func (r *InMemoryRegistry) addAlias(alias string, target Code) {
	r.aliases[strings.ToUpper(alias)] = target
}

// Normalize converts a code, alias, or US-STATE-* code into a Code.  Matching
// is case-insensitive and underscores are accepted in place of hyphens.
func (r *InMemoryRegistry) Normalize(code string) (Code, error) {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if upper == "" {
		return "", errors.UnknownJurisdiction(code)
	}
	if _, ok := r.jurisdictions[Code(upper)]; ok {
		return Code(upper), nil
	}
	if j, ok := r.aliases[upper]; ok {
		return j, nil
	}
	hyphenated := strings.ReplaceAll(upper, "_", "-")
	if _, ok := r.jurisdictions[Code(hyphenated)]; ok {
		return Code(hyphenated), nil
	}
	if c := Code(hyphenated); c.IsState() {
		return c, nil
	}
	return "", errors.UnknownJurisdiction(code)
}

// Get returns metadata for a code or alias.
func (r *InMemoryRegistry) Get(code string) (*Info, error) {
	normalized, err := r.Normalize(code)
	if err != nil {
		return nil, err
	}
	if info, ok := r.jurisdictions[normalized]; ok {
		return info, nil
	}
	state := strings.TrimPrefix(string(normalized), StatePrefix)
	return &Info{
		Code:    normalized,
		Name:    "US state: " + state,
		Statute: "State public records law (" + state + ")",
	}, nil
}

// List returns the supported national/supranational jurisdictions, sorted by code.
func (r *InMemoryRegistry) List() []*Info {
	list := make([]*Info, 0, len(r.jurisdictions))
	for _, info := range r.jurisdictions {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

//Personal.AI order the ending
