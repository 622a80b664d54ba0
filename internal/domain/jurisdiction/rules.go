package jurisdiction

import (
	"sort"
	"strings"

	"github.com/turtacn/foia-tracker/pkg/errors"
)

// Unit is the counting unit of a statutory period.
type Unit string

const (
	UnitCalendarDay Unit = "calendar-day"
	UnitBusinessDay Unit = "business-day"
	UnitWorkingDay  Unit = "working-day"
	UnitHours       Unit = "hours"
)

// Condition tags a special case that changes the applicable period.
type Condition string

const (
	ConditionLifeOrLiberty        Condition = "life-or-liberty"
	ConditionTransfer             Condition = "transfer"
	ConditionExpedited            Condition = "expedited"
	ConditionUnusualCircumstances Condition = "unusual-circumstances"
)

// ParseCondition accepts "life-or-liberty", "LIFE_OR_LIBERTY" and similar
// spellings of a known condition tag.
func ParseCondition(s string) (Condition, error) {
	c := Condition(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	switch c {
	case ConditionLifeOrLiberty, ConditionTransfer, ConditionExpedited, ConditionUnusualCircumstances:
		return c, nil
	}
	return "", errors.Validation("unknown condition").WithDetail("condition=" + s)
}

// ParseConditions parses every tag, failing on the first unknown one.
func ParseConditions(tags []string) ([]Condition, error) {
	out := make([]Condition, 0, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			continue
		}
		c, err := ParseCondition(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// overridePriority fixes which override wins when several flags are present.
var overridePriority = []Condition{
	ConditionLifeOrLiberty,
	ConditionExpedited,
	ConditionTransfer,
}

// Span is a whole, non-negative count of units.
type Span struct {
	Unit  Unit `json:"unit"`
	Count int  `json:"count"`
}

// Extension is an additional period granted on a trigger.
type Extension struct {
	Count     int       `json:"count"`
	Trigger   Condition `json:"trigger"`
	Authority string    `json:"authority"`
}

// Override replaces the base period when its condition is flagged.  A zero
// Span keeps the base period; PreStartDays delays the start of counting by
// that many calendar days.
type Override struct {
	Span         Span   `json:"span"`
	PreStartDays int    `json:"pre_start_days,omitempty"`
	Authority    string `json:"authority"`
}

func (o Override) replacesBase() bool { return o.Span.Unit != "" }

// Rule is one row of the deadline rule table.
type Rule struct {
	Jurisdiction Code                   `json:"jurisdiction"`
	Base         Span                   `json:"base"`
	Authority    string                 `json:"authority"`
	Extension    *Extension             `json:"extension,omitempty"`
	Overrides    map[Condition]Override `json:"overrides,omitempty"`
	Appeal       Span                   `json:"appeal"`
}

// override picks the highest-priority override matching flags.
func (r Rule) override(flags []Condition) (Override, Condition, bool) {
	if len(r.Overrides) == 0 {
		return Override{}, "", false
	}
	for _, cond := range overridePriority {
		if !hasCondition(flags, cond) {
			continue
		}
		if o, ok := r.Overrides[cond]; ok {
			return o, cond, true
		}
	}
	return Override{}, "", false
}

func hasCondition(flags []Condition, c Condition) bool {
	for _, f := range flags {
		if f == c {
			return true
		}
	}
	return false
}

// RuleTable maps jurisdiction families to rules.
type RuleTable struct {
	rules map[Code]Rule
}

// NewRuleTable builds a table from rules keyed by their Jurisdiction.
func NewRuleTable(rules ...Rule) *RuleTable {
	t := &RuleTable{rules: make(map[Code]Rule, len(rules))}
	for _, r := range rules {
		t.rules[r.Jurisdiction] = r
	}
	return t
}

// Lookup returns the rule governing code.  US-STATE-* codes fall back to the
// shared USState rule.
func (t *RuleTable) Lookup(code Code) (Rule, bool) {
	if r, ok := t.rules[code]; ok {
		return r, true
	}
	r, ok := t.rules[code.Family()]
	return r, ok
}

// Rules returns every rule ordered by jurisdiction.
func (t *RuleTable) Rules() []Rule {
	out := make([]Rule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Jurisdiction < out[j].Jurisdiction })
	return out
}

// DefaultRuleTable returns the statutory periods of the supported laws.
func DefaultRuleTable() *RuleTable {
	return NewRuleTable(
		Rule{
			Jurisdiction: USFederal,
			Base:         Span{Unit: UnitBusinessDay, Count: 20},
			Authority:    "5 U.S.C. § 552(a)(6)(A)(i)",
			Extension: &Extension{
				Count:     10,
				Trigger:   ConditionUnusualCircumstances,
				Authority: "5 U.S.C. § 552(a)(6)(B)(i)",
			},
			Overrides: map[Condition]Override{
				ConditionExpedited: {
					Span:      Span{Unit: UnitCalendarDay, Count: 10},
					Authority: "5 U.S.C. § 552(a)(6)(E)(ii)(I)",
				},
			},
			Appeal: Span{Unit: UnitCalendarDay, Count: 90},
		},
		Rule{
			Jurisdiction: USState,
			Base:         Span{Unit: UnitBusinessDay, Count: 10},
			Authority:    "State public records law (default period)",
			Appeal:       Span{Unit: UnitCalendarDay, Count: 30},
		},
		Rule{
			Jurisdiction: India,
			Base:         Span{Unit: UnitCalendarDay, Count: 30},
			Authority:    "RTI Act 2005, Section 7(1)",
			Overrides: map[Condition]Override{
				ConditionLifeOrLiberty: {
					Span:      Span{Unit: UnitHours, Count: 48},
					Authority: "RTI Act 2005, Section 7(1) proviso",
				},
				ConditionTransfer: {
					PreStartDays: 5,
					Authority:    "RTI Act 2005, Section 6(3)",
				},
			},
			Appeal: Span{Unit: UnitCalendarDay, Count: 30},
		},
		Rule{
			Jurisdiction: UK,
			Base:         Span{Unit: UnitWorkingDay, Count: 20},
			Authority:    "FOIA 2000, Section 10(1)",
			Appeal:       Span{Unit: UnitWorkingDay, Count: 40},
		},
		Rule{
			Jurisdiction: EU,
			Base:         Span{Unit: UnitWorkingDay, Count: 15},
			Authority:    "Regulation 1049/2001, Article 7(1)",
			Extension: &Extension{
				Count:     15,
				Trigger:   ConditionUnusualCircumstances,
				Authority: "Regulation 1049/2001, Article 7(3)",
			},
			Appeal: Span{Unit: UnitWorkingDay, Count: 15},
		},
	)
}

//Personal.AI order the ending
