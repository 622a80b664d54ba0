package jurisdiction

import (
	"time"

	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// Calculator computes statutory due dates.  It has no clock access: the same
// inputs always yield the same date.
type Calculator struct {
	registry Registry
	rules    *RuleTable
	calendar *Calendar
}

// NewCalculator wires a calculator over the given tables.
func NewCalculator(registry Registry, rules *RuleTable, calendar *Calendar) *Calculator {
	return &Calculator{registry: registry, rules: rules, calendar: calendar}
}

// DefaultCalculator wires the default registry, rule table and calendar.
func DefaultCalculator() *Calculator {
	reg := NewRegistry()
	return NewCalculator(reg, DefaultRuleTable(), NewCalendar(reg, DefaultCalendarSpecs()))
}

// Registry exposes the registry used for normalization.
func (c *Calculator) Registry() Registry { return c.registry }

// Calendar exposes the underlying calendar.
func (c *Calculator) Calendar() *Calendar { return c.calendar }

// Rule resolves the rule entry for a code or alias.
func (c *Calculator) Rule(code string) (Code, Rule, error) {
	j, err := c.registry.Normalize(code)
	if err != nil {
		return "", Rule{}, err
	}
	rule, ok := c.rules.Lookup(j)
	if !ok {
		return "", Rule{}, errors.UnknownJurisdiction(code)
	}
	return j, rule, nil
}

// Calculate returns the response deadline for a request filed on filingDate.
// A flag matching one of the rule's overrides takes precedence over the base
// period.
func (c *Calculator) Calculate(code string, filingDate time.Time, flags ...Condition) (time.Time, error) {
	j, rule, err := c.Rule(code)
	if err != nil {
		return time.Time{}, err
	}
	span, start := c.resolve(rule, filingDate, flags)
	return c.advance(j, start, span), nil
}

// ApplyExtension returns the extended deadline, always recomputed from the
// original filing date with base plus extension counts.
func (c *Calculator) ApplyExtension(code string, filingDate time.Time, flags ...Condition) (time.Time, error) {
	j, rule, err := c.Rule(code)
	if err != nil {
		return time.Time{}, err
	}
	if rule.Extension == nil {
		return time.Time{}, errors.ExtensionNotAvailable(string(j))
	}
	span, start := c.resolve(rule, filingDate, flags)
	if span != rule.Base {
		// An override with its own period (e.g. 48 hours) has no extension.
		return time.Time{}, errors.ExtensionNotAvailable(string(j)).
			WithDetail("extension does not apply to special-case period " + string(span.Unit))
	}
	span.Count += rule.Extension.Count
	return c.advance(j, start, span), nil
}

// DeadlineUnit reports the unit the response period is counted in once
// overrides are applied.  An extension never changes it.
func (c *Calculator) DeadlineUnit(code string, flags ...Condition) (Unit, error) {
	_, rule, err := c.Rule(code)
	if err != nil {
		return "", err
	}
	span, _ := c.resolve(rule, time.Time{}, flags)
	return span.Unit, nil
}

// CalculateAppeal returns the deadline to lodge an appeal against a decision
// (or deemed decision) made on anchor.
func (c *Calculator) CalculateAppeal(code string, anchor time.Time) (time.Time, error) {
	j, rule, err := c.Rule(code)
	if err != nil {
		return time.Time{}, err
	}
	return c.advance(j, anchor, rule.Appeal), nil
}

func (c *Calculator) resolve(rule Rule, filingDate time.Time, flags []Condition) (Span, time.Time) {
	span := rule.Base
	start := filingDate
	if o, _, ok := rule.override(flags); ok {
		if o.replacesBase() {
			span = o.Span
		}
		if o.PreStartDays > 0 {
			start = common.DateOf(start).AddDate(0, 0, o.PreStartDays)
		}
	}
	return span, start
}

func (c *Calculator) advance(j Code, start time.Time, span Span) time.Time {
	switch span.Unit {
	case UnitHours:
		return start.Add(time.Duration(span.Count) * time.Hour)
	case UnitBusinessDay, UnitWorkingDay:
		return c.calendar.addBusinessDays(j.Family(), common.DateOf(start), span.Count)
	default:
		return common.DateOf(start).AddDate(0, 0, span.Count)
	}
}

//Personal.AI order the ending
