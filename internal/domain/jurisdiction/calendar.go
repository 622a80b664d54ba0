package jurisdiction

import (
	"sort"
	"sync"
	"time"

	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// CalendarSpec defines the non-working days of a jurisdiction.
type CalendarSpec struct {
	Weekend  []time.Weekday
	Holidays []HolidayRule
}

var defaultWeekend = []time.Weekday{time.Saturday, time.Sunday}

// DefaultCalendarSpecs returns the calendar table keyed by family code.
// Jurisdictions without an entry use a Saturday/Sunday weekend and no holidays.
func DefaultCalendarSpecs() map[Code]CalendarSpec {
	return map[Code]CalendarSpec{
		USFederal: {Weekend: defaultWeekend, Holidays: USFederalHolidays},
		USState:   {Weekend: defaultWeekend, Holidays: USFederalHolidays},
		UK:        {Weekend: defaultWeekend, Holidays: UKBankHolidays},
		EU:        {Weekend: defaultWeekend},
		India:     {Weekend: defaultWeekend},
	}
}

// Calendar answers business-day questions per jurisdiction.  Holiday sets are
// resolved lazily per (family, year) and memoized.
type Calendar struct {
	registry Registry
	specs    map[Code]CalendarSpec

	mu    sync.RWMutex
	years map[yearKey]map[time.Time]string
}

type yearKey struct {
	family Code
	year   int
}

// NewCalendar builds a Calendar over the given specs.
func NewCalendar(registry Registry, specs map[Code]CalendarSpec) *Calendar {
	return &Calendar{
		registry: registry,
		specs:    specs,
		years:    make(map[yearKey]map[time.Time]string),
	}
}

// DefaultCalendar builds a Calendar with the default registry and specs.
func DefaultCalendar() *Calendar {
	return NewCalendar(NewRegistry(), DefaultCalendarSpecs())
}

func (c *Calendar) spec(family Code) CalendarSpec {
	if s, ok := c.specs[family]; ok {
		if len(s.Weekend) == 0 {
			s.Weekend = defaultWeekend
		}
		return s
	}
	return CalendarSpec{Weekend: defaultWeekend}
}

func (c *Calendar) holidaysFor(family Code, year int) map[time.Time]string {
	key := yearKey{family: family, year: year}

	c.mu.RLock()
	set, ok := c.years[key]
	c.mu.RUnlock()
	if ok {
		return set
	}

	spec := c.spec(family)
	set = make(map[time.Time]string, len(spec.Holidays))
	for _, rule := range spec.Holidays {
		set[rule.On(year)] = rule.Name
	}

	c.mu.Lock()
	c.years[key] = set
	c.mu.Unlock()
	return set
}

func (c *Calendar) isBusinessDay(family Code, date time.Time) bool {
	d := common.DateOf(date)
	for _, wd := range c.spec(family).Weekend {
		if d.Weekday() == wd {
			return false
		}
	}
	_, holiday := c.holidaysFor(family, d.Year())[d]
	return !holiday
}

// IsBusinessDay reports whether date is neither a weekend day nor a listed
// holiday in the jurisdiction.
func (c *Calendar) IsBusinessDay(code string, date time.Time) (bool, error) {
	j, err := c.registry.Normalize(code)
	if err != nil {
		return false, err
	}
	return c.isBusinessDay(j.Family(), date), nil
}

// AddBusinessDays counts n business days forward starting the day after start.
// n == 0 returns start unchanged, even when start itself is not a business day.
func (c *Calendar) AddBusinessDays(code string, start time.Time, n int) (time.Time, error) {
	j, err := c.registry.Normalize(code)
	if err != nil {
		return time.Time{}, err
	}
	return c.addBusinessDays(j.Family(), start, n), nil
}

func (c *Calendar) addBusinessDays(family Code, start time.Time, n int) time.Time {
	if n <= 0 {
		return start
	}
	d := common.DateOf(start)
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if c.isBusinessDay(family, d) {
			added++
		}
	}
	return d
}

// Holidays lists the resolved holidays for a jurisdiction in a year, by date.
func (c *Calendar) Holidays(code string, year int) ([]Holiday, error) {
	j, err := c.registry.Normalize(code)
	if err != nil {
		return nil, err
	}
	set := c.holidaysFor(j.Family(), year)
	out := make([]Holiday, 0, len(set))
	for d, name := range set {
		out = append(out, Holiday{Date: d, Name: name})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Date.Before(out[k].Date) })
	return out, nil
}

//Personal.AI order the ending
