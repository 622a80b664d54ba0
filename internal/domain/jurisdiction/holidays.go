package jurisdiction

import "time"

// HolidayRule describes a recurring public holiday.  A rule is either a fixed
// calendar date (Day > 0) or the Nth weekday of a month (Nth 1..4, or -1 for
// the last one).
type HolidayRule struct {
	Name    string
	Month   time.Month
	Day     int
	Weekday time.Weekday
	Nth     int
}

// Fixed returns a rule for a fixed month/day holiday.
func Fixed(name string, month time.Month, day int) HolidayRule {
	return HolidayRule{Name: name, Month: month, Day: day}
}

// NthWeekday returns a rule for the nth weekday of a month.
func NthWeekday(name string, month time.Month, weekday time.Weekday, n int) HolidayRule {
	return HolidayRule{Name: name, Month: month, Weekday: weekday, Nth: n}
}

// LastWeekday returns a rule for the last weekday of a month.
func LastWeekday(name string, month time.Month, weekday time.Weekday) HolidayRule {
	return HolidayRule{Name: name, Month: month, Weekday: weekday, Nth: -1}
}

// On resolves the rule to a UTC date in the given year.
func (r HolidayRule) On(year int) time.Time {
	if r.Day > 0 {
		return time.Date(year, r.Month, r.Day, 0, 0, 0, 0, time.UTC)
	}
	if r.Nth < 0 {
		last := time.Date(year, r.Month+1, 0, 0, 0, 0, 0, time.UTC)
		back := (int(last.Weekday()) - int(r.Weekday) + 7) % 7
		return last.AddDate(0, 0, -back)
	}
	first := time.Date(year, r.Month, 1, 0, 0, 0, 0, time.UTC)
	forward := (int(r.Weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, forward+7*(r.Nth-1))
}

// Holiday is a resolved holiday date.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// USFederalHolidays are the federal holidays of 5 U.S.C. § 6103.  Dates are
// not shifted to an observed weekday.
var USFederalHolidays = []HolidayRule{
	Fixed("New Year's Day", time.January, 1),
	NthWeekday("Martin Luther King Jr. Day", time.January, time.Monday, 3),
	NthWeekday("Washington's Birthday", time.February, time.Monday, 3),
	LastWeekday("Memorial Day", time.May, time.Monday),
	Fixed("Juneteenth National Independence Day", time.June, 19),
	Fixed("Independence Day", time.July, 4),
	NthWeekday("Labor Day", time.September, time.Monday, 1),
	NthWeekday("Columbus Day", time.October, time.Monday, 2),
	Fixed("Veterans Day", time.November, 11),
	NthWeekday("Thanksgiving Day", time.November, time.Thursday, 4),
	Fixed("Christmas Day", time.December, 25),
}

// UKBankHolidays are the England and Wales bank holidays that do not depend on
// the date of Easter.
var UKBankHolidays = []HolidayRule{
	Fixed("New Year's Day", time.January, 1),
	NthWeekday("Early May bank holiday", time.May, time.Monday, 1),
	LastWeekday("Spring bank holiday", time.May, time.Monday),
	LastWeekday("Summer bank holiday", time.August, time.Monday),
	Fixed("Christmas Day", time.December, 25),
	Fixed("Boxing Day", time.December, 26),
}

//Personal.AI order the ending
