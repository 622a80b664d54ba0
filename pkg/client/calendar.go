package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CalendarClient exposes the deadline calculator without touching any record.
type CalendarClient struct {
	client *Client
}

// DeadlineResult is a computed response deadline.
type DeadlineResult struct {
	Jurisdiction string    `json:"jurisdiction"`
	DateFiled    time.Time `json:"date_filed"`
	Flags        []string  `json:"flags,omitempty"`
	Extended     bool      `json:"extended"`
	Deadline     time.Time `json:"deadline"`
}

// AppealDeadlineResult is a computed appeal filing deadline.
type AppealDeadlineResult struct {
	Jurisdiction   string    `json:"jurisdiction"`
	AnchorDate     time.Time `json:"anchor_date"`
	AppealDeadline time.Time `json:"appeal_deadline"`
}

// BusinessDayResult reports whether a date is a business day.
type BusinessDayResult struct {
	Jurisdiction    string    `json:"jurisdiction"`
	Date            time.Time `json:"date"`
	BusinessDay     bool      `json:"business_day"`
	NextBusinessDay time.Time `json:"next_business_day"`
}

type holidayList struct {
	Jurisdiction string    `json:"jurisdiction"`
	Year         int       `json:"year"`
	Items        []Holiday `json:"items"`
}

type jurisdictionList struct {
	Items []Jurisdiction `json:"items"`
}

// Deadline computes the response deadline for a filing date.
func (c *CalendarClient) Deadline(ctx context.Context, jurisdiction string, filed time.Time, extended bool, flags ...string) (*DeadlineResult, error) {
	q := url.Values{"jurisdiction": {jurisdiction}}
	if !filed.IsZero() {
		q.Set("filed", formatDate(filed))
	}
	if len(flags) > 0 {
		q.Set("flags", strings.Join(flags, ","))
	}
	if extended {
		q.Set("extended", "true")
	}
	var out DeadlineResult
	if err := c.client.get(ctx, "/api/v1/calendar/deadline", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppealDeadline computes the last day to appeal from an anchor date.
func (c *CalendarClient) AppealDeadline(ctx context.Context, jurisdiction string, anchor time.Time) (*AppealDeadlineResult, error) {
	q := url.Values{"jurisdiction": {jurisdiction}}
	if !anchor.IsZero() {
		q.Set("anchor", formatDate(anchor))
	}
	var out AppealDeadlineResult
	if err := c.client.get(ctx, "/api/v1/calendar/appeal-deadline", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BusinessDay checks a single date.
func (c *CalendarClient) BusinessDay(ctx context.Context, jurisdiction string, date time.Time) (*BusinessDayResult, error) {
	q := url.Values{"jurisdiction": {jurisdiction}}
	if !date.IsZero() {
		q.Set("date", formatDate(date))
	}
	var out BusinessDayResult
	if err := c.client.get(ctx, "/api/v1/calendar/business-day", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Holidays lists the holidays a jurisdiction observes in a year.
func (c *CalendarClient) Holidays(ctx context.Context, jurisdiction string, year int) ([]Holiday, error) {
	q := url.Values{"jurisdiction": {jurisdiction}}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	var out holidayList
	if err := c.client.get(ctx, "/api/v1/calendar/holidays", q, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Jurisdictions lists every supported jurisdiction.
func (c *CalendarClient) Jurisdictions(ctx context.Context) ([]Jurisdiction, error) {
	var out jurisdictionList
	if err := c.client.get(ctx, "/api/v1/jurisdictions", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

//Personal.AI order the ending
