package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

type deadlineResult struct {
	Jurisdiction   jurisdiction.Code        `json:"jurisdiction"`
	DateFiled      time.Time                `json:"date_filed"`
	Flags          []jurisdiction.Condition `json:"flags,omitempty"`
	Deadline       time.Time                `json:"deadline"`
	Extended       *time.Time               `json:"extended_deadline,omitempty"`
	AppealDeadline time.Time                `json:"appeal_deadline_if_denied_at_deadline"`
}

func (d deadlineResult) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (d deadlineResult) TableRows() [][]string {
	rows := [][]string{
		{"jurisdiction", string(d.Jurisdiction)},
		{"date_filed", formatDate(d.DateFiled)},
		{"deadline", formatDate(d.Deadline)},
	}
	if d.Extended != nil {
		rows = append(rows, []string{"extended_deadline", formatDate(*d.Extended)})
	}
	rows = append(rows, []string{"appeal_deadline", formatDate(d.AppealDeadline)})
	return rows
}

type businessDayResult struct {
	Jurisdiction string    `json:"jurisdiction"`
	Date         time.Time `json:"date"`
	BusinessDay  bool      `json:"business_day"`
	Next         time.Time `json:"next_business_day"`
}

func (b businessDayResult) TableHeaders() []string { return []string{"DATE", "BUSINESS DAY", "NEXT"} }

func (b businessDayResult) TableRows() [][]string {
	return [][]string{{formatDate(b.Date), strconv.FormatBool(b.BusinessDay), formatDate(b.Next)}}
}

type holidayTable struct {
	Jurisdiction string                 `json:"jurisdiction"`
	Year         int                    `json:"year"`
	Items        []jurisdiction.Holiday `json:"items"`
}

func (h holidayTable) TableHeaders() []string { return []string{"DATE", "WEEKDAY", "HOLIDAY"} }

func (h holidayTable) TableRows() [][]string {
	rows := make([][]string, 0, len(h.Items))
	for _, d := range h.Items {
		rows = append(rows, []string{formatDate(d.Date), d.Date.Weekday().String(), d.Name})
	}
	return rows
}

// NewCalendarCmd returns the foiactl calendar subcommand tree.  These
// commands touch no stored record.
func NewCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Deadline and business-day arithmetic",
	}
	cmd.AddCommand(newCalendarDeadlineCmd(), newCalendarBusinessDayCmd(), newCalendarHolidaysCmd())
	return cmd
}

func calculator(c *CLIContext) (*jurisdiction.Calculator, error) {
	if c.Infra == nil || c.Infra.Calculator == nil {
		return nil, errors.Internal("deadline calculator is not initialized")
	}
	return c.Infra.Calculator, nil
}

func newCalendarDeadlineCmd() *cobra.Command {
	var (
		filed    string
		rawFlags []string
		extended bool
	)

	cmd := &cobra.Command{
		Use:     "deadline <jurisdiction>",
		Short:   "Compute the response deadline for a filing date",
		Example: `  foiactl calendar deadline US --filed 2025-07-03 --extended`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			calc, err := calculator(cliCtx)
			if err != nil {
				return err
			}

			code, err := calc.Registry().Normalize(args[0])
			if err != nil {
				return err
			}
			date, err := parseDateFlag("filed", filed)
			if err != nil {
				return err
			}
			if date.IsZero() {
				date = common.DateOf(cliCtx.now())
			}
			flags, err := jurisdiction.ParseConditions(rawFlags)
			if err != nil {
				return err
			}

			res := deadlineResult{Jurisdiction: code, DateFiled: date, Flags: flags}
			if res.Deadline, err = calc.Calculate(string(code), date, flags...); err != nil {
				return err
			}
			anchor := res.Deadline
			if extended {
				ext, err := calc.ApplyExtension(string(code), date, flags...)
				if err != nil {
					return err
				}
				res.Extended = &ext
				anchor = ext
			}
			if res.AppealDeadline, err = calc.CalculateAppeal(string(code), anchor); err != nil {
				return err
			}
			return PrintResult(cmd, res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&filed, "filed", "", "filing date YYYY-MM-DD (default today)")
	f.StringSliceVar(&rawFlags, "flags", nil, "conditions: life-or-liberty, transfer, expedited")
	f.BoolVar(&extended, "extended", false, "also compute the extended deadline")
	return cmd
}

func newCalendarBusinessDayCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "business-day <jurisdiction>",
		Short: "Check whether a date is a business day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			calc, err := calculator(cliCtx)
			if err != nil {
				return err
			}

			d, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}
			if d.IsZero() {
				d = common.DateOf(cliCtx.now())
			}
			ok, err := calc.Calendar().IsBusinessDay(args[0], d)
			if err != nil {
				return err
			}
			next, err := calc.Calendar().AddBusinessDays(args[0], d, 1)
			if err != nil {
				return err
			}
			return PrintResult(cmd, businessDayResult{Jurisdiction: args[0], Date: d, BusinessDay: ok, Next: next})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	return cmd
}

func newCalendarHolidaysCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "holidays <jurisdiction>",
		Short: "List the holidays a jurisdiction observes in a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			calc, err := calculator(cliCtx)
			if err != nil {
				return err
			}
			if year == 0 {
				year = cliCtx.now().Year()
			}
			list, err := calc.Calendar().Holidays(args[0], year)
			if err != nil {
				return err
			}
			return PrintResult(cmd, holidayTable{Jurisdiction: args[0], Year: year, Items: list})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default current)")
	return cmd
}

//Personal.AI order the ending
