package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/foia-tracker/internal/application/tracking"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// recordRow is a request plus the values derived at print time.
type recordRow struct {
	Request         *request.Record `json:"request"`
	EffectiveStatus request.Status  `json:"effective_status"`
	DaysRemaining   int             `json:"days_remaining"`
	Overdue         bool            `json:"overdue"`
}

func newRecordRow(r *request.Record, now time.Time) recordRow {
	return recordRow{
		Request:         r,
		EffectiveStatus: r.EffectiveStatus(now),
		DaysRemaining:   r.DaysRemaining(now),
		Overdue:         r.IsOverdue(now),
	}
}

// recordTable renders a list of requests.
type recordTable struct {
	Items []recordRow `json:"items"`
	Total int64       `json:"total"`
}

func newRecordTable(list []*request.Record, total int64, now time.Time) recordTable {
	out := recordTable{Items: make([]recordRow, 0, len(list)), Total: total}
	for _, r := range list {
		out.Items = append(out.Items, newRecordRow(r, now))
	}
	return out
}

func (t recordTable) TableHeaders() []string {
	return []string{"ID", "JURISDICTION", "AGENCY", "FILED", "DEADLINE", "STATUS", "DAYS LEFT"}
}

func (t recordTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t.Items))
	for _, it := range t.Items {
		r := it.Request
		rows = append(rows, []string{
			r.ID,
			string(r.Jurisdiction),
			r.Agency,
			formatDate(r.DateFiled),
			formatDate(r.Deadline),
			string(it.EffectiveStatus),
			strconv.Itoa(it.DaysRemaining),
		})
	}
	return rows
}

// recordDetail renders one request as key/value pairs plus its history.
type recordDetail struct {
	recordRow
}

func (d recordDetail) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (d recordDetail) TableRows() [][]string {
	r := d.Request
	rows := [][]string{
		{"id", r.ID},
		{"reference_id", r.ReferenceID},
		{"agency", r.Agency},
		{"jurisdiction", string(r.Jurisdiction)},
		{"topic", r.Topic},
		{"date_filed", formatDate(r.DateFiled)},
		{"deadline", formatDate(r.Deadline)},
		{"status", string(r.Status())},
		{"effective_status", string(d.EffectiveStatus)},
		{"days_remaining", strconv.Itoa(d.DaysRemaining)},
		{"extension", strconv.FormatBool(r.Extension.Applied)},
		{"version", strconv.Itoa(r.Version)},
	}
	if len(r.Flags) > 0 {
		flags := make([]string, len(r.Flags))
		for i, f := range r.Flags {
			flags[i] = string(f)
		}
		rows = append(rows, []string{"flags", strings.Join(flags, ",")})
	}
	if len(r.Response.Exemptions) > 0 {
		rows = append(rows, []string{"exemptions", strings.Join(r.Response.Exemptions, ",")})
	}
	for i, h := range r.History {
		line := string(h.Status)
		if h.Note != "" {
			line += " (" + h.Note + ")"
		}
		rows = append(rows, []string{fmt.Sprintf("history[%d] %s", i, h.Timestamp.Format(time.RFC3339)), line})
	}
	for i, n := range r.Notes {
		rows = append(rows, []string{fmt.Sprintf("note[%d] %s", i, n.Timestamp.Format(time.RFC3339)), n.Text})
	}
	return rows
}

// statsTable renders request.Stats.
type statsTable struct {
	*request.Stats
}

func (s statsTable) TableHeaders() []string { return []string{"GROUP", "KEY", "COUNT"} }

func (s statsTable) TableRows() [][]string {
	rows := [][]string{
		{"total", "-", strconv.FormatInt(s.Total, 10)},
		{"overdue", "-", strconv.FormatInt(s.Overdue, 10)},
	}
	rows = append(rows, countRows("status", s.ByStatus)...)
	rows = append(rows, countRows("jurisdiction", s.ByJurisdiction)...)
	return rows
}

func countRows[K ~string](group string, m map[K]int64) [][]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{group, k, strconv.FormatInt(m[K(k)], 10)})
	}
	return rows
}

// NewRequestCmd returns the foiactl request subcommand tree.
func NewRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Manage tracked records requests",
	}
	cmd.AddCommand(
		newRequestCreateCmd(),
		newRequestGetCmd(),
		newRequestListCmd(),
		newRequestStatusCmd(),
		newRequestResponseCmd(),
		newRequestConfirmCmd(),
		newRequestExtendCmd(),
		newRequestNoteCmd(),
		newRequestOverdueCmd(),
		newRequestStatsCmd(),
	)
	return cmd
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := common.ParseDate(value)
	if err != nil {
		return time.Time{}, errors.InvalidParam("invalid --" + name).WithDetail(err.Error())
	}
	return t, nil
}

func newRequestCreateCmd() *cobra.Command {
	var (
		in        tracking.CreateInput
		filed     string
		textFile  string
		flagsList []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a filed request and compute its deadline",
		Example: `  foiactl request create --agency EPA --jurisdiction US --topic "permit records" --filed 2025-03-03
  foiactl request create --agency "Ministry of Home Affairs" --jurisdiction IN --topic detention --flags life-or-liberty`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			if in.DateFiled, err = parseDateFlag("filed", filed); err != nil {
				return err
			}
			if in.DateFiled.IsZero() {
				in.DateFiled = common.DateOf(cliCtx.now())
			}
			if textFile != "" {
				b, err := os.ReadFile(textFile)
				if err != nil {
					return errors.InvalidParam("cannot read --text-file").WithDetail(err.Error())
				}
				in.RenderedText = string(b)
			}
			in.Flags = flagsList

			rec, err := cliCtx.Services.Tracking.Create(ctx, &in)
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordDetail{newRecordRow(rec, cliCtx.now())})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Agency, "agency", "", "agency the request was filed with")
	f.StringVar(&in.Jurisdiction, "jurisdiction", "", "jurisdiction code or alias (US-FEDERAL, INDIA, UK, EU, US-STATE-*; aliases such as US, IN, GB)")
	f.StringVar(&in.Topic, "topic", "", "request topic")
	f.StringVar(&in.ReferenceID, "reference", "", "agency tracking number")
	f.StringVar(&in.TemplateID, "template", "", "template the request text was rendered from")
	f.StringVar(&textFile, "text-file", "", "file holding the rendered request text")
	f.StringVar(&filed, "filed", "", "filing date YYYY-MM-DD (default today)")
	f.StringSliceVar(&flagsList, "flags", nil, "deadline conditions: life-or-liberty, transfer, expedited")
	f.BoolVar(&in.FeeWaiverRequested, "fee-waiver", false, "a fee waiver was requested")
	_ = cmd.MarkFlagRequired("agency")
	_ = cmd.MarkFlagRequired("jurisdiction")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func newRequestGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one request with its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			rec, err := cliCtx.Services.Tracking.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordDetail{newRecordRow(rec, cliCtx.now())})
		},
	}
}

func newRequestListCmd() *cobra.Command {
	var in tracking.ListInput

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			res, err := cliCtx.Services.Tracking.List(ctx, &in)
			if err != nil {
				return err
			}
			return PrintResult(cmd, newRecordTable(res.Items, res.Total, cliCtx.now()))
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Jurisdiction, "jurisdiction", "", "filter by jurisdiction")
	f.StringVar(&in.Status, "status", "", "filter by stored status")
	f.StringVar(&in.Agency, "agency", "", "filter by agency")
	f.IntVar(&in.Limit, "limit", common.DefaultPageLimit, "page size")
	f.IntVar(&in.Offset, "offset", 0, "page offset")
	return cmd
}

func newRequestStatusCmd() *cobra.Command {
	var in tracking.UpdateStatusInput

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a request to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			in.ID, in.Status = args[0], args[1]
			rec, err := cliCtx.Services.Tracking.UpdateStatus(ctx, &in)
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordDetail{newRecordRow(rec, cliCtx.now())})
		},
	}
	cmd.Flags().StringVar(&in.Note, "note", "", "history note")
	cmd.Flags().IntVar(&in.ExpectedVersion, "expected-version", 0, "fail unless the stored version matches")
	return cmd
}

func newRequestResponseCmd() *cobra.Command {
	var (
		ev         request.ResponseEvent
		received   string
		fee        float64
		waiver     string
		exemptions []string
	)

	cmd := &cobra.Command{
		Use:   "response <id>",
		Short: "Record an agency response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			ev.RequestID = args[0]
			ev.Exemptions = exemptions
			if ev.ReceivedAt, err = parseDateFlag("received", received); err != nil {
				return err
			}
			if ev.ReceivedAt.IsZero() {
				ev.ReceivedAt = cliCtx.now()
			}
			if cmd.Flags().Changed("fee") {
				ev.FeeAssessed = &fee
			}
			if waiver != "" {
				granted, err := strconv.ParseBool(waiver)
				if err != nil {
					return errors.InvalidParam("invalid --fee-waiver-granted").WithDetail(waiver)
				}
				ev.FeeWaiverGranted = &granted
			}

			rec, err := cliCtx.Services.Tracking.RecordResponse(ctx, ev)
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordDetail{newRecordRow(rec, cliCtx.now())})
		},
	}

	f := cmd.Flags()
	f.StringVar(&received, "received", "", "date received YYYY-MM-DD (default now)")
	f.IntVar(&ev.PagesReceived, "pages", 0, "pages released")
	f.IntVar(&ev.PagesWithheld, "withheld", 0, "pages withheld")
	f.StringSliceVar(&exemptions, "exemptions", nil, "exemptions cited (b5, 8(1)(j), s.40, ...)")
	f.Float64Var(&fee, "fee", 0, "fee assessed")
	f.StringVar(&waiver, "fee-waiver-granted", "", "true or false")
	f.BoolVar(&ev.RedactionSuspected, "redaction-suspected", false, "the analyzer suspects over-redaction")
	f.StringVar(&ev.Summary, "summary", "", "response summary")
	return cmd
}

func newRequestConfirmCmd() *cobra.Command {
	var (
		filed   string
		failure string
	)

	cmd := &cobra.Command{
		Use:   "confirm <id>",
		Short: "Record the filing transport's confirmation or failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			conf := request.FilingConfirmation{RequestID: args[0], Failed: failure != "", Error: failure}
			if conf.FiledAt, err = parseDateFlag("filed", filed); err != nil {
				return err
			}
			rec, err := cliCtx.Services.Tracking.ConfirmFiling(ctx, conf)
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordDetail{newRecordRow(rec, cliCtx.now())})
		},
	}
	cmd.Flags().StringVar(&filed, "filed", "", "confirmed filing date YYYY-MM-DD")
	cmd.Flags().StringVar(&failure, "failed", "", "transport failure message")
	return cmd
}

func newRequestExtendCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "extend <id>",
		Short: "Apply the statutory extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			rec, err := cliCtx.Services.Tracking.ApplyExtension(ctx, args[0], reason)
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordDetail{newRecordRow(rec, cliCtx.now())})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "agency's stated reason")
	return cmd
}

func newRequestNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <id> <text>",
		Short: "Append a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			rec, err := cliCtx.Services.Tracking.AddNote(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordDetail{newRecordRow(rec, cliCtx.now())})
		},
	}
}

func newRequestOverdueCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List requests past their deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			at, err := parseDateFlag("as-of", asOf)
			if err != nil {
				return err
			}
			if at.IsZero() {
				at = cliCtx.now()
			}
			list, err := cliCtx.Services.Tracking.GetOverdue(ctx, at)
			if err != nil {
				return err
			}
			return PrintResult(cmd, newRecordTable(list, int64(len(list)), at))
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluation date YYYY-MM-DD (default now)")
	return cmd
}

func newRequestStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count requests by status and jurisdiction",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			st, err := cliCtx.Services.Tracking.Stats(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, statsTable{st})
		},
	}
}

//Personal.AI order the ending
