package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/foia-tracker/internal/application/alerting"
	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// scanTable renders a scan result: raised alerts first, then warnings.
type scanTable struct {
	*alerting.ScanResult
}

func (s scanTable) TableHeaders() []string {
	return []string{"REQUEST", "KIND", "LEVEL", "THRESHOLD", "DUE", "MESSAGE"}
}

func (s scanTable) TableRows() [][]string {
	rows := alertRows(s.Alerts)
	for _, id := range s.Transitioned {
		rows = append(rows, []string{id, "transition", "-", "-", "-", "marked constructive_denial"})
	}
	for _, w := range s.Warnings {
		rows = append(rows, []string{w.RequestID, "warning", "-", w.Code, "-", w.Message})
	}
	rows = append(rows, []string{"", "", "", "", "", "scanned " + strconv.Itoa(s.Scanned) + " requests"})
	return rows
}

// alertTable renders stored alerts.
type alertTable struct {
	Items []*alert.Alert `json:"items"`
	Total int64          `json:"total"`
}

func (t alertTable) TableHeaders() []string {
	return []string{"REQUEST", "KIND", "LEVEL", "THRESHOLD", "DUE", "MESSAGE"}
}

func (t alertTable) TableRows() [][]string { return alertRows(t.Items) }

func alertRows(list []*alert.Alert) [][]string {
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.RequestID,
			string(a.Kind),
			string(a.Level),
			a.ThresholdID,
			formatDate(a.DueDate),
			a.Message,
		})
	}
	return rows
}

// NewAlertsCmd returns the foiactl alerts subcommand tree.
func NewAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Run deadline scans and inspect raised alerts",
	}
	cmd.AddCommand(newAlertsScanCmd(), newAlertsListCmd())
	return cmd
}

func newAlertsScanCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Evaluate every open request against the alert thresholds",
		Long: "Scan raises each (request, threshold) alert at most once, so re-running it\n" +
			"at the same date produces no new alerts.  Requests past deadline with no\n" +
			"response are marked constructive_denial.",
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
			res, err := cliCtx.Services.Alerting.Scan(ctx, at)
			if err != nil {
				return err
			}
			return PrintResult(cmd, scanTable{res})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluation date YYYY-MM-DD (default now)")
	return cmd
}

func newAlertsListCmd() *cobra.Command {
	var (
		opts  alert.ListOptions
		kind  string
		since string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List raised alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			switch alert.Kind(kind) {
			case "", alert.KindUpcoming, alert.KindOverdue:
				opts.Kind = alert.Kind(kind)
			default:
				return errors.InvalidParam("invalid --kind").WithDetail(kind)
			}
			if opts.Since, err = parseDateFlag("since", since); err != nil {
				return err
			}
			list, total, err := cliCtx.Services.Alerting.List(ctx, opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, alertTable{Items: list, Total: total})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.RequestID, "request", "", "only alerts for this request")
	f.StringVar(&kind, "kind", "", "upcoming or overdue")
	f.StringVar(&since, "since", "", "only alerts generated on or after YYYY-MM-DD")
	f.IntVar(&opts.Limit, "limit", 50, "page size")
	f.IntVar(&opts.Offset, "offset", 0, "page offset")
	return cmd
}

//Personal.AI order the ending
