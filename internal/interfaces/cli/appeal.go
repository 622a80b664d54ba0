package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// appealTable renders appeal rounds.
type appealTable struct {
	Items []*appeal.Record `json:"items"`
}

func (t appealTable) TableHeaders() []string {
	return []string{"ID", "ROUND", "TYPE", "BODY", "ANCHOR", "FILE BY", "STATUS", "GROUNDS"}
}

func (t appealTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t.Items))
	for _, a := range t.Items {
		cites := make([]string, 0, len(a.Grounds))
		for _, g := range a.Grounds {
			cites = append(cites, g.Citation)
		}
		rows = append(rows, []string{
			a.ID,
			strconv.Itoa(a.Round),
			string(a.Type),
			a.Body,
			formatDate(a.AnchorDate),
			formatDate(a.FiledDeadline),
			string(a.Status()),
			strings.Join(cites, "; "),
		})
	}
	return rows
}

// NewAppealCmd returns the foiactl appeal subcommand tree.
func NewAppealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appeal",
		Short: "Generate appeals and track their rounds",
	}
	cmd.AddCommand(newAppealGenerateCmd(), newAppealListCmd(), newAppealStatusCmd())
	return cmd
}

// parseGround reads "citation=argument".
func parseGround(s string) (appeal.Ground, error) {
	citation, argument, ok := strings.Cut(s, "=")
	citation, argument = strings.TrimSpace(citation), strings.TrimSpace(argument)
	if !ok || citation == "" || argument == "" {
		return appeal.Ground{}, errors.InvalidParam("invalid --ground, want citation=argument").WithDetail(s)
	}
	return appeal.Ground{Citation: citation, Argument: argument}, nil
}

func newAppealGenerateCmd() *cobra.Command {
	var raw []string

	cmd := &cobra.Command{
		Use:   "generate <request-id>",
		Short: "Draft the next appeal round for a request",
		Example: `  foiactl appeal generate 6f1c... --ground "5 U.S.C. § 552(a)(8)=agency did not show foreseeable harm"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			var extra []appeal.Ground
			for _, s := range raw {
				g, err := parseGround(s)
				if err != nil {
					return err
				}
				extra = append(extra, g)
			}
			a, err := cliCtx.Services.Appeals.Generate(ctx, args[0], extra)
			if err != nil {
				return err
			}
			return PrintResult(cmd, appealTable{Items: []*appeal.Record{a}})
		},
	}
	cmd.Flags().StringArrayVar(&raw, "ground", nil, "additional ground as citation=argument (repeatable)")
	return cmd
}

func newAppealListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <request-id>",
		Short: "List a request's appeal rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			list, err := cliCtx.Services.Appeals.ListAppeals(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, appealTable{Items: list})
		},
	}
}

func newAppealStatusCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "status <appeal-id> <status>",
		Short: "Move an appeal round to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cliCtx, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			a, err := cliCtx.Services.Appeals.UpdateAppealStatus(ctx, args[0], args[1], note)
			if err != nil {
				return err
			}
			return PrintResult(cmd, appealTable{Items: []*appeal.Record{a}})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "history note")
	return cmd
}

//Personal.AI order the ending
