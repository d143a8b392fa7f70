package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"quizbank/internal/app"
	"quizbank/internal/app/output"
	"quizbank/internal/question"
	"quizbank/internal/report"
)

type checkResult struct {
	Summary report.BankSummary         `json:"summary"`
	Issues  []question.ValidationIssue `json:"issues"`
	Repairs []question.ValidationIssue `json:"repairs"`
}

func runCheck(cmd *Command) func(args []string, stdio Stdio) int {
	return func(args []string, stdio Stdio) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		file := flags.String("file", "", "Read the bank from a YAML or JSON file instead of the database")
		dbf := addDBFlags(flags)
		ff := addFilterFlags(flags)
		kind := flags.String("kind", "", "Only count questions of this canonical kind")
		duplicates := flags.String("duplicates", "", "Duplicate policy: exclude or collapse (default from config)")
		listIssues := flags.Bool("issues", false, "List every issue")
		xlsxPath := flags.String("xlsx", "", "Write the issue workbook to this path")
		jsonOut := flags.Bool("json", false, "Print JSON")
		if code, ok := parseFlags(cmd, flags, args, stdio); !ok {
			return code
		}

		cfg, err := app.LoadConfig()
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		policyRaw := cfg.DuplicatePolicy
		if strings.TrimSpace(*duplicates) != "" {
			policyRaw = *duplicates
		}
		policy, err := question.ParseDuplicatePolicy(policyRaw)
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}

		ctx := context.Background()
		records, conn, err := loadRecords(ctx, cfg, *file, dbf, ff.filter())
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		if conn != nil {
			defer conn.Close()
		}

		pool, err := question.BuildPool(records, question.ValidateOptions{Duplicates: policy})
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		if strings.TrimSpace(*kind) != "" {
			k, ok := question.ParseKind(*kind)
			if !ok {
				return fail(stdio, cmd.Name, *jsonOut, fmt.Errorf("%w: kind %q", question.ErrInvalidArgument, *kind))
			}
			pool.Questions = keepKind(pool.Questions, k)
		}

		summary := report.Summarize(pool)
		if *xlsxPath != "" {
			data, err := report.ExportIssuesExcel(summary, pool.Issues, pool.Repairs)
			if err != nil {
				return fail(stdio, cmd.Name, *jsonOut, err)
			}
			if err := os.WriteFile(*xlsxPath, data, 0o644); err != nil {
				return fail(stdio, cmd.Name, *jsonOut, fmt.Errorf("write workbook: %w", err))
			}
		}

		if *jsonOut {
			res := checkResult{Summary: summary, Issues: pool.Issues, Repairs: pool.Repairs}
			if err := output.WriteOK(stdio.Out, cmd.Name, res); err != nil {
				return ExitError
			}
			return ExitOK
		}
		if err := writeCheckText(stdio.Out, summary, pool, *listIssues); err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		if *xlsxPath != "" {
			fmt.Fprintf(stdio.Out, "\nWorkbook written to %s\n", *xlsxPath)
		}
		return ExitOK
	}
}

func writeCheckText(w io.Writer, summary report.BankSummary, pool question.Pool, listIssues bool) error {
	if err := report.WriteText(w, summary); err != nil {
		return err
	}
	if !listIssues {
		return nil
	}
	if len(pool.Issues) > 0 {
		fmt.Fprintln(w, "\n=== ISSUES ===")
		if err := report.WriteIssues(w, pool.Issues); err != nil {
			return err
		}
	}
	if len(pool.Repairs) > 0 {
		fmt.Fprintln(w, "\n=== REPAIRS ===")
		if err := report.WriteIssues(w, pool.Repairs); err != nil {
			return err
		}
	}
	return nil
}

func keepKind(in []question.ValidatedQuestion, k question.Kind) []question.ValidatedQuestion {
	out := make([]question.ValidatedQuestion, 0, len(in))
	for _, q := range in {
		if q.Kind == k {
			out = append(out, q)
		}
	}
	return out
}
