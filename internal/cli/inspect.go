package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"quizbank/internal/app"
	"quizbank/internal/app/output"
	"quizbank/internal/question"
)

type inspectResult struct {
	Record   question.RawQuestionRecord  `json:"record"`
	Valid    bool                        `json:"valid"`
	Question *question.ValidatedQuestion `json:"question,omitempty"`
	Issues   []question.ValidationIssue  `json:"issues"`
	Repairs  []question.ValidationIssue  `json:"repairs"`
}

func runInspect(cmd *Command) func(args []string, stdio Stdio) int {
	return func(args []string, stdio Stdio) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		id := flags.Int64("id", 0, "Question id")
		dbf := addDBFlags(flags)
		duplicates := flags.String("duplicates", "", "Duplicate policy: exclude or collapse (default from config)")
		jsonOut := flags.Bool("json", false, "Print JSON")
		if code, ok := parseFlags(cmd, flags, args, stdio); !ok {
			return code
		}
		if *id <= 0 {
			fmt.Fprintln(stdio.Err, "--id is required")
			printCommandUsage(cmd, stdio.Err)
			return ExitUsage
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
		svc, conn, err := openBank(ctx, cfg, dbf)
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		defer conn.Close()

		rec, err := svc.GetRecord(ctx, *id)
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		pool, err := question.BuildPool([]question.RawQuestionRecord{rec}, question.ValidateOptions{Duplicates: policy})
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		res := inspectResult{Record: rec, Valid: len(pool.Questions) == 1, Issues: pool.Issues, Repairs: pool.Repairs}
		if res.Valid {
			res.Question = &pool.Questions[0]
		}

		if *jsonOut {
			if err := output.WriteOK(stdio.Out, cmd.Name, res); err != nil {
				return ExitError
			}
			return ExitOK
		}
		writeInspectText(stdio.Out, res)
		return ExitOK
	}
}

func writeInspectText(w io.Writer, res inspectResult) {
	rec := res.Record
	fmt.Fprintf(w, "=== QUESTION %d ===\n", rec.ID)
	fmt.Fprintf(w, "Type:     %q\n", rec.KindLabel)
	fmt.Fprintf(w, "Topic:    %s / %s\n", rec.Topic, rec.SubtopicOrDefault())
	fmt.Fprintf(w, "Text:     %s\n", rec.Prompt)
	if rec.Explanation != "" {
		fmt.Fprintf(w, "Explain:  %s\n", rec.Explanation)
	}

	fmt.Fprintf(w, "\nOptions (%d):\n", len(rec.Options))
	for i, o := range rec.Options {
		mark := " "
		if o.IsCorrect {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %d. %q\n", mark, i+1, o.Text)
	}
	if len(rec.Pairs) > 0 {
		fmt.Fprintf(w, "\nPairs (%d):\n", len(rec.Pairs))
		for i, p := range rec.Pairs {
			fmt.Fprintf(w, "  %d. %q = %q\n", i+1, p.Left, p.Right)
		}
	}

	fmt.Fprintln(w)
	if res.Question != nil {
		q := res.Question
		fmt.Fprintf(w, "Verdict:  valid %s", q.Kind)
		if q.Subtype != question.SubtypeNone {
			fmt.Fprintf(w, " (%s)", q.Subtype)
		}
		fmt.Fprintf(w, "\nAnswer:   %s\n", strings.Join(q.AnswerKey.Texts(), "; "))
	} else {
		fmt.Fprintln(w, "Verdict:  excluded")
	}
	for _, is := range res.Issues {
		fmt.Fprintf(w, "  [%s] %s: %s\n", is.Category, is.Check, is.Reason)
	}
	for _, is := range res.Repairs {
		fmt.Fprintf(w, "  [repaired] %s: %s\n", is.Check, is.Reason)
	}
}
