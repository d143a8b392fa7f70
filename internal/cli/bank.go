package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"quizbank/internal/app"
	"quizbank/internal/app/output"
	"quizbank/internal/bank"
	"quizbank/internal/db"
)

func runSearch(cmd *Command) func(args []string, stdio Stdio) int {
	return func(args []string, stdio Stdio) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		text := flags.String("text", "", "Text to look for in question prompts")
		dbf := addDBFlags(flags)
		jsonOut := flags.Bool("json", false, "Print JSON")
		if code, ok := parseFlags(cmd, flags, args, stdio); !ok {
			return code
		}
		if strings.TrimSpace(*text) == "" {
			fmt.Fprintln(stdio.Err, "--text is required")
			printCommandUsage(cmd, stdio.Err)
			return ExitUsage
		}

		cfg, err := app.LoadConfig()
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		ctx := context.Background()
		svc, conn, err := openBank(ctx, cfg, dbf)
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		defer conn.Close()

		records, err := svc.SearchRecords(ctx, *text)
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		if *jsonOut {
			if err := output.WriteOK(stdio.Out, cmd.Name, records); err != nil {
				return ExitError
			}
			return ExitOK
		}
		fmt.Fprintf(stdio.Out, "Found %d question(s)\n", len(records))
		for _, rec := range records {
			fmt.Fprintf(stdio.Out, "  %d [%s] %s / %s: %s\n", rec.ID, rec.KindLabel, rec.Topic, rec.SubtopicOrDefault(), rec.Prompt)
		}
		return ExitOK
	}
}

func runSchema(cmd *Command) func(args []string, stdio Stdio) int {
	return func(args []string, stdio Stdio) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		dbf := addDBFlags(flags)
		jsonOut := flags.Bool("json", false, "Print JSON")
		if code, ok := parseFlags(cmd, flags, args, stdio); !ok {
			return code
		}

		cfg, err := app.LoadConfig()
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		ctx := context.Background()
		svc, conn, err := openBank(ctx, cfg, dbf)
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		defer conn.Close()

		ov, err := svc.Overview(ctx)
		if err != nil {
			return fail(stdio, cmd.Name, *jsonOut, err)
		}
		if *jsonOut {
			if err := output.WriteOK(stdio.Out, cmd.Name, ov); err != nil {
				return ExitError
			}
			return ExitOK
		}

		w := stdio.Out
		fmt.Fprintf(w, "Questions: %d  Options: %d  Pairs: %d\n", ov.Questions, ov.Options, ov.Pairs)
		fmt.Fprintln(w, "\n=== TYPES ===")
		for _, k := range ov.Kinds {
			fmt.Fprintf(w, "  %-28q %d\n", k.Label, k.Count)
		}
		fmt.Fprintln(w, "\n=== TOPICS ===")
		for _, t := range ov.Topics {
			fmt.Fprintf(w, "  %s (%d)\n", t.Topic, t.Count)
			for _, s := range t.Subtopics {
				fmt.Fprintf(w, "    - %s (%d)\n", s.Label, s.Count)
			}
		}
		return ExitOK
	}
}

func runImport(cmd *Command) func(args []string, stdio Stdio) int {
	return func(args []string, stdio Stdio) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		file := flags.String("file", "", "Bank file to import (YAML or JSON)")
		dbf := addDBFlags(flags)
		if code, ok := parseFlags(cmd, flags, args, stdio); !ok {
			return code
		}
		if strings.TrimSpace(*file) == "" {
			fmt.Fprintln(stdio.Err, "--file is required")
			printCommandUsage(cmd, stdio.Err)
			return ExitUsage
		}

		cfg, err := app.LoadConfig()
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		records, err := bank.LoadFile(*file)
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}

		ctx := context.Background()
		svc, conn, err := openBank(ctx, cfg, dbf)
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		defer conn.Close()

		driver, _ := db.ParseDriver(firstNonEmpty(*dbf.driver, cfg.DBDriver))
		if err := db.EnsureSchema(ctx, conn, driver); err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		ids, err := svc.ImportRecords(ctx, records)
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		if err := invalidateCache(ctx, cfg); err != nil {
			fmt.Fprintf(stdio.Err, "warning: cache not cleared: %v\n", err)
		}
		fmt.Fprintf(stdio.Out, "Imported %d question(s)\n", len(ids))
		return ExitOK
	}
}

func runExport(cmd *Command) func(args []string, stdio Stdio) int {
	return func(args []string, stdio Stdio) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		dbf := addDBFlags(flags)
		ff := addFilterFlags(flags)
		out := flags.String("out", "", "Write to this file instead of stdout")
		if code, ok := parseFlags(cmd, flags, args, stdio); !ok {
			return code
		}

		cfg, err := app.LoadConfig()
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		ctx := context.Background()
		svc, conn, err := openBank(ctx, cfg, dbf)
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		defer conn.Close()

		records, err := svc.LoadRecords(ctx, ff.filter())
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		if *out == "" {
			if err := bank.WriteYAML(stdio.Out, records); err != nil {
				return fail(stdio, cmd.Name, false, err)
			}
			return ExitOK
		}

		f, err := os.Create(*out)
		if err != nil {
			return fail(stdio, cmd.Name, false, fmt.Errorf("create %s: %w", *out, err))
		}
		if err := bank.WriteYAML(f, records); err != nil {
			_ = f.Close()
			return fail(stdio, cmd.Name, false, err)
		}
		if err := f.Close(); err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		fmt.Fprintf(stdio.Out, "Exported %d question(s) to %s\n", len(records), *out)
		return ExitOK
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
