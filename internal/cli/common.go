package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"strings"

	"quizbank/internal/app"
	"quizbank/internal/app/output"
	"quizbank/internal/bank"
	"quizbank/internal/db"
	"quizbank/internal/question"
)

type dbFlags struct {
	driver *string
	dsn    *string
}

func addDBFlags(flags *flag.FlagSet) dbFlags {
	return dbFlags{
		driver: flags.String("driver", "", "Database driver: sqlite or postgres (default from config)"),
		dsn:    flags.String("dsn", "", "Database DSN (default from config)"),
	}
}

// openBank connects to the configured store. Callers close the returned
// handle.
func openBank(ctx context.Context, cfg app.Config, f dbFlags) (*bank.Service, *sql.DB, error) {
	driver, err := db.ParseDriver(firstNonEmpty(*f.driver, cfg.DBDriver))
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(ctx, driver, strings.TrimSpace(firstNonEmpty(*f.dsn, cfg.DBDSN)), cfg.PoolConfig())
	if err != nil {
		return nil, nil, err
	}
	return bank.NewService(conn, driver), conn, nil
}

type filterFlags struct {
	topic    *string
	subtopic *string
	label    *string
}

func addFilterFlags(flags *flag.FlagSet) filterFlags {
	return filterFlags{
		topic:    flags.String("topic", "", "Only questions in this topic"),
		subtopic: flags.String("subtopic", "", "Only questions in this subtopic"),
		label:    flags.String("label", "", "Only questions whose stored type label matches"),
	}
}

func (f filterFlags) filter() bank.Filter {
	var out bank.Filter
	if v := strings.TrimSpace(*f.topic); v != "" {
		out.Topics = []string{v}
	}
	if v := strings.TrimSpace(*f.subtopic); v != "" {
		out.Subtopics = []string{v}
	}
	if v := strings.TrimSpace(*f.label); v != "" {
		out.KindLabels = []string{v}
	}
	return out
}

// loadRecords reads the bank from a file when one is given, otherwise from
// the database.
func loadRecords(ctx context.Context, cfg app.Config, path string, dbf dbFlags, filter bank.Filter) ([]question.RawQuestionRecord, *sql.DB, error) {
	if strings.TrimSpace(path) != "" {
		all, err := bank.LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		out := make([]question.RawQuestionRecord, 0, len(all))
		for _, rec := range all {
			if filter.Matches(rec) {
				out = append(out, rec)
			}
		}
		return out, nil, nil
	}
	svc, conn, err := openBank(ctx, cfg, dbf)
	if err != nil {
		return nil, nil, err
	}
	var src bank.RecordSource = svc
	if cfg.RedisURL != "" {
		client, err := bank.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		defer client.Close()
		src = bank.NewCachedSource(svc, client, cfg.CacheTTL())
	}
	records, err := src.LoadRecords(ctx, filter)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return records, conn, nil
}

// invalidateCache drops cached record sets after the bank changed.
func invalidateCache(ctx context.Context, cfg app.Config) error {
	if cfg.RedisURL == "" {
		return nil
	}
	client, err := bank.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()
	return bank.NewCachedSource(nil, client, cfg.CacheTTL()).Invalidate(ctx)
}

// fail reports err on stderr, or as a JSON envelope on stdout in JSON mode.
func fail(stdio Stdio, name string, jsonOut bool, err error) int {
	if jsonOut {
		_ = output.WriteError(stdio.Out, name, err)
		return ExitError
	}
	fmt.Fprintf(stdio.Err, "%s failed: %v\n", name, err)
	return ExitError
}
