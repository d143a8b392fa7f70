package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"quizbank/internal/app"
	"quizbank/internal/app/observability"
	"quizbank/internal/exam"
	"quizbank/internal/question"
	"quizbank/internal/tui"
)

func runPlay(cmd *Command) func(args []string, stdio Stdio) int {
	return func(args []string, stdio Stdio) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		file := flags.String("file", "", "Read the bank from a YAML or JSON file instead of the database")
		dbf := addDBFlags(flags)
		ff := addFilterFlags(flags)
		count := flags.Int("count", 0, "Number of questions (default from config)")
		strategy := flags.String("strategy", "", "Sampling strategy: uniform or balanced")
		feedback := flags.String("feedback", "", "Feedback mode: immediate or deferred")
		explain := flags.String("explain", "", "Explanation policy: always, when-wrong or never")
		retries := flags.Bool("retries", false, "Allow retrying wrong answers in immediate mode")
		duplicates := flags.String("duplicates", "", "Duplicate policy: exclude or collapse")
		seed := flags.Uint64("seed", 0, "Seed for sampling and shuffles (0 uses the clock)")
		metrics := flags.Bool("metrics", false, "Print session metrics at the end")
		useTUI := flags.Bool("tui", false, "Run the session in a full-screen terminal UI")
		noColor := flags.Bool("no-color", false, "Disable colors in the terminal UI")
		if code, ok := parseFlags(cmd, flags, args, stdio); !ok {
			return code
		}
		set := map[string]bool{}
		flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

		cfg, err := app.LoadConfig()
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		if *count > 0 {
			cfg.SampleCount = *count
		}
		cfg.Strategy = firstNonEmpty(*strategy, cfg.Strategy)
		cfg.FeedbackMode = firstNonEmpty(*feedback, cfg.FeedbackMode)
		cfg.ExplanationPolicy = firstNonEmpty(*explain, cfg.ExplanationPolicy)
		cfg.DuplicatePolicy = firstNonEmpty(*duplicates, cfg.DuplicatePolicy)
		if set["retries"] {
			cfg.Retries = *retries
		}
		if err := cfg.Validate(); err != nil {
			return fail(stdio, cmd.Name, false, err)
		}

		ctx := context.Background()
		records, conn, err := loadRecords(ctx, cfg, *file, dbf, ff.filter())
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		if conn != nil {
			defer conn.Close()
		}

		policy, _ := question.ParseDuplicatePolicy(cfg.DuplicatePolicy)
		pool, err := question.BuildPool(records, question.ValidateOptions{Duplicates: policy})
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}
		if n := len(pool.Issues); n > 0 {
			fmt.Fprintf(stdio.Err, "%d issue(s) excluded questions from the pool; run \"quizbank check --issues\" for details\n", n)
		}

		rng := exam.NewRand()
		if *seed != 0 {
			rng = rand.New(rand.NewPCG(*seed, *seed))
		}
		strat, _ := exam.ParseStrategy(cfg.Strategy)
		picked, err := exam.Sample(pool.Questions, cfg.SampleCount, strat, rng)
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}

		var logger *log.Logger
		if cfg.LogEvents {
			logger = log.New(stdio.Err, "", log.LstdFlags)
		}
		collector := observability.NewCollector(conn, logger)

		sessCfg := cfg.SessionConfig()
		sessCfg.Observer = collector
		sessCfg.Rand = rng
		sess, err := exam.NewSession(picked, sessCfg)
		if err != nil {
			return fail(stdio, cmd.Name, false, err)
		}

		var summary exam.Summary
		if *useTUI {
			summary, err = tui.Run(sess, stdio.In, stdio.Out, tui.Options{NoColor: *noColor})
			if err != nil {
				return fail(stdio, cmd.Name, false, err)
			}
		} else {
			summary = playSession(sess, stdio)
		}
		writeSummary(stdio.Out, summary)
		if *metrics {
			fmt.Fprintln(stdio.Out)
			if err := collector.WriteMetrics(stdio.Out); err != nil {
				return fail(stdio, cmd.Name, false, err)
			}
		}
		return ExitOK
	}
}

// playSession asks questions until the session finishes, the taker quits,
// input ends or the time limit passes.
func playSession(sess *exam.Session, stdio Stdio) exam.Summary {
	in := bufio.NewScanner(stdio.In)
	out := stdio.Out
	total := len(sess.Questions())
	if deadline, ok := sess.Deadline(); ok {
		fmt.Fprintf(out, "Time limit: finish before %s\n", deadline.Format(time.Kitchen))
	}
	fmt.Fprintln(out, "Type the option number(s), \"q\" to stop.")

	for !sess.Finished() {
		if deadline, ok := sess.Deadline(); ok && time.Now().After(deadline) {
			fmt.Fprintln(out, "\nTime is up.")
			break
		}
		cur, ok := sess.Current()
		if !ok {
			break
		}
		writeQuestion(out, cur, position(sess, cur.Question.ID), total)

		line, ok := readLine(in, out, "answer> ")
		if !ok || strings.EqualFold(line, "q") {
			break
		}
		answer, err := exam.ParseAnswer(cur, line)
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		sub, err := sess.SubmitAnswer(cur.Question.ID, answer)
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		writeFeedback(out, sub)

		if sub.Locked {
			reply, ok := readLine(in, out, "retry? [y/N] ")
			if ok && strings.EqualFold(reply, "y") {
				if _, err := sess.RequestRetry(cur.Question.ID); err != nil {
					fmt.Fprintf(out, "  %v\n", err)
				}
			}
		}
	}
	return sess.Finalize()
}

func position(sess *exam.Session, id int64) int {
	for i, q := range sess.Questions() {
		if q.Question.ID == id {
			return i + 1
		}
	}
	return 0
}

func readLine(in *bufio.Scanner, out io.Writer, prompt string) (string, bool) {
	fmt.Fprint(out, prompt)
	if !in.Scan() {
		fmt.Fprintln(out)
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

func writeQuestion(w io.Writer, sq exam.SessionQuestion, pos, total int) {
	q := sq.Question
	fmt.Fprintf(w, "\n[%d/%d] %s | %s / %s\n", pos, total, q.Kind, q.Topic, q.Subtopic)
	fmt.Fprintln(w, q.Prompt)
	if q.Kind == question.KindAssertionReason {
		fmt.Fprintf(w, "  Assertion: %s\n  Reason:    %s\n", q.Assertion, q.Reason)
	}
	if q.Kind == question.KindMatching {
		for i, l := range sq.Lefts {
			fmt.Fprintf(w, "  %d. %s\n", i+1, l)
		}
		fmt.Fprintln(w, "  --")
		for i, r := range sq.Rights {
			fmt.Fprintf(w, "  %c) %s\n", 'a'+i, r)
		}
		fmt.Fprintln(w, "  Answer as 1=a,2=b,...")
		return
	}
	for i, c := range sq.Choices {
		fmt.Fprintf(w, "  %d) %s\n", i+1, c)
	}
	if q.AnswerKey.Shape == question.KeySet {
		fmt.Fprintln(w, "  Pick every correct option, e.g. 1,3")
	}
}

func writeFeedback(w io.Writer, sub exam.Submission) {
	if sub.IsCorrect == nil {
		fmt.Fprintln(w, "  Answer recorded.")
		return
	}
	if *sub.IsCorrect {
		fmt.Fprintln(w, "  Correct!")
	} else {
		fmt.Fprintf(w, "  Wrong. Answer: %s\n", strings.Join(sub.AnswerKey.Texts(), "; "))
	}
	if sub.Explanation != "" {
		fmt.Fprintf(w, "  %s\n", sub.Explanation)
	}
}

func writeSummary(w io.Writer, s exam.Summary) {
	fmt.Fprintf(w, "\n=== SESSION %s (%s) ===\n", s.SessionID, s.Reason)
	fmt.Fprintf(w, "Score: %d/%d\n", s.Score, s.Total)
	for _, r := range s.Results {
		status := "unanswered"
		if r.Answered {
			status = "wrong"
			if r.IsCorrect {
				status = "correct"
			}
		}
		fmt.Fprintf(w, "  #%d %-10s %s\n", r.ID, status, r.Prompt)
		if !r.IsCorrect {
			fmt.Fprintf(w, "      answer: %s\n", strings.Join(r.AnswerKey.Texts(), "; "))
		}
		if r.Explanation != "" {
			fmt.Fprintf(w, "      %s\n", r.Explanation)
		}
	}
}
