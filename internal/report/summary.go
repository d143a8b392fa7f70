package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"quizbank/internal/question"
)

type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type GroupCount struct {
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic"`
	Count    int    `json:"count"`
}

// BankSummary aggregates one validation run for display and export.
type BankSummary struct {
	Valid       int          `json:"valid"`
	Excluded    int          `json:"excluded"`
	IssueCount  int          `json:"issue_count"`
	RepairCount int          `json:"repair_count"`
	ByKind      []Count      `json:"by_kind"`
	BySubtype   []Count      `json:"by_subtype"`
	ByGroup     []GroupCount `json:"by_group"`
	ByCategory  []Count      `json:"by_category"`
	ByCheck     []Count      `json:"by_check"`
}

// Summarize counts valid questions by kind, subtype and topic group, and
// issues by category and check.
func Summarize(pool question.Pool) BankSummary {
	out := BankSummary{
		Valid:       len(pool.Questions),
		IssueCount:  len(pool.Issues),
		RepairCount: len(pool.Repairs),
	}

	kinds := map[string]int{}
	subtypes := map[string]int{}
	groups := map[[2]string]int{}
	for _, q := range pool.Questions {
		kinds[string(q.Kind)]++
		if q.Subtype != question.SubtypeNone {
			subtypes[string(q.Subtype)]++
		}
		groups[[2]string{q.Topic, q.Subtopic}]++
	}
	for _, k := range question.Kinds {
		if n := kinds[string(k)]; n > 0 {
			out.ByKind = append(out.ByKind, Count{Label: string(k), Count: n})
		}
	}
	out.BySubtype = sortedCounts(subtypes)
	for key, n := range groups {
		out.ByGroup = append(out.ByGroup, GroupCount{Topic: key[0], Subtopic: key[1], Count: n})
	}
	sort.Slice(out.ByGroup, func(i, j int) bool {
		if out.ByGroup[i].Topic != out.ByGroup[j].Topic {
			return out.ByGroup[i].Topic < out.ByGroup[j].Topic
		}
		return out.ByGroup[i].Subtopic < out.ByGroup[j].Subtopic
	})

	categories := map[string]int{}
	checks := map[string]int{}
	excluded := map[int64]bool{}
	for _, is := range pool.Issues {
		categories[string(is.Category)]++
		checks[string(is.Check)]++
		excluded[is.ID] = true
	}
	out.Excluded = len(excluded)
	out.ByCategory = sortedCounts(categories)
	out.ByCheck = sortedCounts(checks)
	return out
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// WriteText prints the summary the way the bank check scripts do.
func WriteText(w io.Writer, s BankSummary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== QUESTION BANK ===\n")
	fmt.Fprintf(&b, "Valid questions: %d\n", s.Valid)
	fmt.Fprintf(&b, "Excluded questions: %d\n", s.Excluded)
	fmt.Fprintf(&b, "Issues: %d\n", s.IssueCount)
	if s.RepairCount > 0 {
		fmt.Fprintf(&b, "Repaired duplicates: %d\n", s.RepairCount)
	}

	section := func(title string, counts []Count) {
		if len(counts) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n=== %s ===\n", title)
		for _, c := range counts {
			fmt.Fprintf(&b, "  %-24s %d\n", c.Label, c.Count)
		}
	}
	section("BY KIND", s.ByKind)
	section("BY SUBTYPE", s.BySubtype)

	if len(s.ByGroup) > 0 {
		fmt.Fprintf(&b, "\n=== BY TOPIC ===\n")
		last := ""
		for _, g := range s.ByGroup {
			if g.Topic != last {
				fmt.Fprintf(&b, "  %s\n", g.Topic)
				last = g.Topic
			}
			fmt.Fprintf(&b, "    - %-20s %d\n", g.Subtopic, g.Count)
		}
	}

	section("ISSUES BY CATEGORY", s.ByCategory)
	section("ISSUES BY CHECK", s.ByCheck)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteIssues lists issues one per line.
func WriteIssues(w io.Writer, issues []question.ValidationIssue) error {
	var b strings.Builder
	for _, is := range issues {
		fmt.Fprintf(&b, "[%s] id=%d %s/%s %s: %s\n", is.Category, is.ID, is.Topic, is.Subtopic, is.Check, is.Reason)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
