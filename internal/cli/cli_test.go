package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const bankYAML = `
questions:
  - id: 1
    type: True/False
    text: Leaders delegate
    topic: Leadership
    explanation: Delegation is part of leading.
    options:
      - text: "True"
        is_correct: true
      - text: "False"
  - id: 2
    type: MCQ
    text: Pick B
    topic: Leadership
    subtopic: Basics
    options:
      - text: A
      - text: B
        is_correct: true
      - text: C
  - id: 3
    type: MCQ
    text: Repeated option
    topic: Leadership
    options:
      - text: A
      - text: A
      - text: B
        is_correct: true
  - id: 4
    type: essay
    text: Describe leadership
    topic: Leadership
    options: []
`

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("QUIZBANK_CONFIG_FILE", "")
	t.Setenv("QUIZBANK_LOG_EVENTS", "off")
	t.Setenv("QUIZBANK_REDIS_URL", "")
	t.Setenv("QUIZBANK_DB_DRIVER", "sqlite")
	t.Setenv("QUIZBANK_DB_DSN", "file:"+filepath.Join(t.TempDir(), "bank.db"))
}

func writeBank(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no args", args: nil, want: ExitUsage},
		{name: "help", args: []string{"help"}, want: ExitOK},
		{name: "unknown", args: []string{"serve"}, want: ExitUsage},
		{name: "command help", args: []string{"check", "--help"}, want: ExitOK},
		{name: "bad flag", args: []string{"check", "--nope"}, want: ExitUsage},
		{name: "extra args", args: []string{"schema", "extra"}, want: ExitUsage},
		{name: "missing id", args: []string{"inspect"}, want: ExitUsage},
		{name: "missing text", args: []string{"search"}, want: ExitUsage},
		{name: "missing file", args: []string{"import"}, want: ExitUsage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code, _, _ := run(t, "", tc.args...); code != tc.want {
				t.Fatalf("expected exit %d, got %d", tc.want, code)
			}
		})
	}
}

func TestCheckFromFile(t *testing.T) {
	isolateConfig(t)
	path := writeBank(t, bankYAML)
	xlsx := filepath.Join(t.TempDir(), "issues.xlsx")

	code, out, errOut := run(t, "", "check", "--file", path, "--issues", "--xlsx", xlsx)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d: %s", ExitOK, code, errOut)
	}
	for _, want := range []string{"Valid questions: 2", "Excluded questions: 2", "duplicate_option", "invalid_kind", "Workbook written"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Anomalies")
	if err != nil {
		t.Fatalf("read anomalies: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one anomaly, got %d rows", len(rows))
	}
}

func TestCheckJSONAndKindFilter(t *testing.T) {
	isolateConfig(t)
	path := writeBank(t, bankYAML)

	code, out, _ := run(t, "", "check", "--file", path, "--kind", "true/false", "--json")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d", ExitOK, code)
	}
	var env struct {
		OK   bool        `json:"ok"`
		Data checkResult `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !env.OK || env.Data.Summary.Valid != 1 || len(env.Data.Issues) != 2 {
		t.Fatalf("unexpected check result %+v", env.Data)
	}

	code, out, _ = run(t, "", "check", "--file", path, "--kind", "essay", "--json")
	if code != ExitError || !strings.Contains(out, `"invalid_argument"`) {
		t.Fatalf("expected invalid_argument envelope, got %d %s", code, out)
	}
}

func TestCheckCollapsePolicy(t *testing.T) {
	isolateConfig(t)
	path := writeBank(t, bankYAML)
	code, out, _ := run(t, "", "check", "--file", path, "--duplicates", "collapse")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d", ExitOK, code)
	}
	if !strings.Contains(out, "Valid questions: 3") || !strings.Contains(out, "Repaired duplicates: 1") {
		t.Fatalf("expected the duplicate record to be repaired, got:\n%s", out)
	}
}

func TestDatabaseCommands(t *testing.T) {
	isolateConfig(t)
	path := writeBank(t, bankYAML)

	code, out, errOut := run(t, "", "import", "--file", path)
	if code != ExitOK || !strings.Contains(out, "Imported 4 question(s)") {
		t.Fatalf("import failed: %d %s %s", code, out, errOut)
	}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "schema", args: []string{"schema"}, want: []string{"Questions: 4", `"essay"`, "Leadership (4)", "- Basics (1)"}},
		{name: "search", args: []string{"search", "--text", "repeated"}, want: []string{"Found 1 question(s)", "3 [MCQ]"}},
		{name: "inspect valid", args: []string{"inspect", "--id", "2"}, want: []string{"Verdict:  valid single-choice", "Answer:   B"}},
		{name: "inspect excluded", args: []string{"inspect", "--id", "3"}, want: []string{"Verdict:  excluded", "duplicate_option"}},
		{name: "check label", args: []string{"check", "--label", "mcq"}, want: []string{"Valid questions: 1", "Excluded questions: 1"}},
		{name: "export", args: []string{"export", "--topic", "Leadership", "--subtopic", "Basics"}, want: []string{"text: Pick B", "is_correct: true"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out, errOut := run(t, "", tc.args...)
			if code != ExitOK {
				t.Fatalf("expected exit %d, got %d: %s", ExitOK, code, errOut)
			}
			for _, want := range tc.want {
				if !strings.Contains(out, want) {
					t.Fatalf("expected output to contain %q, got:\n%s", want, out)
				}
			}
		})
	}

	code, out, _ = run(t, "", "inspect", "--id", "99", "--json")
	if code != ExitError || !strings.Contains(out, `"not_found"`) {
		t.Fatalf("expected not_found envelope, got %d %s", code, out)
	}
}

func TestPlayDeferredSession(t *testing.T) {
	isolateConfig(t)
	path := writeBank(t, bankYAML)

	code, out, errOut := run(t, "1\n", "play", "--file", path, "--label", "true/false", "--count", "1", "--feedback", "deferred", "--seed", "7")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d: %s", ExitOK, code, errOut)
	}
	for _, want := range []string{"Leaders delegate", "Answer recorded.", "(completed)", "Score: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPlayQuitForcesFinish(t *testing.T) {
	isolateConfig(t)
	path := writeBank(t, bankYAML)
	code, out, _ := run(t, "q\n", "play", "--file", path, "--count", "2", "--seed", "3", "--metrics")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d", ExitOK, code)
	}
	for _, want := range []string{"(forced)", "Score: 0/2", "unanswered", `quizbank_session_events_total{event="session_finished"} 1`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPlayRetryFlow(t *testing.T) {
	isolateConfig(t)
	body := `
questions:
  - id: 1
    type: MCQ
    text: Pick B
    topic: Leadership
    options:
      - text: A
      - text: B
        is_correct: true
`
	path := writeBank(t, body)
	// Each retry reshuffles the two choices, so keep answering 1 until it
	// lands on B.
	input := strings.Repeat("1\ny\n", 30)
	code, out, errOut := run(t, input, "play", "--file", path, "--retries", "--seed", "11")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d: %s", ExitOK, code, errOut)
	}
	if !strings.Contains(out, "Correct!") {
		t.Fatalf("expected one correct answer, got:\n%s", out)
	}
	if !strings.Contains(out, "Score: 1/1") {
		t.Fatalf("expected final score 1/1, got:\n%s", out)
	}
}
