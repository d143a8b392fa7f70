package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quizbank/internal/db"
	"quizbank/internal/question"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrQuestionNotFound = errors.New("question not found")
)

// Service reads and writes the question bank tables.
type Service struct {
	db     *sql.DB
	driver db.Driver
}

func NewService(conn *sql.DB, driver db.Driver) *Service {
	return &Service{db: conn, driver: driver}
}

// Filter narrows LoadRecords. Empty fields match everything. Kind labels are
// compared case-insensitively against the stored label text.
type Filter struct {
	Topics     []string
	Subtopics  []string
	KindLabels []string
}

const subtopicExpr = `COALESCE(NULLIF(TRIM(q.subtopic), ''), 'General')`

func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	add := func(expr string, values []string, lower bool) {
		vals := cleanValues(values)
		if len(vals) == 0 {
			return
		}
		if lower {
			expr = "LOWER(" + expr + ")"
		}
		clauses = append(clauses, expr+" IN ("+db.Placeholders(len(vals))+")")
		for _, v := range vals {
			if lower {
				v = strings.ToLower(v)
			}
			args = append(args, v)
		}
	}
	add("TRIM(q.topic)", f.Topics, false)
	add(subtopicExpr, f.Subtopics, false)
	add("TRIM(q.question_type)", f.KindLabels, true)

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Matches applies the same predicate as the SQL filter to an in-memory
// record, for banks loaded from files.
func (f Filter) Matches(rec question.RawQuestionRecord) bool {
	in := func(values []string, v string, lower bool) bool {
		vals := cleanValues(values)
		if len(vals) == 0 {
			return true
		}
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		for _, want := range vals {
			if lower {
				want = strings.ToLower(want)
			}
			if want == v {
				return true
			}
		}
		return false
	}
	return in(f.Topics, rec.Topic, false) &&
		in(f.Subtopics, rec.SubtopicOrDefault(), false) &&
		in(f.KindLabels, rec.KindLabel, true)
}

func cleanValues(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadRecords returns every matching question with its options and pairs.
func (s *Service) LoadRecords(ctx context.Context, f Filter) ([]question.RawQuestionRecord, error) {
	where, args := f.where()
	return s.load(ctx, where, args)
}

// GetRecord returns one question by id.
func (s *Service) GetRecord(ctx context.Context, id int64) (question.RawQuestionRecord, error) {
	if id <= 0 {
		return question.RawQuestionRecord{}, ErrInvalidInput
	}
	items, err := s.load(ctx, " WHERE q.id = ?", []any{id})
	if err != nil {
		return question.RawQuestionRecord{}, err
	}
	if len(items) == 0 {
		return question.RawQuestionRecord{}, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	return items[0], nil
}

// SearchRecords finds questions whose prompt contains text, ignoring case.
func (s *Service) SearchRecords(ctx context.Context, text string) ([]question.RawQuestionRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	return s.load(ctx, ` WHERE LOWER(q.question_text) LIKE ? ESCAPE '\'`, []any{pattern})
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Service) load(ctx context.Context, where string, args []any) ([]question.RawQuestionRecord, error) {
	bases, err := s.loadBases(ctx, where, args)
	if err != nil {
		return nil, err
	}
	if len(bases) == 0 {
		return []question.RawQuestionRecord{}, nil
	}
	options, err := s.loadOptions(ctx, where, args)
	if err != nil {
		return nil, err
	}
	pairs, err := s.loadPairs(ctx, where, args)
	if err != nil {
		return nil, err
	}
	return question.GroupRecords(bases, options, pairs), nil
}

func (s *Service) loadBases(ctx context.Context, where string, args []any) ([]question.BaseRow, error) {
	query := `
		SELECT q.id, q.question_type, q.question_text, q.topic, q.subtopic, q.explanation
		FROM questions q` + where + `
		ORDER BY q.id`

	rows, err := s.db.QueryContext(ctx, db.Rebind(s.driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	items := make([]question.BaseRow, 0)
	for rows.Next() {
		item, err := scanBaseRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return items, nil
}

func (s *Service) loadOptions(ctx context.Context, where string, args []any) ([]question.OptionRow, error) {
	query := `
		SELECT o.question_id, o.option_text, o.is_correct
		FROM options o
		WHERE o.question_id IN (SELECT q.id FROM questions q` + where + `)
		ORDER BY o.question_id, o.id`

	rows, err := s.db.QueryContext(ctx, db.Rebind(s.driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	items := make([]question.OptionRow, 0)
	for rows.Next() {
		var item question.OptionRow
		var text sql.NullString
		var correct sql.NullBool
		if err := rows.Scan(&item.QuestionID, &text, &correct); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		item.Text = text.String
		item.IsCorrect = correct.Valid && correct.Bool
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	return items, nil
}

func (s *Service) loadPairs(ctx context.Context, where string, args []any) ([]question.PairRow, error) {
	query := `
		SELECT m.question_id, m.left_text, m.right_text
		FROM match_pairs m
		WHERE m.question_id IN (SELECT q.id FROM questions q` + where + `)
		ORDER BY m.question_id, m.id`

	rows, err := s.db.QueryContext(ctx, db.Rebind(s.driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("query match pairs: %w", err)
	}
	defer rows.Close()

	items := make([]question.PairRow, 0)
	for rows.Next() {
		var item question.PairRow
		var left, right sql.NullString
		if err := rows.Scan(&item.QuestionID, &left, &right); err != nil {
			return nil, fmt.Errorf("scan match pair: %w", err)
		}
		item.Left, item.Right = left.String, right.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match pairs: %w", err)
	}
	return items, nil
}

func scanBaseRow(scanner interface{ Scan(dest ...any) error }) (question.BaseRow, error) {
	var out question.BaseRow
	var kind, text, topic, subtopic, explanation sql.NullString
	if err := scanner.Scan(&out.ID, &kind, &text, &topic, &subtopic, &explanation); err != nil {
		return question.BaseRow{}, fmt.Errorf("scan question: %w", err)
	}
	out.KindLabel = kind.String
	out.Prompt = text.String
	out.Topic = topic.String
	out.Subtopic = subtopic.String
	out.Explanation = explanation.String
	return out, nil
}

// LabelCount is a value with the number of questions carrying it.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopicOverview lists a topic's subtopics with counts.
type TopicOverview struct {
	Topic     string       `json:"topic"`
	Count     int          `json:"count"`
	Subtopics []LabelCount `json:"subtopics"`
}

// Overview describes what the bank holds without validating it.
type Overview struct {
	Questions int             `json:"questions"`
	Options   int             `json:"options"`
	Pairs     int             `json:"pairs"`
	Kinds     []LabelCount    `json:"kinds"`
	Topics    []TopicOverview `json:"topics"`
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	out := &Overview{Kinds: []LabelCount{}, Topics: []TopicOverview{}}

	counts := []struct {
		table string
		dest  *int
	}{
		{table: "questions", dest: &out.Questions},
		{table: "options", dest: &out.Options},
		{table: "match_pairs", dest: &out.Pairs},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(q.question_type, ''), COUNT(*)
		FROM questions q
		GROUP BY q.question_type
		ORDER BY q.question_type`)
	if err != nil {
		return nil, fmt.Errorf("query question types: %w", err)
	}
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan question type: %w", err)
		}
		out.Kinds = append(out.Kinds, lc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate question types: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT COALESCE(q.topic, ''), `+subtopicExpr+` AS sub, COUNT(*)
		FROM questions q
		GROUP BY q.topic, sub
		ORDER BY q.topic, sub`)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var topic string
		var sub LabelCount
		if err := rows.Scan(&topic, &sub.Label, &sub.Count); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		n := len(out.Topics)
		if n == 0 || out.Topics[n-1].Topic != topic {
			out.Topics = append(out.Topics, TopicOverview{Topic: topic, Subtopics: []LabelCount{}})
			n++
		}
		out.Topics[n-1].Count += sub.Count
		out.Topics[n-1].Subtopics = append(out.Topics[n-1].Subtopics, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return out, nil
}

// ImportRecords inserts records with their options and pairs in one
// transaction. Records with an id keep it; others get a generated one.
func (s *Service) ImportRecords(ctx context.Context, records []question.RawQuestionRecord) ([]int64, error) {
	if len(records) == 0 {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertOption := db.Rebind(s.driver, `INSERT INTO options (question_id, option_text, is_correct) VALUES (?, ?, ?)`)
	insertPair := db.Rebind(s.driver, `INSERT INTO match_pairs (question_id, left_text, right_text) VALUES (?, ?, ?)`)

	ids := make([]int64, 0, len(records))
	explicit := false
	for _, rec := range records {
		var id int64
		if rec.ID > 0 {
			explicit = true
			err = tx.QueryRowContext(ctx, db.Rebind(s.driver, `
				INSERT INTO questions (id, question_type, question_text, topic, subtopic, explanation)
				VALUES (?, ?, ?, ?, ?, ?)
				RETURNING id`),
				rec.ID, rec.KindLabel, rec.Prompt, rec.Topic, nullableText(rec.Subtopic), nullableText(rec.Explanation),
			).Scan(&id)
		} else {
			err = tx.QueryRowContext(ctx, db.Rebind(s.driver, `
				INSERT INTO questions (question_type, question_text, topic, subtopic, explanation)
				VALUES (?, ?, ?, ?, ?)
				RETURNING id`),
				rec.KindLabel, rec.Prompt, rec.Topic, nullableText(rec.Subtopic), nullableText(rec.Explanation),
			).Scan(&id)
		}
		if err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}

		for _, o := range rec.Options {
			if _, err := tx.ExecContext(ctx, insertOption, id, o.Text, o.IsCorrect); err != nil {
				return nil, fmt.Errorf("insert option: %w", err)
			}
		}
		for _, p := range rec.Pairs {
			if _, err := tx.ExecContext(ctx, insertPair, id, p.Left, p.Right); err != nil {
				return nil, fmt.Errorf("insert match pair: %w", err)
			}
		}
		ids = append(ids, id)
	}

	if explicit && s.driver == db.DriverPostgres {
		if _, err := tx.ExecContext(ctx, `
			SELECT setval(pg_get_serial_sequence('questions', 'id'), (SELECT MAX(id) FROM questions))`); err != nil {
			return nil, fmt.Errorf("advance question id sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return ids, nil
}

func nullableText(v string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return v
}
