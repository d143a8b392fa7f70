package observability

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"quizbank/internal/exam"
)

type key struct {
	Event   string
	Kind    string
	Outcome string
}

// Collector logs session events as JSON lines and counts them.
type Collector struct {
	db     *sql.DB
	logger *log.Logger

	mu          sync.RWMutex
	eventCounts map[key]int64
	scoreSum    int64
	totalSum    int64
	startedAt   time.Time
}

// NewCollector returns a collector. A nil logger disables event logging; a
// nil db omits pool gauges.
func NewCollector(db *sql.DB, logger *log.Logger) *Collector {
	return &Collector{
		db:          db,
		logger:      logger,
		eventCounts: make(map[key]int64),
		startedAt:   time.Now(),
	}
}

func (c *Collector) Observe(info exam.EventInfo) {
	k := key{Event: string(info.Event), Kind: string(info.Kind), Outcome: outcome(info)}

	c.mu.Lock()
	c.eventCounts[k]++
	if info.Event == exam.EventFinished {
		c.scoreSum += int64(info.Score)
		c.totalSum += int64(info.Total)
	}
	c.mu.Unlock()

	if c.logger == nil {
		return
	}
	entry := map[string]any{
		"session_id": info.SessionID,
		"event":      info.Event,
	}
	if info.QuestionID != 0 {
		entry["question_id"] = info.QuestionID
		entry["kind"] = info.Kind
		entry["attempts"] = info.Attempts
	}
	if info.Correct != nil {
		entry["correct"] = *info.Correct
	}
	if info.Event == exam.EventFinished {
		entry["score"] = info.Score
		entry["total"] = info.Total
	}
	b, _ := json.Marshal(entry)
	c.logger.Printf("%s", string(b))
}

func outcome(info exam.EventInfo) string {
	if info.Event != exam.EventAnswered {
		return ""
	}
	switch {
	case info.Correct == nil:
		return "hidden"
	case *info.Correct:
		return "correct"
	default:
		return "wrong"
	}
}

// WriteMetrics renders counters in text exposition format.
func (c *Collector) WriteMetrics(w io.Writer) error {
	c.mu.RLock()
	countsCopy := make(map[key]int64, len(c.eventCounts))
	for k, v := range c.eventCounts {
		countsCopy[k] = v
	}
	scoreSum, totalSum := c.scoreSum, c.totalSum
	startedAt := c.startedAt
	c.mu.RUnlock()

	keys := make([]key, 0, len(countsCopy))
	for k := range countsCopy {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Event != keys[j].Event {
			return keys[i].Event < keys[j].Event
		}
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Outcome < keys[j].Outcome
	})

	var sb strings.Builder
	sb.WriteString("# quizbank session metrics\n")
	sb.WriteString("# TYPE quizbank_uptime_seconds gauge\n")
	sb.WriteString(fmt.Sprintf("quizbank_uptime_seconds %.0f\n", time.Since(startedAt).Seconds()))

	sb.WriteString("# TYPE quizbank_session_events_total counter\n")
	for _, k := range keys {
		labels := fmt.Sprintf("event=\"%s\"", k.Event)
		if k.Kind != "" {
			labels += fmt.Sprintf(",kind=\"%s\"", k.Kind)
		}
		if k.Outcome != "" {
			labels += fmt.Sprintf(",outcome=\"%s\"", k.Outcome)
		}
		sb.WriteString(fmt.Sprintf("quizbank_session_events_total{%s} %d\n", labels, countsCopy[k]))
	}

	sb.WriteString("# TYPE quizbank_score_sum counter\n")
	sb.WriteString(fmt.Sprintf("quizbank_score_sum %d\n", scoreSum))
	sb.WriteString("# TYPE quizbank_questions_total counter\n")
	sb.WriteString(fmt.Sprintf("quizbank_questions_total %d\n", totalSum))

	if c.db != nil {
		dbs := c.db.Stats()
		sb.WriteString("# TYPE quizbank_db_open_connections gauge\n")
		sb.WriteString(fmt.Sprintf("quizbank_db_open_connections %d\n", dbs.OpenConnections))
		sb.WriteString("# TYPE quizbank_db_in_use_connections gauge\n")
		sb.WriteString(fmt.Sprintf("quizbank_db_in_use_connections %d\n", dbs.InUse))
		sb.WriteString("# TYPE quizbank_db_wait_count counter\n")
		sb.WriteString(fmt.Sprintf("quizbank_db_wait_count %d\n", dbs.WaitCount))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
