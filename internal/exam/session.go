package exam

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"quizbank/internal/question"
)

var (
	ErrInvalidArgument  = question.ErrInvalidArgument
	ErrInvalidState     = errors.New("invalid session state")
	ErrQuestionNotFound = errors.New("question not in session")
)

// QuestionState is the delivery state of one question in a session.
type QuestionState string

const (
	StateDisabled QuestionState = "disabled"
	StateActive   QuestionState = "active"
	StateLocked   QuestionState = "locked"
	StateResolved QuestionState = "resolved"
)

// Result is the outcome of the latest attempt at a question.
type Result struct {
	IsCorrect bool   `json:"is_correct"`
	Answer    Answer `json:"answer"`
	Reason    string `json:"reason"`
}

// SessionQuestion is a validated question as delivered in one session.
// Choices and Rights hold the shuffled display order.
type SessionQuestion struct {
	Question   question.ValidatedQuestion `json:"question"`
	Choices    []string                   `json:"choices,omitempty"`
	Lefts      []string                   `json:"lefts,omitempty"`
	Rights     []string                   `json:"rights,omitempty"`
	State      QuestionState              `json:"state"`
	Attempts   int                        `json:"attempts"`
	LastResult *Result                    `json:"last_result,omitempty"`
}

func newSessionQuestion(q question.ValidatedQuestion, rng *rand.Rand) SessionQuestion {
	sq := SessionQuestion{Question: q, State: StateDisabled}
	sq.shuffle(rng)
	return sq
}

// shuffle draws a fresh display order. Matching questions keep the left
// column in pair order and shuffle the right-hand values.
func (sq *SessionQuestion) shuffle(rng *rand.Rand) {
	if sq.Question.Kind == question.KindMatching {
		sq.Lefts = make([]string, 0, len(sq.Question.Pairs))
		for _, p := range sq.Question.Pairs {
			sq.Lefts = append(sq.Lefts, p.Left)
		}
		sq.Rights = sq.Question.RightValues()
		rng.Shuffle(len(sq.Rights), func(i, j int) { sq.Rights[i], sq.Rights[j] = sq.Rights[j], sq.Rights[i] })
		return
	}
	sq.Choices = append([]string(nil), sq.Question.Options...)
	rng.Shuffle(len(sq.Choices), func(i, j int) { sq.Choices[i], sq.Choices[j] = sq.Choices[j], sq.Choices[i] })
}

// Config holds the session's feedback rules.
type Config struct {
	Feedback    FeedbackMode
	Explanation ExplanationPolicy
	Retries     bool
	// TimeLimit is informational; the host owns the timer and calls Finalize.
	TimeLimit time.Duration
	Observer  Observer
	Rand      *rand.Rand
}

// Session drives one taker through a sampled question list. It is not safe
// for concurrent use.
type Session struct {
	id        string
	cfg       Config
	rng       *rand.Rand
	questions []SessionQuestion
	index     map[int64]int
	frontier  int
	startedAt time.Time
	finished  bool
	summary   *Summary
}

func NewSession(questions []SessionQuestion, cfg Config) (*Session, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: session needs at least one question", ErrInvalidArgument)
	}
	if cfg.Feedback == "" {
		cfg.Feedback = FeedbackImmediate
	}
	if cfg.Explanation == "" {
		cfg.Explanation = ExplainAlways
	}
	if _, err := ParseFeedbackMode(string(cfg.Feedback)); err != nil {
		return nil, err
	}
	if _, err := ParseExplanationPolicy(string(cfg.Explanation)); err != nil {
		return nil, err
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	rng := cfg.Rand
	if rng == nil {
		rng = NewRand()
	}

	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		rng:       rng,
		questions: make([]SessionQuestion, len(questions)),
		index:     make(map[int64]int, len(questions)),
		startedAt: time.Now(),
	}
	for i, q := range questions {
		if _, dup := s.index[q.Question.ID]; dup {
			return nil, fmt.Errorf("%w: question %d appears twice", ErrInvalidArgument, q.Question.ID)
		}
		q.State = StateDisabled
		q.Attempts = 0
		q.LastResult = nil
		s.questions[i] = q
		s.index[q.Question.ID] = i
	}
	s.questions[0].State = StateActive
	s.emit(EventStarted, nil, nil)
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Config() Config { return s.cfg }

func (s *Session) Finished() bool { return s.finished }

func (s *Session) StartedAt() time.Time { return s.startedAt }

// Deadline returns the moment the time limit runs out, if one is set.
func (s *Session) Deadline() (time.Time, bool) {
	if s.cfg.TimeLimit <= 0 {
		return time.Time{}, false
	}
	return s.startedAt.Add(s.cfg.TimeLimit), true
}

// Questions returns a copy of the session's questions in delivery order.
// Verdicts stay redacted while results are hidden.
func (s *Session) Questions() []SessionQuestion {
	out := make([]SessionQuestion, len(s.questions))
	for i, q := range s.questions {
		out[i] = s.visible(q)
	}
	return out
}

// Question returns one question by id.
func (s *Session) Question(id int64) (SessionQuestion, error) {
	i, ok := s.index[id]
	if !ok {
		return SessionQuestion{}, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	return s.visible(s.questions[i]), nil
}

// Current returns the first question open for an answer.
func (s *Session) Current() (SessionQuestion, bool) {
	for _, q := range s.questions {
		if q.State == StateActive {
			return s.visible(q), true
		}
	}
	return SessionQuestion{}, false
}

// visible copies a question for callers. In deferred mode the stored answer
// is kept and the verdict dropped until the session finishes.
func (s *Session) visible(q SessionQuestion) SessionQuestion {
	if q.LastResult == nil {
		return q
	}
	r := *q.LastResult
	if !canRevealResult(s.cfg.Feedback, s.finished) {
		r = Result{Answer: r.Answer}
	}
	q.LastResult = &r
	return q
}

// Locked returns the ids of questions waiting for a retry.
func (s *Session) Locked() []int64 {
	var out []int64
	for _, q := range s.questions {
		if q.State == StateLocked {
			out = append(out, q.Question.ID)
		}
	}
	return out
}

// Score returns the number of questions whose latest answer is correct.
// Deferred sessions keep it hidden until they are finished.
func (s *Session) Score() (score, total int, err error) {
	if !canRevealResult(s.cfg.Feedback, s.finished) {
		return 0, len(s.questions), fmt.Errorf("%w: score is hidden until the session finishes", ErrInvalidState)
	}
	score, total = s.tally()
	return score, total, nil
}

func (s *Session) tally() (score, total int) {
	for _, q := range s.questions {
		if q.LastResult != nil && q.LastResult.IsCorrect {
			score++
		}
	}
	return score, len(s.questions)
}

// Submission is what the taker learns right after answering. Verdict fields
// stay empty in deferred mode.
type Submission struct {
	QuestionID  int64               `json:"question_id"`
	IsCorrect   *bool               `json:"is_correct,omitempty"`
	AnswerKey   *question.AnswerKey `json:"answer_key,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
	Locked      bool                `json:"locked"`
	NextID      int64               `json:"next_id,omitempty"`
	HasNext     bool                `json:"has_next"`
	Finished    bool                `json:"finished"`
}

// SubmitAnswer records an answer for an active question and advances the
// session.
func (s *Session) SubmitAnswer(id int64, answer Answer) (Submission, error) {
	if s.finished {
		return Submission{}, fmt.Errorf("%w: session is finished", ErrInvalidState)
	}
	i, ok := s.index[id]
	if !ok {
		return Submission{}, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	q := &s.questions[i]
	if q.State != StateActive {
		return Submission{}, fmt.Errorf("%w: question %d is %s", ErrInvalidState, id, q.State)
	}

	scored := ScoreQuestion(q.Question, answer)
	switch scored.Reason {
	case "unanswered":
		return Submission{}, fmt.Errorf("%w: empty answer for question %d", ErrInvalidArgument, id)
	case "malformed_payload":
		return Submission{}, fmt.Errorf("%w: answer does not fit question %d", ErrInvalidArgument, id)
	case "malformed_answer_key":
		return Submission{}, fmt.Errorf("%w: question %d has no usable answer key", ErrInvalidState, id)
	}
	correct := scored.IsCorrect != nil && *scored.IsCorrect

	q.Attempts++
	q.LastResult = &Result{IsCorrect: correct, Answer: answer, Reason: scored.Reason}
	if !correct && retryAllowed(s.cfg.Feedback, s.cfg.Retries) {
		q.State = StateLocked
	} else {
		q.State = StateResolved
	}

	if i == s.frontier {
		s.frontier++
		if s.frontier < len(s.questions) {
			s.questions[s.frontier].State = StateActive
		}
	}

	sub := Submission{QuestionID: id, Locked: q.State == StateLocked}
	reveal := canRevealResult(s.cfg.Feedback, false)
	if reveal {
		sub.IsCorrect = boolPtr(correct)
		key := q.Question.AnswerKey
		sub.AnswerKey = &key
		if showExplanation(s.cfg.Explanation, correct) {
			sub.Explanation = q.Question.Explanation
		}
	}
	if next, ok := s.Current(); ok {
		sub.NextID = next.Question.ID
		sub.HasNext = true
	}

	var verdict *bool
	if reveal {
		verdict = boolPtr(correct)
	}
	s.emit(EventAnswered, q, verdict)

	if s.allResolved() {
		s.finish("completed")
		sub.Finished = true
	}
	return sub, nil
}

// RequestRetry reopens a locked question with a fresh option order and no
// prior result.
func (s *Session) RequestRetry(id int64) (SessionQuestion, error) {
	if s.finished {
		return SessionQuestion{}, fmt.Errorf("%w: session is finished", ErrInvalidState)
	}
	if !retryAllowed(s.cfg.Feedback, s.cfg.Retries) {
		return SessionQuestion{}, fmt.Errorf("%w: retries are disabled", ErrInvalidState)
	}
	i, ok := s.index[id]
	if !ok {
		return SessionQuestion{}, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	q := &s.questions[i]
	if q.State != StateLocked {
		return SessionQuestion{}, fmt.Errorf("%w: question %d is %s", ErrInvalidState, id, q.State)
	}
	q.shuffle(s.rng)
	q.LastResult = nil
	q.State = StateActive
	s.emit(EventRetried, q, nil)
	return *q, nil
}

func (s *Session) allResolved() bool {
	for _, q := range s.questions {
		if q.State != StateResolved {
			return false
		}
	}
	return true
}

// QuestionResult is the final record of one question.
type QuestionResult struct {
	ID          int64              `json:"id"`
	Kind        question.Kind      `json:"kind"`
	Prompt      string             `json:"prompt"`
	Answered    bool               `json:"answered"`
	IsCorrect   bool               `json:"is_correct"`
	UserAnswer  *Answer            `json:"user_answer,omitempty"`
	AnswerKey   question.AnswerKey `json:"answer_key"`
	Explanation string             `json:"explanation,omitempty"`
	Attempts    int                `json:"attempts"`
}

// Summary is the outcome of a finished session.
type Summary struct {
	SessionID string           `json:"session_id"`
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Reason    string           `json:"reason"`
	Results   []QuestionResult `json:"results"`
}

// Results returns per-question results. Deferred sessions reveal nothing
// until they are finished.
func (s *Session) Results() ([]QuestionResult, error) {
	if !canRevealResult(s.cfg.Feedback, s.finished) {
		return nil, fmt.Errorf("%w: results are hidden until the session finishes", ErrInvalidState)
	}
	return s.buildResults(), nil
}

// Finalize ends the session and returns its summary. Unanswered and locked
// questions count as incorrect. Repeated calls return the same summary.
func (s *Session) Finalize() Summary {
	if !s.finished {
		for i := range s.questions {
			s.questions[i].State = StateResolved
		}
		s.finish("forced")
	}
	return *s.summary
}

func (s *Session) finish(reason string) {
	s.finished = true
	score, total := s.tally()
	s.summary = &Summary{
		SessionID: s.id,
		Score:     score,
		Total:     total,
		Reason:    reason,
		Results:   s.buildResults(),
	}
	s.emit(EventFinished, nil, nil)
}

func (s *Session) buildResults() []QuestionResult {
	out := make([]QuestionResult, 0, len(s.questions))
	for _, q := range s.questions {
		r := QuestionResult{
			ID:        q.Question.ID,
			Kind:      q.Question.Kind,
			Prompt:    q.Question.Prompt,
			AnswerKey: q.Question.AnswerKey,
			Attempts:  q.Attempts,
		}
		if q.LastResult != nil {
			a := q.LastResult.Answer
			r.Answered = true
			r.IsCorrect = q.LastResult.IsCorrect
			r.UserAnswer = &a
		}
		if showExplanation(s.cfg.Explanation, r.IsCorrect) {
			r.Explanation = q.Question.Explanation
		}
		out = append(out, r)
	}
	return out
}
