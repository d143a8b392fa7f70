package exam

import "quizbank/internal/question"

// Event names a session lifecycle step.
type Event string

const (
	EventStarted  Event = "session_started"
	EventAnswered Event = "question_answered"
	EventRetried  Event = "question_retried"
	EventFinished Event = "session_finished"
)

// EventInfo describes one event. Correct is nil while the verdict is hidden.
type EventInfo struct {
	SessionID  string
	Event      Event
	QuestionID int64
	Kind       question.Kind
	Attempts   int
	Correct    *bool
	Score      int
	Total      int
}

// Observer receives session events synchronously.
type Observer interface {
	Observe(EventInfo)
}

type nopObserver struct{}

func (nopObserver) Observe(EventInfo) {}

func (s *Session) emit(ev Event, q *SessionQuestion, correct *bool) {
	info := EventInfo{SessionID: s.id, Event: ev, Correct: correct}
	if q != nil {
		info.QuestionID = q.Question.ID
		info.Kind = q.Question.Kind
		info.Attempts = q.Attempts
	}
	if ev == EventFinished {
		info.Score, info.Total = s.tally()
	} else {
		info.Total = len(s.questions)
	}
	s.cfg.Observer.Observe(info)
}
