package output

import (
	"encoding/json"
	"errors"
	"io"

	"quizbank/internal/bank"
	"quizbank/internal/exam"
	"quizbank/internal/question"
)

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	Command string `json:"command,omitempty"`
}

type Envelope struct {
	OK    bool          `json:"ok"`
	Data  any           `json:"data,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
	Meta  Meta          `json:"meta"`
}

func WriteOK(w io.Writer, command string, data any) error {
	return write(w, Envelope{OK: true, Data: data, Meta: Meta{Command: command}})
}

func WriteError(w io.Writer, command string, err error) error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return write(w, Envelope{
		OK:    false,
		Error: &ErrorPayload{Code: CodeFromError(err), Message: msg},
		Meta:  Meta{Command: command},
	})
}

func write(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// CodeFromError maps the engine's sentinel errors to stable codes.
func CodeFromError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, question.ErrInvalidArgument),
		errors.Is(err, question.ErrInvalidRecord),
		errors.Is(err, bank.ErrInvalidInput):
		return "invalid_argument"
	case errors.Is(err, exam.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, exam.ErrQuestionNotFound),
		errors.Is(err, bank.ErrQuestionNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}
