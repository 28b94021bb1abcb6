package ui

import (
	stderrors "errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user leaves the question form.
var ErrAborted = stderrors.New("question form aborted")

const questionKey = "question"

func buildQuestionForm(captureName string, question *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Question about " + captureName).
				Description("Optional. Leave empty for a general description of the traffic.").
				Placeholder("e.g. Why do the TLS handshakes to 10.0.0.5 fail?").
				Key(questionKey).
				CharLimit(2000).
				Value(question),
		),
	)
}

// AskQuestion prompts for the analysis question. The answer is trimmed; an
// empty answer means no question.
func AskQuestion(captureName, initial string) (string, error) {
	question := initial
	form := buildQuestionForm(captureName, &question)
	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(question), nil
}
