package prompt

import "fmt"

// Script answers prompts from a fixed list, in order. An empty text answer
// selects the offered default. Labels are recorded in Asked.
type Script struct {
	answers []string
	pos     int
	Asked   []string
}

// NewScript returns a Script that will give answers in order.
func NewScript(answers ...string) *Script {
	return &Script{answers: answers}
}

func (s *Script) next(label string) (string, error) {
	s.Asked = append(s.Asked, label)
	if s.pos >= len(s.answers) {
		return "", fmt.Errorf("%w: no scripted answer for %q", ErrNoInput, label)
	}
	a := s.answers[s.pos]
	s.pos++
	return a, nil
}

// PromptText returns the next answer, or def for an empty answer.
func (s *Script) PromptText(label, def string) (string, error) {
	a, err := s.next(label)
	if err != nil {
		return "", err
	}
	if a == "" {
		return def, nil
	}
	return a, nil
}

// PromptConfirm parses the next answer as yes/no.
func (s *Script) PromptConfirm(label string) (bool, error) {
	a, err := s.next(label)
	if err != nil {
		return false, err
	}
	v, ok := parseYesNo(a)
	if !ok {
		return false, fmt.Errorf("scripted answer %q for %q is not yes/no", a, label)
	}
	return v, nil
}

// Remaining reports how many answers have not been consumed.
func (s *Script) Remaining() int {
	return len(s.answers) - s.pos
}
