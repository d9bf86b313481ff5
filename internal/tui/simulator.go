package tui

import (
	"fmt"
	"strings"

	"github.com/andrey78787878/audit/internal/engine"
)

// Engine handles checklist events.
type Engine interface {
	Handle(ev engine.Event) engine.Reply
}

// LineKind classifies transcript lines.
type LineKind int

const (
	LineUser LineKind = iota
	LineBot
	LineNotice
	LineError
)

// Line is one transcript entry.
type Line struct {
	Kind LineKind
	Text string
}

// Button is an inline choice offered by the last reply.
type Button struct {
	Label string
	Event engine.Event
}

// Simulator plays the role of the chat client for a single local user.
type Simulator struct {
	engine     Engine
	userID     string
	buttons    []Button
	transcript []Line
}

// NewSimulator creates a Simulator acting as userID.
func NewSimulator(eng Engine, userID string) *Simulator {
	return &Simulator{engine: eng, userID: userID}
}

// Buttons returns the choices offered by the last reply.
func (s *Simulator) Buttons() []Button {
	return s.buttons
}

// Transcript returns everything shown so far.
func (s *Simulator) Transcript() []Line {
	return s.transcript
}

// Press activates button i.
func (s *Simulator) Press(i int) error {
	if i < 0 || i >= len(s.buttons) {
		return fmt.Errorf("no button %d", i+1)
	}
	b := s.buttons[i]
	s.transcript = append(s.transcript, Line{Kind: LineUser, Text: "[" + b.Label + "]"})
	s.apply(s.engine.Handle(b.Event))
	return nil
}

// Input sends typed text. /start and /cancel are commands, anything else is
// free text.
func (s *Simulator) Input(text string) {
	s.transcript = append(s.transcript, Line{Kind: LineUser, Text: text})

	var ev engine.Event
	switch strings.TrimSpace(text) {
	case "/start":
		ev = engine.Start{UserID: s.userID}
	case "/cancel":
		ev = engine.Cancel{UserID: s.userID}
	default:
		ev = engine.FreeText{UserID: s.userID, Text: text}
	}
	s.apply(s.engine.Handle(ev))
}

func (s *Simulator) apply(reply engine.Reply) {
	if reply.Notice != "" {
		s.transcript = append(s.transcript, Line{Kind: LineNotice, Text: reply.Notice})
	}
	if reply.Err != nil {
		s.transcript = append(s.transcript, Line{Kind: LineError, Text: reply.Err.Error()})
	}
	if reply.Render == nil {
		return
	}

	// Buttons of earlier messages stay pressable in Telegram; here only the
	// latest set is kept.
	s.buttons = nil
	switch r := reply.Render.(type) {
	case engine.ShowCategoryList:
		s.say(r.Prompt)
		for _, c := range r.Categories {
			s.buttons = append(s.buttons, Button{
				Label: c,
				Event: engine.CategoryChosen{UserID: s.userID, Category: c},
			})
		}
	case engine.ShowQuestion:
		s.say(fmt.Sprintf("[%d/%d] %s", r.Position, r.Total, r.Text()))
		for _, c := range r.Choices {
			s.buttons = append(s.buttons, Button{
				Label: c.Label(),
				Event: engine.AnswerChosen{UserID: s.userID, QuestionID: r.Question.ID, Choice: c},
			})
		}
	case engine.ShowMessage:
		s.say(r.Text)
	case engine.Finished:
		s.say(r.Text)
	}
}

func (s *Simulator) say(text string) {
	s.transcript = append(s.transcript, Line{Kind: LineBot, Text: text})
}
