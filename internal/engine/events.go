package engine

// Choice is one of the three fixed answers.
type Choice string

const (
	ChoiceYes     Choice = "yes"
	ChoiceNo      Choice = "no"
	ChoicePartial Choice = "part"
)

// Choices lists the answers in display order.
var Choices = []Choice{ChoiceYes, ChoiceNo, ChoicePartial}

// Label returns the answer value the collector stores.
func (c Choice) Label() string {
	switch c {
	case ChoiceYes:
		return "Да"
	case ChoiceNo:
		return "Нет"
	case ChoicePartial:
		return "Частично"
	default:
		return ""
	}
}

// NeedsComment reports whether the answer waits for free text.
func (c Choice) NeedsComment() bool {
	return c == ChoiceNo || c == ChoicePartial
}

// ParseChoice maps a wire code to a Choice.
func ParseChoice(s string) (Choice, bool) {
	switch Choice(s) {
	case ChoiceYes, ChoiceNo, ChoicePartial:
		return Choice(s), true
	default:
		return "", false
	}
}

// Event is an inbound user action. The set of events is closed.
type Event interface {
	user() string
	name() string
}

// Start asks for the category list.
type Start struct {
	UserID string
}

// CategoryChosen starts a checklist for Category.
type CategoryChosen struct {
	UserID   string
	Category string
}

// AnswerChosen answers the question identified by QuestionID.
type AnswerChosen struct {
	UserID     string
	QuestionID int
	Choice     Choice
}

// FreeText is a typed message, used as the comment for a pending answer.
type FreeText struct {
	UserID string
	Text   string
}

// Cancel abandons the current checklist.
type Cancel struct {
	UserID string
}

func (e Start) user() string          { return e.UserID }
func (e CategoryChosen) user() string { return e.UserID }
func (e AnswerChosen) user() string   { return e.UserID }
func (e FreeText) user() string       { return e.UserID }
func (e Cancel) user() string         { return e.UserID }

func (Start) name() string          { return "start" }
func (CategoryChosen) name() string { return "category" }
func (AnswerChosen) name() string   { return "answer" }
func (FreeText) name() string       { return "text" }
func (Cancel) name() string         { return "cancel" }
