package engine

import (
	"strings"

	"github.com/andrey78787878/audit/internal/catalog"
)

// User-facing texts.
const (
	MsgChooseCategory = "Выберите категорию:"
	MsgNoCategories   = "Нет категорий."
	MsgNoQuestions    = "Нет вопросов в этой категории."
	MsgNotFound       = "Вопрос не найден."
	MsgCommentPrompt  = "Вы выбрали '%s'. Введите комментарий:"
	MsgEmptyComment   = "Комментарий не может быть пустым. Введите комментарий:"
	MsgCommentSaved   = "Комментарий сохранён ✅"
	MsgFinished       = "Чек-лист завершён ✅ Спасибо!"
	MsgCancelled      = "Чек-лист отменён."
)

// Render is an instruction for the transport. The set is closed.
type Render interface {
	render()
}

// ShowCategoryList offers the categories as choices.
type ShowCategoryList struct {
	Prompt     string
	Categories []string
}

// ShowQuestion presents a question with its answer choices.
type ShowQuestion struct {
	Question catalog.Question
	Choices  []Choice
	Position int // 1-based
	Total    int
}

// ShowMessage is plain text, with no choices.
type ShowMessage struct {
	Text string
}

// Finished ends a checklist.
type Finished struct {
	Category string
	Text     string
}

func (ShowCategoryList) render() {}
func (ShowQuestion) render()     {}
func (ShowMessage) render()      {}
func (Finished) render()         {}

// Reply is the engine's answer to one event.
// Notice, when set, is shown before Render. Render is nil when the event
// has no visible effect. Err carries a recovered LookupError or
// EmptyInputError for logging; it is never fatal.
type Reply struct {
	Notice string
	Render Render
	Err    error
}

// Text renders the question body.
func (s ShowQuestion) Text() string {
	return QuestionText(s.Question)
}

// QuestionText formats a question as shown to the user.
func QuestionText(q catalog.Question) string {
	var b strings.Builder
	b.WriteString("Вопрос: ")
	b.WriteString(q.Task)
	if q.Code != "" {
		b.WriteString("\nКод: ")
		b.WriteString(q.Code)
	}
	return b.String()
}
