// Package telegram binds the checklist engine to the Telegram Bot API.
//
// Updates become engine events; replies become Bot API calls. Replies to
// button presses edit the pressed message, replies to typed messages are
// sent as new messages.
package telegram

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/andrey78787878/audit/internal/engine"
	"github.com/andrey78787878/audit/internal/metrics"
)

// Sender is the subset of *tgbotapi.BotAPI the handler calls.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Engine handles checklist events.
type Engine interface {
	Handle(ev engine.Event) engine.Reply
}

// Update kinds, used as metric labels.
const (
	KindMessage  = "message"
	KindCommand  = "command"
	KindCallback = "callback"
	KindOther    = "other"
)

// Handler turns Telegram updates into engine events and renders the replies.
type Handler struct {
	engine  Engine
	sender  Sender
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHandler creates a Handler. metrics may be nil.
func NewHandler(eng Engine, sender Sender, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, sender: sender, metrics: m, logger: logger}
}

// HandleUpdate processes one update. The returned error reports a failed
// Bot API call; the engine state has already been updated by then.
func (h *Handler) HandleUpdate(u tgbotapi.Update) error {
	switch {
	case u.CallbackQuery != nil:
		h.metrics.Update(KindCallback)
		return h.handleCallback(u.CallbackQuery)
	case u.Message != nil:
		return h.handleMessage(u.Message)
	default:
		h.metrics.Update(KindOther)
		return nil
	}
}

func (h *Handler) handleMessage(msg *tgbotapi.Message) error {
	userID := messageUser(msg)

	var ev engine.Event
	if msg.IsCommand() {
		h.metrics.Update(KindCommand)
		switch msg.Command() {
		case "start":
			ev = engine.Start{UserID: userID}
		case "cancel":
			ev = engine.Cancel{UserID: userID}
		default:
			return nil
		}
	} else {
		h.metrics.Update(KindMessage)
		if msg.Text == "" {
			return nil
		}
		ev = engine.FreeText{UserID: userID, Text: msg.Text}
	}

	reply := h.engine.Handle(ev)
	h.logReply(userID, reply)
	return h.render(msg.Chat.ID, 0, reply)
}

func (h *Handler) handleCallback(cq *tgbotapi.CallbackQuery) error {
	// Telegram shows a spinner on the button until the query is answered.
	if _, err := h.sender.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		h.logger.Warn("answer callback query", "error", err)
	}

	userID := ""
	if cq.From != nil {
		userID = strconv.FormatInt(cq.From.ID, 10)
	}

	ev, ok := ParseCallbackData(userID, cq.Data)
	if !ok {
		h.logger.Debug("ignoring callback", "data", cq.Data)
		return nil
	}

	var chatID int64
	var messageID int
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
		messageID = cq.Message.MessageID
	} else if cq.From != nil {
		chatID = cq.From.ID
	}

	reply := h.engine.Handle(ev)
	h.logReply(userID, reply)
	return h.render(chatID, messageID, reply)
}

func (h *Handler) logReply(userID string, reply engine.Reply) {
	if reply.Err != nil {
		h.logger.Debug("recovered engine error", "user_id", userID, "error", reply.Err)
	}
}

// render sends the reply. A non-zero editID edits that message in place.
func (h *Handler) render(chatID int64, editID int, reply engine.Reply) error {
	if reply.Notice != "" {
		if _, err := h.sender.Send(tgbotapi.NewMessage(chatID, reply.Notice)); err != nil {
			return fmt.Errorf("send notice: %w", err)
		}
	}
	if reply.Render == nil {
		return nil
	}

	text, markup := Layout(reply.Render)

	var c tgbotapi.Chattable
	if editID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, editID, text)
		edit.ReplyMarkup = markup
		c = edit
	} else {
		msg := tgbotapi.NewMessage(chatID, text)
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		c = msg
	}

	if _, err := h.sender.Send(c); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// Layout converts a render instruction into message text and an optional
// inline keyboard.
func Layout(r engine.Render) (string, *tgbotapi.InlineKeyboardMarkup) {
	switch r := r.(type) {
	case engine.ShowCategoryList:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(r.Categories))
		for _, c := range r.Categories {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(c, CategoryData(c)),
			))
		}
		markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
		return r.Prompt, &markup

	case engine.ShowQuestion:
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(r.Choices))
		for _, c := range r.Choices {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(c.Label(), AnswerData(c, r.Question.ID)))
		}
		markup := tgbotapi.NewInlineKeyboardMarkup(buttons)
		return fmt.Sprintf("[%d/%d] %s", r.Position, r.Total, r.Text()), &markup

	case engine.ShowMessage:
		return r.Text, nil

	case engine.Finished:
		return r.Text, nil

	default:
		return "", nil
	}
}

// MaxCallbackData is Telegram's limit on callback data, in bytes.
const MaxCallbackData = 64

// CategoryData encodes a category button.
func CategoryData(category string) string {
	return "cat|" + category
}

// AnswerData encodes an answer button.
func AnswerData(c engine.Choice, questionID int) string {
	return "ans|" + string(c) + "|" + strconv.Itoa(questionID)
}

// ParseCallbackData decodes button data into an event. Unknown choice codes
// are passed through so the engine can reject them.
func ParseCallbackData(userID, data string) (engine.Event, bool) {
	kind, rest, ok := strings.Cut(data, "|")
	if !ok {
		return nil, false
	}

	switch kind {
	case "cat":
		return engine.CategoryChosen{UserID: userID, Category: rest}, true
	case "ans":
		choice, rawID, ok := strings.Cut(rest, "|")
		if !ok {
			return nil, false
		}
		id, err := strconv.Atoi(rawID)
		if err != nil {
			return nil, false
		}
		return engine.AnswerChosen{UserID: userID, QuestionID: id, Choice: engine.Choice(choice)}, true
	default:
		return nil, false
	}
}

func messageUser(msg *tgbotapi.Message) string {
	if msg.From != nil {
		return strconv.FormatInt(msg.From.ID, 10)
	}
	return strconv.FormatInt(msg.Chat.ID, 10)
}
