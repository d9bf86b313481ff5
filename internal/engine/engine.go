// Package engine implements the checklist state machine.
//
// Every event is handled under the user's session lock, so an answer, the
// pending comment it creates, and the text that consumes it never interleave
// with another event for the same user. Answer records are handed to the
// delivery Submitter after the lock is released.
package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/andrey78787878/audit/internal/catalog"
	"github.com/andrey78787878/audit/internal/delivery"
	auditlog "github.com/andrey78787878/audit/internal/log"
	"github.com/andrey78787878/audit/internal/metrics"
	"github.com/andrey78787878/audit/internal/session"
)

// Auditor receives transition events.
type Auditor interface {
	Append(event auditlog.AuditEvent) error
}

// Options holds the engine's optional collaborators.
type Options struct {
	Audit   Auditor
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Clock   func() time.Time
}

// Engine drives checklist traversal for all users.
type Engine struct {
	catalog   *catalog.Catalog
	store     *session.Store
	submitter delivery.Submitter

	audit   Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Engine.
func New(cat *catalog.Catalog, store *session.Store, sub delivery.Submitter, opts Options) *Engine {
	e := &Engine{
		catalog:   cat,
		store:     store,
		submitter: sub,
		audit:     opts.Audit,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Clock,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// outcome collects side effects produced under the session lock.
type outcome struct {
	reply    Reply
	record   *delivery.Record
	audits   []auditlog.AuditEvent
	result   string
	finished string
}

// Handle processes one event and returns what to show the user.
func (e *Engine) Handle(ev Event) Reply {
	if ev == nil {
		return Reply{Err: fmt.Errorf("nil event")}
	}

	var out outcome
	switch ev := ev.(type) {
	case Start:
		out = e.start()
	case CategoryChosen:
		out = e.chooseCategory(ev)
	case AnswerChosen:
		out = e.answer(ev)
	case FreeText:
		out = e.freeText(ev)
	case Cancel:
		out = e.cancel(ev)
	default:
		out.reply = Reply{Err: fmt.Errorf("unsupported event %T", ev)}
		out.result = "rejected"
	}

	if out.record != nil {
		e.submitter.Submit(*out.record)
	}
	for _, a := range out.audits {
		if err := e.audit.Append(a); err != nil {
			e.logger.Error("append audit event", "event", a.Event, "error", err)
		}
	}
	if out.finished != "" {
		e.metrics.Finished(out.finished)
	}
	if out.result == "" {
		out.result = "ok"
	}
	e.metrics.Event(ev.name(), out.result)
	if out.reply.Err != nil {
		e.logger.Debug("event rejected", "event", ev.name(), "user_id", ev.user(), "error", out.reply.Err)
	}

	return out.reply
}

func (e *Engine) start() outcome {
	cats := e.catalog.Categories()
	if len(cats) == 0 {
		return outcome{reply: Reply{Render: ShowMessage{Text: MsgNoCategories}}}
	}
	return outcome{reply: Reply{Render: ShowCategoryList{Prompt: MsgChooseCategory, Categories: cats}}}
}

func (e *Engine) chooseCategory(ev CategoryChosen) outcome {
	questions := e.catalog.QuestionsInCategory(ev.Category)
	if len(questions) == 0 {
		return outcome{
			reply:  Reply{Render: ShowMessage{Text: MsgNoQuestions}, Err: &LookupError{Kind: "category", Ref: ev.Category}},
			result: "rejected",
		}
	}

	e.store.Update(ev.UserID, func(tx *session.Tx) {
		tx.SetTraversal(ev.Category, questions)
	})

	return outcome{
		reply: Reply{Render: ShowQuestion{
			Question: questions[0],
			Choices:  Choices,
			Position: 1,
			Total:    len(questions),
		}},
		audits: e.auditIf(auditlog.AuditEvent{
			Event:    auditlog.EventChecklistStarted,
			UserID:   ev.UserID,
			Category: ev.Category,
			Total:    len(questions),
		}),
	}
}

func (e *Engine) answer(ev AnswerChosen) outcome {
	var out outcome
	q, known := e.catalog.QuestionByID(ev.QuestionID)

	e.store.Update(ev.UserID, func(tx *session.Tx) {
		sess := tx.Session()
		if !known || sess.Traversal == nil || sess.Traversal.Current().ID != ev.QuestionID {
			out.reply = Reply{
				Render: ShowMessage{Text: MsgNotFound},
				Err:    &LookupError{Kind: "question", Ref: strconv.Itoa(ev.QuestionID)},
			}
			out.result = "rejected"
			return
		}

		position := sess.Traversal.Index + 1
		switch {
		case ev.Choice == ChoiceYes:
			tx.ClearPending()
			out.record = e.record(ev.UserID, q, ev.Choice.Label(), "")
			out.audits = e.auditIf(auditlog.AuditEvent{
				Event:      auditlog.EventAnswerRecorded,
				UserID:     ev.UserID,
				Category:   q.Category,
				QuestionID: q.ID,
				Answer:     ev.Choice.Label(),
				Position:   position,
			})
			e.advance(tx, ev.UserID, &out)

		case ev.Choice.NeedsComment():
			tx.SetPending(q, ev.Choice.Label(), ev.UserID)
			out.reply = Reply{Render: ShowMessage{Text: fmt.Sprintf(MsgCommentPrompt, ev.Choice.Label())}}
			out.audits = e.auditIf(auditlog.AuditEvent{
				Event:      auditlog.EventCommentRequested,
				UserID:     ev.UserID,
				Category:   q.Category,
				QuestionID: q.ID,
				Answer:     ev.Choice.Label(),
				Position:   position,
			})

		default:
			out.reply = Reply{
				Render: ShowMessage{Text: MsgNotFound},
				Err:    &LookupError{Kind: "choice", Ref: string(ev.Choice)},
			}
			out.result = "rejected"
		}
	})

	return out
}

func (e *Engine) freeText(ev FreeText) outcome {
	var out outcome
	text := strings.TrimSpace(ev.Text)

	e.store.Update(ev.UserID, func(tx *session.Tx) {
		p, ok := tx.PeekPending()
		if !ok {
			out.result = "ignored"
			return
		}
		if text == "" {
			out.reply = Reply{
				Render: ShowMessage{Text: MsgEmptyComment},
				Err:    &EmptyInputError{QuestionID: p.Question.ID},
			}
			out.result = "rejected"
			return
		}

		tx.TakePending()
		t := tx.Session().Traversal
		// Pending always belongs to the current step; the check guards the index.
		current := t != nil && t.Current().ID == p.Question.ID

		answered := auditlog.AuditEvent{
			Event:      auditlog.EventAnswerRecorded,
			UserID:     ev.UserID,
			Category:   p.Question.Category,
			QuestionID: p.Question.ID,
			Answer:     p.Answer,
		}
		if current {
			answered.Position = t.Index + 1
		}
		out.record = e.record(p.UserID, p.Question, p.Answer, text)
		out.audits = e.auditIf(answered)
		out.reply.Notice = MsgCommentSaved

		if current {
			e.advance(tx, ev.UserID, &out)
		}
	})

	return out
}

func (e *Engine) cancel(ev Cancel) outcome {
	var category string
	e.store.Update(ev.UserID, func(tx *session.Tx) {
		if t := tx.Session().Traversal; t != nil {
			category = t.Category
		}
		tx.Clear()
	})

	out := outcome{reply: Reply{Render: ShowMessage{Text: MsgCancelled}}}
	if category != "" {
		out.audits = e.auditIf(auditlog.AuditEvent{
			Event:    auditlog.EventChecklistCancelled,
			UserID:   ev.UserID,
			Category: category,
		})
	}
	return out
}

// advance moves the cursor and fills the reply with the next prompt.
func (e *Engine) advance(tx *session.Tx, userID string, out *outcome) {
	d := tx.AdvanceOrFinish()
	switch d.Step {
	case session.StepQuestion:
		out.reply.Render = ShowQuestion{
			Question: d.Question,
			Choices:  Choices,
			Position: d.Position,
			Total:    d.Total,
		}
	case session.StepFinished:
		out.reply.Render = Finished{Category: d.Category, Text: MsgFinished}
		out.finished = d.Category
		out.audits = append(out.audits, e.auditIf(auditlog.AuditEvent{
			Event:    auditlog.EventChecklistFinished,
			UserID:   userID,
			Category: d.Category,
			Total:    d.Total,
		})...)
	}
}

func (e *Engine) record(userID string, q catalog.Question, answer, comment string) *delivery.Record {
	return &delivery.Record{
		Timestamp: e.now().UTC(),
		UserID:    userID,
		Category:  q.Category,
		Task:      q.Task,
		Answer:    answer,
		Code:      q.Code,
		Comment:   comment,
	}
}

func (e *Engine) auditIf(ev auditlog.AuditEvent) []auditlog.AuditEvent {
	if e.audit == nil {
		return nil
	}
	ev.Time = e.now().UTC()
	return []auditlog.AuditEvent{ev}
}
