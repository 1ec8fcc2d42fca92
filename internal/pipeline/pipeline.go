// Package pipeline runs one inbound message through normalization, check-in
// extraction, daily-log persistence, plan generation, and reply delivery.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sana-Rashid-135/coach/internal/checkin"
	"github.com/Sana-Rashid-135/coach/internal/coach"
	"github.com/Sana-Rashid-135/coach/internal/messaging"
	"github.com/Sana-Rashid-135/coach/internal/models"
	"github.com/Sana-Rashid-135/coach/internal/store"
)

// ErrInvalidMessage is returned when the inbound payload is missing the
// required From or Body fields. Handlers surface it as a client error.
var ErrInvalidMessage = errors.New("invalid message data")

// Extractor is the flexible (generative) check-in extractor contract.
// Implemented by checkin.Extractor and by test doubles.
type Extractor interface {
	Extract(ctx context.Context, message string) *checkin.Checkin
}

// Responder produces plan text and general replies. Implemented by
// coach.Coach and by test doubles.
type Responder interface {
	GeneratePlan(ctx context.Context, record *checkin.Checkin, userName string) string
	GeneralReply(ctx context.Context, message, userName string) string
}

// Deduper reports whether an inbound message SID is being seen for the
// first time. Nil disables deduplication.
type Deduper interface {
	FirstDelivery(ctx context.Context, messageSID string) (bool, error)
}

// Result summarizes one pipeline pass.
type Result struct {
	Duplicate     bool
	CheckinLogged bool
	MessageSID    string
	Reply         string
}

// Pipeline wires the collaborators for one-message-at-a-time processing.
// All dependencies are injected so each can be replaced in tests.
type Pipeline struct {
	store     store.Store
	gateway   messaging.Gateway
	extractor Extractor
	responder Responder
	deduper   Deduper
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Pipeline. extractor and deduper may be nil, which disables
// the flexible parse stage and deduplication respectively.
func New(st store.Store, gateway messaging.Gateway, extractor Extractor, responder Responder, deduper Deduper, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     st,
		gateway:   gateway,
		extractor: extractor,
		responder: responder,
		deduper:   deduper,
		logger:    logger,
		now:       time.Now,
	}
}

// Process runs the full pipeline for one provider payload. Extraction
// misses are a normal outcome (general-reply path); persistence failures
// are the only errors that propagate.
func (p *Pipeline) Process(ctx context.Context, payload map[string]string) (*Result, error) {
	msg := messaging.ParseIncoming(payload)
	if msg.From == "" || msg.Body == "" {
		return nil, ErrInvalidMessage
	}

	p.logger.Info("Received message", "from", messaging.NormalizePhone(msg.From), "sid", msg.MessageID)

	if p.deduper != nil {
		first, err := p.deduper.FirstDelivery(ctx, msg.MessageID)
		if err != nil {
			// Dedupe is best effort; processing a duplicate beats dropping
			// a genuine message when Redis is unavailable.
			p.logger.Warn("Dedupe check failed, continuing", "error", err.Error())
		} else if !first {
			p.logger.Info("Duplicate delivery ignored", "sid", msg.MessageID)
			return &Result{Duplicate: true}, nil
		}
	}

	user, err := p.store.GetOrCreateUser(ctx, msg.From, msg.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	if _, err := p.store.LogMessage(ctx, user.ID, models.DirectionInbound, msg.Body, msg.MessageID); err != nil {
		return nil, fmt.Errorf("failed to log inbound message: %w", err)
	}

	record := checkin.ParseStrict(msg.Body)
	if record == nil && p.extractor != nil {
		record = p.extractor.Extract(ctx, msg.Body)
	}

	var reply string
	if record != nil {
		reply, err = p.runCheckinPath(ctx, user, record)
		if err != nil {
			return nil, err
		}
	} else {
		reply = p.responder.GeneralReply(ctx, msg.Body, user.Name)
	}

	sid, sendErr := p.gateway.Send(ctx, msg.From, reply)
	if sendErr != nil {
		// The daily log is already written; a delivery failure is logged
		// but does not fail the request.
		p.logger.Error("Failed to send response", "error", sendErr.Error())
		sid = ""
	} else {
		if _, err := p.store.LogMessage(ctx, user.ID, models.DirectionOutbound, reply, sid); err != nil {
			return nil, fmt.Errorf("failed to log outbound message: %w", err)
		}
		p.logger.Info("Response sent", "sid", sid)
	}

	return &Result{
		CheckinLogged: record != nil,
		MessageSID:    sid,
		Reply:         reply,
	}, nil
}

// runCheckinPath persists the morning payload, generates the plan, and
// merges the plan into the same daily record without clobbering the first
// write.
func (p *Pipeline) runCheckinPath(ctx context.Context, user *models.User, record *checkin.Checkin) (string, error) {
	date := user.CalendarDate(p.now())

	morning, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode check-in: %w", err)
	}

	if _, err := p.store.UpsertDailyLog(ctx, user.ID, date, store.DailyLogPatch{Morning: morning}); err != nil {
		return "", fmt.Errorf("failed to store check-in: %w", err)
	}

	plan := p.responder.GeneratePlan(ctx, record, user.Name)

	if _, err := p.store.UpsertDailyLog(ctx, user.ID, date, store.DailyLogPatch{PlanText: &plan}); err != nil {
		return "", fmt.Errorf("failed to store plan: %w", err)
	}

	if err := p.store.SetLastCheckinAt(ctx, user.ID, p.now()); err != nil {
		p.logger.Warn("Failed to record last check-in time", "user_id", user.ID, "error", err.Error())
	}

	return coach.ComposePlanReply(plan), nil
}
