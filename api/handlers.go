package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/convstore"
	"github.com/papercomputeco/platelog/pkg/state"
	"github.com/papercomputeco/platelog/pkg/utils"
)

// IngestRequest is one inbound user message.
type IngestRequest struct {
	UserID         int64             `json:"user_id"`
	ConversationID string            `json:"conversation_id,omitempty"`
	MessageID      int64             `json:"message_id,omitempty"`
	InputType      string            `json:"input_type,omitempty"`
	Text           string            `json:"text,omitempty"`
	PhotoRef       string            `json:"photo_ref,omitempty"`
	Responses      map[string]string `json:"clarification_responses,omitempty"`
}

// IngestResponse is the bot's reply for one turn. Reply and Options
// summarize the turn for chat-style clients; ClarificationRequests carries
// every open question for clients that render them directly.
type IngestResponse struct {
	ConversationID        string                `json:"conversation_id"`
	Reply                 string                `json:"reply"`
	NeedsClarification    bool                  `json:"needs_clarification"`
	Options               []string              `json:"options,omitempty"`
	ClarificationRequests []state.Clarification `json:"clarification_requests,omitempty"`
	Saved                 bool                  `json:"saved"`
	EntryIDs              []int64               `json:"entry_ids,omitempty"`
	Totals                *state.Totals         `json:"daily_totals,omitempty"`
	Advice                string                `json:"advice,omitempty"`
	Errors                []string              `json:"errors,omitempty"`
}

// TotalsResponse is the payload for the daily totals endpoint.
type TotalsResponse struct {
	UserID int64         `json:"user_id"`
	Date   string        `json:"date"`
	Totals *state.Totals `json:"totals"`
}

// ErrorResponse is a generic API error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleIngest drives one conversation turn: build or resume the turn state,
// run the graph, persist or clear the suspended state, and assemble a reply.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "user_id required"})
	}
	if strings.TrimSpace(req.Text) == "" && req.PhotoRef == "" && len(req.Responses) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "text, photo_ref or clarification_responses required"})
	}

	ctx := c.Context()
	turn := s.buildTurn(c, &req)

	s.logger.Debug("ingesting turn",
		zap.String("conversation_id", turn.ConversationID),
		zap.String("input_type", string(turn.InputKind)),
		zap.String("text", utils.Truncate(req.Text, 80)),
	)

	turn, err := s.executor.Run(ctx, turn)
	if err != nil {
		s.logger.Error("graph run failed",
			zap.String("conversation_id", turn.ConversationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "conversation failed"})
	}

	// A turn that still needs an answer is suspended durably; losing that
	// write would orphan the question, so it fails the whole turn.
	if turn.NeedsClarification && len(turn.ClarificationRequests) > 0 {
		rec := &convstore.Record{
			ConversationID: turn.ConversationID,
			UserID:         turn.UserID,
			CurrentNode:    state.NodeClarify,
			Turn:           turn,
			ExpiresAt:      time.Now().UTC().Add(s.config.ConversationTTL),
		}
		if err := s.conversations.Save(ctx, rec); err != nil {
			s.logger.Error("saving conversation state failed",
				zap.String("conversation_id", turn.ConversationID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "saving conversation failed"})
		}
	} else {
		if err := s.conversations.Deactivate(ctx, turn.ConversationID); err != nil {
			var notFound convstore.ErrNotFound
			if !errors.As(err, &notFound) {
				s.logger.Warn("deactivating conversation failed",
					zap.String("conversation_id", turn.ConversationID), zap.Error(err))
			}
		}
	}

	return c.JSON(assembleReply(turn))
}

// buildTurn loads and resumes an active conversation when one exists,
// otherwise starts a fresh turn (minting a conversation id if needed).
func (s *Server) buildTurn(c *fiber.Ctx, req *IngestRequest) *state.Turn {
	kind := state.InputKind(req.InputType)
	if kind == "" {
		kind = state.InputText
		if req.PhotoRef != "" {
			kind = state.InputPhoto
		}
	}

	if req.ConversationID != "" {
		rec, err := s.conversations.Load(c.Context(), req.ConversationID)
		if err == nil && rec.Turn != nil {
			s.logger.Debug("resuming conversation",
				zap.String("conversation_id", req.ConversationID))
			t := state.Resume(rec.Turn, req.Text, req.MessageID, req.Responses)
			t.InputKind = kind
			t.PhotoRef = req.PhotoRef
			return t
		}
		var notFound convstore.ErrNotFound
		if err != nil && !errors.As(err, &notFound) {
			s.logger.Warn("loading conversation failed, starting fresh",
				zap.String("conversation_id", req.ConversationID), zap.Error(err))
		}
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	return state.NewTurn(req.UserID, conversationID, kind, req.Text, req.MessageID, req.PhotoRef, req.Responses)
}

// assembleReply picks the user-facing text for the turn: an open question
// wins, then a save confirmation with totals, then advice, then the first
// error. The reply is never empty.
func assembleReply(t *state.Turn) *IngestResponse {
	resp := &IngestResponse{
		ConversationID: t.ConversationID,
		Saved:          len(t.SavedEntryIDs) > 0,
		EntryIDs:       t.SavedEntryIDs,
		Totals:         t.DailyTotals,
		Advice:         t.Advice,
		Errors:         t.Errors,
	}

	if t.NeedsClarification && len(t.ClarificationRequests) > 0 {
		req := t.ClarificationRequests[0]
		resp.NeedsClarification = true
		resp.Reply = req.Question
		resp.Options = req.Options
		resp.ClarificationRequests = t.ClarificationRequests
		return resp
	}

	if resp.Saved {
		reply := "Logged!"
		if len(t.PendingEntries) > 0 {
			entry := t.PendingEntries[0]
			if entry.Nutrition.Calories != nil {
				reply = fmt.Sprintf("Logged %s: %.0f kcal.", entry.FoodName, *entry.Nutrition.Calories)
			} else {
				reply = fmt.Sprintf("Logged %s.", entry.FoodName)
			}
		}
		if t.DailyTotals != nil {
			reply += fmt.Sprintf(" Today: %.0f kcal, %.1fg protein, %.1fg carbs, %.1fg fat.",
				t.DailyTotals.Calories, t.DailyTotals.Protein, t.DailyTotals.Carbohydrate, t.DailyTotals.Fat)
		}
		if t.Advice != "" {
			reply += " " + t.Advice
		}
		resp.Reply = reply
		return resp
	}

	if t.Advice != "" {
		resp.Reply = t.Advice
		return resp
	}
	if len(t.Errors) > 0 {
		resp.Reply = t.Errors[0]
		return resp
	}
	resp.Reply = "Tell me what you ate and I'll log it."
	return resp
}

// handleTodayTotals returns the user's running totals for today (UTC).
func (s *Server) handleTodayTotals(c *fiber.Ctx) error {
	userID := c.QueryInt("user_id")
	if userID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "user_id required"})
	}

	day := time.Now().UTC()
	totals, totalsErr := s.entries.DailyTotals(c.Context(), int64(userID), day)
	if totalsErr != nil {
		s.logger.Error("daily totals failed", zap.Int("user_id", userID), zap.Error(totalsErr))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load totals"})
	}

	return c.JSON(TotalsResponse{
		UserID: int64(userID),
		Date:   day.Format("2006-01-02"),
		Totals: totals,
	})
}
