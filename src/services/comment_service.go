package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/models"
	"github.com/tradeboard/backend/src/security/validation"
	"github.com/tradeboard/backend/src/storage"
)

const (
	minCommentScore = 0
	maxCommentScore = 5

	commentStatusActive = "active"
)

var editableCommentFields = []string{"text", "satisfaction", "confiance", "attente"}

type commentServiceImpl struct {
	backend storage.Backend
	printer string
	now     func() time.Time
}

func NewCommentService(backend storage.Backend, printer string) CommentService {
	return &commentServiceImpl{
		backend: backend,
		printer: printer,
		now:     time.Now,
	}
}

func (s *commentServiceImpl) GetAll(ctx context.Context) (map[string]models.Comment, error) {
	comments, err := s.backend.GetComments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	if comments == nil {
		comments = map[string]models.Comment{}
	}
	return comments, nil
}

// Add stores a fresh comment for an existing trade, replacing any previous one.
func (s *commentServiceImpl) Add(ctx context.Context, ticket int64, payload Payload) (*models.Comment, error) {
	if ticket <= 0 {
		return nil, validation.Failf("trade id is required")
	}

	text, err := commentText(payload, "text", false)
	if err != nil {
		return nil, err
	}
	attente, err := commentText(payload, "attente", false)
	if err != nil {
		return nil, err
	}
	if text == "" && attente == "" {
		return nil, validation.Failf("text or attente is required")
	}
	satisfaction, err := commentScore(payload, "satisfaction")
	if err != nil {
		return nil, err
	}
	confiance, err := commentScore(payload, "confiance")
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		Text:         text,
		Satisfaction: satisfaction,
		Confiance:    confiance,
		Attente:      attente,
		Date:         s.now().Format(models.CommentDateLayout),
		Status:       commentStatusActive,
		Printer:      s.printer,
	}
	if err := s.backend.UpsertComment(ctx, ticket, comment); err != nil {
		return nil, fmt.Errorf("save comment for trade %d: %w", ticket, err)
	}
	logger.FromContext(ctx).Info("Comment added", "ticket", ticket)
	return &comment, nil
}

// Edit changes the supplied fields of an existing comment. Every field is
// validated before the comment is touched.
func (s *commentServiceImpl) Edit(ctx context.Context, ticket int64, payload Payload) (*models.Comment, error) {
	if ticket <= 0 {
		return nil, validation.Failf("id is required")
	}

	present := false
	for _, field := range editableCommentFields {
		if _, ok := payload[field]; ok {
			present = true
			break
		}
	}
	if !present {
		return nil, validation.Failf("at least one field to edit must be provided")
	}

	var edits []func(c *models.Comment)
	if _, ok := payload["text"]; ok {
		text, err := commentText(payload, "text", true)
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(c *models.Comment) { c.Text = text })
	}
	if _, ok := payload["attente"]; ok {
		attente, err := commentText(payload, "attente", true)
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(c *models.Comment) { c.Attente = attente })
	}
	if _, ok := payload["satisfaction"]; ok {
		v, err := commentScore(payload, "satisfaction")
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(c *models.Comment) { c.Satisfaction = v })
	}
	if _, ok := payload["confiance"]; ok {
		v, err := commentScore(payload, "confiance")
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(c *models.Comment) { c.Confiance = v })
	}

	date := s.now().Format(models.CommentDateLayout)
	updated, err := s.backend.EditComment(ctx, ticket, func(c *models.Comment) {
		for _, edit := range edits {
			edit(c)
		}
		c.Date = date
	})
	if err != nil {
		return nil, fmt.Errorf("edit comment %d: %w", ticket, err)
	}
	logger.FromContext(ctx).Info("Comment edited", "ticket", ticket)
	return updated, nil
}

func (s *commentServiceImpl) Delete(ctx context.Context, ticket int64) (*models.Comment, error) {
	if ticket <= 0 {
		return nil, validation.Failf("id is required")
	}
	deleted, err := s.backend.DeleteComment(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("delete comment %d: %w", ticket, err)
	}
	logger.FromContext(ctx).Info("Comment deleted", "ticket", ticket)
	return deleted, nil
}

// commentText reads a free-text field. Absent or null values read as empty
// unless strict is set, in which case null is rejected.
func commentText(payload Payload, field string, strict bool) (string, error) {
	raw, ok := payload[field]
	if !ok || (raw == nil && !strict) {
		return "", nil
	}
	s, err := validation.AsStrictString(raw, field)
	if err != nil {
		return "", err
	}
	s = validation.CleanFreeText(s)
	if err := validation.ValidateStringMaxLength(s, validation.MaxCommentTextLength, field); err != nil {
		return "", err
	}
	return s, nil
}

// commentScore reads satisfaction or confiance, defaulting to 0 when absent.
func commentScore(payload Payload, field string) (int, error) {
	raw, ok := payload[field]
	if !ok {
		return 0, nil
	}
	if s, isString := raw.(string); isString && s == "" {
		return 0, nil
	}
	v, err := validation.AsInt(raw, field)
	if err != nil {
		return 0, validation.Failf("%s must be an integer between %d and %d", field, minCommentScore, maxCommentScore)
	}
	if err := validation.ValidateIntRange(int(v), field, minCommentScore, maxCommentScore); err != nil {
		return 0, err
	}
	return int(v), nil
}
