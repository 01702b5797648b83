package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/notify"
	"urbanfix-be/repositories"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommentService struct {
	comments repositories.CommentRepository
	issues   repositories.IssueRepository
	users    directory
	tx       repositories.TxRunner
	audit    auditor
	notify   notifier
	now      func() time.Time
}

func NewCommentService(
	comments repositories.CommentRepository,
	issues repositories.IssueRepository,
	users repositories.UserRepository,
	audits repositories.AuditRepository,
	tx repositories.TxRunner,
	pub notify.Publisher,
	now func() time.Time,
	log zerolog.Logger,
) *CommentService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &CommentService{
		comments: comments,
		issues:   issues,
		users:    directory{users: users},
		tx:       tx,
		audit:    auditor{repo: audits, now: now},
		notify:   notifier{pub: pub, log: log, now: now},
		now:      now,
	}
}

type AddCommentInput struct {
	Body        string
	Attachments []models.Attachment
	IsInternal  bool
}

// Add appends a comment to a live issue. Only staff can write internal
// comments; the flag is dropped for everyone else.
func (s *CommentService) Add(ctx context.Context, issueID primitive.ObjectID, actor models.Actor, in AddCommentInput) (*models.Comment, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, apperr.Validation("Comment body is required")
	}
	if len([]rune(body)) > models.MaxCommentLength {
		return nil, apperr.Validation(fmt.Sprintf("Comment is too long (max %d characters)", models.MaxCommentLength))
	}
	if err := validAttachments(in.Attachments); err != nil {
		return nil, err
	}

	issue, err := s.issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue == nil || issue.IsDeleted {
		return nil, apperr.NotFound("Issue not found")
	}

	now := s.now()
	comment := &models.Comment{
		ID:          primitive.NewObjectID(),
		Issue:       issue.ID,
		Author:      actor.ID,
		Body:        body,
		Attachments: models.NormalizeAttachments(in.Attachments, actor.ID, now),
		IsInternal:  in.IsInternal && actor.Elevated(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = runTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.comments.Insert(ctx, comment); err != nil {
			return err
		}
		return s.audit.record(ctx, actor, models.ActionCommentAdded, models.EntityIssue, issue.ID, map[string]any{
			"comment":    comment.ID,
			"isInternal": comment.IsInternal,
		})
	})
	if err != nil {
		return nil, err
	}

	if !comment.IsInternal && issue.Reporter != actor.ID {
		s.notify.send(ctx, notify.Event{
			Type:      notify.NewComment,
			Recipient: issue.Reporter,
			Issue:     issue.ID,
			Message:   fmt.Sprintf("New comment on %q", issue.Title),
			Data:      map[string]any{"comment": comment.ID},
		})
	}
	return comment, nil
}

// List returns the thread oldest first with author names, without internal
// comments unless the viewer is staff.
func (s *CommentService) List(ctx context.Context, issueID primitive.ObjectID, viewer models.Actor) ([]models.CommentView, error) {
	comments, err := s.comments.ListByIssue(ctx, issueID, viewer.Elevated())
	if err != nil {
		return nil, err
	}
	users, err := s.users.lookup(ctx, authors(comments)...)
	if err != nil {
		return nil, err
	}
	return commentViews(comments, users), nil
}
