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
	"urbanfix-be/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueOptions struct {
	Policy TransitionPolicy
	// SplitNote records a status note as a second history entry instead of
	// on the generated one.
	SplitNote bool
	Now       func() time.Time
}

// IssueService owns the issue lifecycle: creation, status transitions,
// field updates and soft deletion, each followed by an audit record.
type IssueService struct {
	issues    repositories.IssueRepository
	comments  repositories.CommentRepository
	directory directory
	tx        repositories.TxRunner
	audit     auditor
	notify    notifier
	policy    TransitionPolicy
	splitNote bool
	now       func() time.Time
}

func NewIssueService(
	issues repositories.IssueRepository,
	comments repositories.CommentRepository,
	users repositories.UserRepository,
	audits repositories.AuditRepository,
	tx repositories.TxRunner,
	pub notify.Publisher,
	opts IssueOptions,
	log zerolog.Logger,
) *IssueService {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	policy := opts.Policy
	if policy == nil {
		policy = OpenTransitions{}
	}
	return &IssueService{
		issues:    issues,
		comments:  comments,
		directory: directory{users: users},
		tx:        tx,
		audit:     auditor{repo: audits, now: now},
		notify:    notifier{pub: pub, log: log, now: now},
		policy:    policy,
		splitNote: opts.SplitNote,
		now:       now,
	}
}

type CreateIssueInput struct {
	Title       string
	Description string
	Type        models.IssueType
	Priority    models.Priority
	Location    models.Location
	Photos      []models.Attachment
	Tags        []string
}

type IssueList struct {
	Items []models.Issue `json:"items"`
	Count int64          `json:"count"`
	Page  int64          `json:"page"`
	Limit int64          `json:"limit"`
}

func (s *IssueService) Create(ctx context.Context, actor models.Actor, in CreateIssueInput) (*models.Issue, error) {
	title, err := validTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation("Valid issue type is required")
	}
	in.Location.Normalize()
	if !in.Location.Valid() {
		return nil, apperr.Validation("Valid location with coordinates is required")
	}
	description, err := validDescription(in.Description)
	if err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validation("Invalid priority")
	}
	if err := validAttachments(in.Photos); err != nil {
		return nil, err
	}

	now := s.now()
	issue := models.NewIssue(actor.ID, title, in.Type, in.Location, now)
	issue.Description = description
	issue.Priority = priority
	issue.Tags = normalizeTags(in.Tags)
	issue.Photos = models.NormalizeAttachments(in.Photos, actor.ID, now)

	err = runTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.issues.Insert(ctx, issue); err != nil {
			return err
		}
		return s.audit.record(ctx, actor, models.ActionIssueCreated, models.EntityIssue, issue.ID, map[string]any{
			"title": issue.Title,
			"type":  issue.Type,
		})
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// ChangeStatus moves a live issue to status. Exactly one history entry is
// generated per call, plus a note entry in split mode.
func (s *IssueService) ChangeStatus(ctx context.Context, id primitive.ObjectID, actor models.Actor, status models.IssueStatus, note string) (*models.Issue, error) {
	issue, err := s.live(ctx, id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status")
	}
	from := issue.Status
	if !s.policy.Allowed(from, status) {
		return nil, apperr.Validation(fmt.Sprintf("Cannot change status from %s to %s", from, status))
	}

	note = strings.TrimSpace(note)
	added := issue.SetStatus(status, actor.ID, note, s.now(), s.splitNote)

	err = runTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.issues.SaveStatus(ctx, issue, added); err != nil {
			return err
		}
		details := map[string]any{"status": status, "from": from}
		if note != "" {
			details["note"] = note
		}
		return s.audit.record(ctx, actor, models.ActionIssueStatusChanged, models.EntityIssue, issue.ID, details)
	})
	if err != nil {
		return nil, err
	}

	s.notify.send(ctx, notify.Event{
		Type:      notify.IssueStatusChanged,
		Recipient: issue.Reporter,
		Issue:     issue.ID,
		Message:   fmt.Sprintf("Your issue %q is now %s", issue.Title, status),
		Data:      map[string]any{"from": from, "status": status},
	})
	return issue, nil
}

// UpdateFields applies the allow-listed fields of patch. Citizens may only
// edit issues they reported and cannot change the assignee or mark
// duplicates.
func (s *IssueService) UpdateFields(ctx context.Context, id primitive.ObjectID, actor models.Actor, patch models.IssuePatch) (*models.Issue, error) {
	issue, err := s.live(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Elevated() {
		if issue.Reporter != actor.ID {
			return nil, apperr.Forbidden("Not allowed to update this issue")
		}
		if patch.AssignedTo != nil || patch.Unassign {
			return nil, apperr.Forbidden("Only staff can assign issues")
		}
		if patch.DuplicateOf != nil || patch.ClearDuplicate {
			return nil, apperr.Forbidden("Only staff can mark duplicates")
		}
	}
	if patch.DuplicateOf != nil {
		if err := s.checkDuplicateTarget(ctx, issue.ID, *patch.DuplicateOf); err != nil {
			return nil, err
		}
	}

	previousAssignee := issue.AssignedTo
	if err := applyPatch(issue, patch); err != nil {
		return nil, err
	}
	issue.UpdatedAt = s.now()
	fields := patch.Fields()

	err = runTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.issues.Update(ctx, issue, fields); err != nil {
			return err
		}
		return s.audit.record(ctx, actor, models.ActionIssueUpdated, models.EntityIssue, issue.ID, map[string]any{
			"updatedFields": fields,
		})
	})
	if err != nil {
		return nil, err
	}

	if issue.AssignedTo != nil && (previousAssignee == nil || *previousAssignee != *issue.AssignedTo) {
		s.notify.send(ctx, notify.Event{
			Type:      notify.IssueAssigned,
			Recipient: *issue.AssignedTo,
			Issue:     issue.ID,
			Message:   fmt.Sprintf("Issue %q was assigned to you", issue.Title),
		})
	}
	return issue, nil
}

func applyPatch(issue *models.Issue, p models.IssuePatch) error {
	if p.Title != nil {
		title, err := validTitle(*p.Title)
		if err != nil {
			return err
		}
		issue.Title = title
	}
	if p.Description != nil {
		description, err := validDescription(*p.Description)
		if err != nil {
			return err
		}
		issue.Description = description
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return apperr.Validation("Valid issue type is required")
		}
		issue.Type = *p.Type
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return apperr.Validation("Invalid priority")
		}
		issue.Priority = *p.Priority
	}
	if p.Location != nil {
		loc := *p.Location
		loc.Normalize()
		if !loc.Valid() {
			return apperr.Validation("Valid location with coordinates is required")
		}
		issue.Location = loc
	}
	if p.Tags != nil {
		issue.Tags = normalizeTags(*p.Tags)
	}
	switch {
	case p.Unassign:
		issue.AssignedTo = nil
	case p.AssignedTo != nil:
		assignee := *p.AssignedTo
		issue.AssignedTo = &assignee
	}
	switch {
	case p.ClearDuplicate:
		issue.DuplicateOf = nil
	case p.DuplicateOf != nil:
		original := *p.DuplicateOf
		issue.DuplicateOf = &original
	}
	return nil
}

// checkDuplicateTarget requires the original to be another live issue.
func (s *IssueService) checkDuplicateTarget(ctx context.Context, id, target primitive.ObjectID) error {
	if target == id {
		return apperr.Validation("An issue cannot be a duplicate of itself")
	}
	original, err := s.issues.FindByID(ctx, target)
	if err != nil {
		return err
	}
	if original == nil || original.IsDeleted {
		return apperr.Validation("duplicateOf must reference an existing issue")
	}
	return nil
}

// SoftDelete hides the issue from listings. Comments and work orders are kept.
func (s *IssueService) SoftDelete(ctx context.Context, id primitive.ObjectID, actor models.Actor) error {
	issue, err := s.live(ctx, id)
	if err != nil {
		return err
	}
	return runTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.issues.SoftDelete(ctx, issue.ID, s.now()); err != nil {
			return err
		}
		return s.audit.record(ctx, actor, models.ActionIssueDeleted, models.EntityIssue, issue.ID, map[string]any{})
	})
}

// Get returns a live issue with its reporter and comments, oldest first.
// Internal comments are left out for viewers without a staff role.
func (s *IssueService) Get(ctx context.Context, id primitive.ObjectID, viewer models.Actor) (*models.IssueDetail, error) {
	issue, err := s.live(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByIssue(ctx, issue.ID, viewer.Elevated())
	if err != nil {
		return nil, err
	}
	users, err := s.directory.lookup(ctx, append(authors(comments), issue.Reporter)...)
	if err != nil {
		return nil, err
	}
	return &models.IssueDetail{
		Issue:    issue,
		Reporter: summary(users, issue.Reporter),
		Comments: commentViews(comments, users),
	}, nil
}

// List pages through live issues; Count covers the whole filtered set.
func (s *IssueService) List(ctx context.Context, q repositories.IssueQuery, page utils.Page) (*IssueList, error) {
	q.Skip = page.Skip()
	q.Limit = page.Limit

	items, err := s.issues.List(ctx, q)
	if err != nil {
		return nil, err
	}
	count, err := s.issues.Count(ctx, q)
	if err != nil {
		return nil, err
	}
	return &IssueList{Items: items, Count: count, Page: page.Page, Limit: page.Limit}, nil
}

// Stats covers live issues, with daily creation counts for the last 7 days.
func (s *IssueService) Stats(ctx context.Context) (*repositories.IssueStats, error) {
	today := s.now().Truncate(24 * time.Hour)
	return s.issues.Stats(ctx, today.AddDate(0, 0, -6))
}

func (s *IssueService) live(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue == nil || issue.IsDeleted {
		return nil, apperr.NotFound("Issue not found")
	}
	return issue, nil
}

func validTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperr.Validation("Title is required")
	}
	if len([]rune(title)) > models.MaxTitleLength {
		return "", apperr.Validation(fmt.Sprintf("Title is too long (max %d characters)", models.MaxTitleLength))
	}
	return title, nil
}

func validDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	if len([]rune(description)) > models.MaxDescriptionLength {
		return "", apperr.Validation(fmt.Sprintf("Description is too long (max %d characters)", models.MaxDescriptionLength))
	}
	return description, nil
}

// validAttachments checks client supplied metadata. S3 objects are only
// created by the photo upload endpoint, so clients cannot declare them.
func validAttachments(in []models.Attachment) error {
	for _, a := range in {
		if strings.TrimSpace(a.Key) == "" {
			return apperr.Validation("Attachment key is required")
		}
		if a.Storage == "" {
			continue
		}
		if !a.Storage.Valid() {
			return apperr.Validation("Invalid attachment storage")
		}
		if a.Storage == models.StorageS3 {
			return apperr.Validation("S3 photos must be uploaded through the photo endpoint")
		}
	}
	return nil
}

// normalizeTags trims, lower-cases and de-duplicates tags, keeping order.
func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
