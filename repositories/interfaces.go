package repositories

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"urbanfix-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lookups return (nil, nil) when the document does not exist.

type IssueRepository interface {
	Insert(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// SaveStatus persists status and phase timestamps and appends the given history entries.
	SaveStatus(ctx context.Context, issue *models.Issue, added []models.StatusEvent) error
	// Update writes the named fields of issue.
	Update(ctx context.Context, issue *models.Issue, fields []string) error
	SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error
	AddPhoto(ctx context.Context, id primitive.ObjectID, photo models.Attachment, at time.Time) error
	List(ctx context.Context, q IssueQuery) ([]models.Issue, error)
	Count(ctx context.Context, q IssueQuery) (int64, error)
	Stats(ctx context.Context, since time.Time) (*IssueStats, error)
}

type CommentRepository interface {
	Insert(ctx context.Context, comment *models.Comment) error
	ListByIssue(ctx context.Context, issueID primitive.ObjectID, includeInternal bool) ([]models.Comment, error)
}

type WorkOrderRepository interface {
	Insert(ctx context.Context, wo *models.WorkOrder) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.WorkOrder, error)
	Update(ctx context.Context, wo *models.WorkOrder) error
	List(ctx context.Context, q WorkOrderQuery) ([]models.WorkOrder, error)
}

type AuditRepository interface {
	Insert(ctx context.Context, rec *models.AuditRecord) error
	List(ctx context.Context, q AuditQuery) ([]models.AuditRecord, int64, error)
}

type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByIDs skips ids with no matching user.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, q UserQuery) ([]models.User, int64, error)
}

// TxRunner runs fn so that every write inside it commits or aborts together.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
