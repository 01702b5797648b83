package services

import (
	"context"
	"time"

	"urbanfix-be/models"
	"urbanfix-be/notify"
	"urbanfix-be/repositories"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// auditor appends audit records. A failed audit write is returned to the
// caller; the entity write it describes is not rolled back unless both run
// inside a transaction.
type auditor struct {
	repo repositories.AuditRepository
	now  func() time.Time
}

func (a auditor) record(ctx context.Context, actor models.Actor, action string, kind models.EntityKind, id primitive.ObjectID, details map[string]any) error {
	return a.repo.Insert(ctx, models.NewAudit(actor, action, kind, id, details, a.now()))
}

// notifier publishes best effort: failures are logged, never returned.
type notifier struct {
	pub notify.Publisher
	log zerolog.Logger
	now func() time.Time
}

func (n notifier) send(ctx context.Context, ev notify.Event) {
	if n.pub == nil {
		return
	}
	ev.At = n.now()
	if err := n.pub.Publish(ctx, ev); err != nil {
		n.log.Warn().Err(err).Str("type", ev.Type).Msg("notification publish failed")
	}
}

func runTx(ctx context.Context, tx repositories.TxRunner, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx.WithTransaction(ctx, fn)
}

// directory resolves user ids to display summaries for detail views.
type directory struct {
	users repositories.UserRepository
}

// lookup fetches every distinct id in one query.
func (d directory) lookup(ctx context.Context, ids ...primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	unique := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id.IsZero() {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	found := make(map[primitive.ObjectID]models.User, len(unique))
	if d.users == nil || len(unique) == 0 {
		return found, nil
	}
	users, err := d.users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		found[u.ID] = u
	}
	return found, nil
}

func summary(users map[primitive.ObjectID]models.User, id primitive.ObjectID) models.UserSummary {
	if u, ok := users[id]; ok {
		return u.Summary()
	}
	return models.UserSummary{ID: id}
}

func commentViews(comments []models.Comment, users map[primitive.ObjectID]models.User) []models.CommentView {
	out := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, models.CommentView{Comment: c, AuthorName: users[c.Author].Name})
	}
	return out
}

func authors(comments []models.Comment) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.Author)
	}
	return ids
}
