package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/notify"
	"urbanfix-be/repositories"
	"urbanfix-be/repositories/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

type commentFixture struct {
	comments *mocks.MockCommentRepository
	issues   *mocks.MockIssueRepository
	users    *mocks.MockUserRepository
	audits   *mocks.MockAuditRepository
	pub      *notify.Recorder
	svc      *CommentService
}

func newCommentFixture(t *testing.T) *commentFixture {
	ctrl := gomock.NewController(t)
	f := &commentFixture{
		comments: mocks.NewMockCommentRepository(ctrl),
		issues:   mocks.NewMockIssueRepository(ctrl),
		users:    mocks.NewMockUserRepository(ctrl),
		audits:   mocks.NewMockAuditRepository(ctrl),
		pub:      &notify.Recorder{},
	}
	f.svc = NewCommentService(f.comments, f.issues, f.users, f.audits, repositories.NoTx{}, f.pub,
		func() time.Time { return fixedNow }, zerolog.Nop())
	return f
}

func liveIssue(reporter primitive.ObjectID) *models.Issue {
	return models.NewIssue(reporter, "Pothole", models.Pothole, models.Location{Geo: models.NewGeoPoint(1, 1)}, fixedNow)
}

func TestCommentService_Add(t *testing.T) {
	tests := []struct {
		name         string
		actor        models.Actor
		internal     bool
		wantInternal bool
		wantNotify   bool
	}{
		{"citizen public", citizen(), false, false, true},
		{"citizen cannot post internal", citizen(), true, false, true},
		{"staff internal", staff(), true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCommentFixture(t)
			issue := liveIssue(primitive.NewObjectID())

			var inserted *models.Comment
			f.issues.EXPECT().FindByID(gomock.Any(), issue.ID).Return(issue, nil)
			f.comments.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *models.Comment) error {
				inserted = c
				return nil
			})
			f.audits.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, rec *models.AuditRecord) error {
				assert.Equal(t, models.ActionCommentAdded, rec.Action)
				assert.Equal(t, issue.ID, rec.Entity.ID)
				assert.Equal(t, inserted.ID, rec.Details["comment"])
				return nil
			})

			got, err := f.svc.Add(context.Background(), issue.ID, tt.actor, AddCommentInput{Body: "  Still there  ", IsInternal: tt.internal})
			require.NoError(t, err)

			assert.Equal(t, "Still there", got.Body)
			assert.Equal(t, tt.wantInternal, got.IsInternal)
			assert.Equal(t, tt.actor.ID, got.Author)
			assert.NotNil(t, got.Attachments)
			assert.Equal(t, tt.wantNotify, len(f.pub.Events) == 1)
		})
	}
}

func TestCommentService_AddValidation(t *testing.T) {
	f := newCommentFixture(t)
	issueID := primitive.NewObjectID()

	_, err := f.svc.Add(context.Background(), issueID, citizen(), AddCommentInput{Body: "   "})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))

	_, err = f.svc.Add(context.Background(), issueID, citizen(), AddCommentInput{Body: strings.Repeat("x", models.MaxCommentLength+1)})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))

	s3Key := "issues/" + primitive.NewObjectID().Hex() + "/x.jpg"
	_, err = f.svc.Add(context.Background(), issueID, citizen(), AddCommentInput{
		Body:        "see photo",
		Attachments: []models.Attachment{{Key: s3Key, Storage: models.StorageS3}},
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))
}

func TestCommentService_AddMaxLengthAccepted(t *testing.T) {
	f := newCommentFixture(t)
	issue := liveIssue(primitive.NewObjectID())
	f.issues.EXPECT().FindByID(gomock.Any(), issue.ID).Return(issue, nil)
	f.comments.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	f.audits.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.Add(context.Background(), issue.ID, staff(), AddCommentInput{Body: strings.Repeat("x", models.MaxCommentLength)})
	assert.NoError(t, err)
}

func TestCommentService_AddToDeletedIssue(t *testing.T) {
	f := newCommentFixture(t)
	issue := liveIssue(primitive.NewObjectID())
	issue.IsDeleted = true
	f.issues.EXPECT().FindByID(gomock.Any(), issue.ID).Return(issue, nil)

	_, err := f.svc.Add(context.Background(), issue.ID, citizen(), AddCommentInput{Body: "hello"})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestCommentService_List(t *testing.T) {
	f := newCommentFixture(t)
	issueID := primitive.NewObjectID()
	ana := models.User{ID: primitive.NewObjectID(), Name: "Ana"}
	crew := models.User{ID: primitive.NewObjectID(), Name: "Road Crew"}
	public := []models.Comment{{Body: "public", Author: ana.ID}}
	all := []models.Comment{{Body: "public", Author: ana.ID}, {Body: "internal", Author: crew.ID, IsInternal: true}}

	f.comments.EXPECT().ListByIssue(gomock.Any(), issueID, false).Return(public, nil)
	f.users.EXPECT().FindByIDs(gomock.Any(), []primitive.ObjectID{ana.ID}).Return([]models.User{ana}, nil)
	f.comments.EXPECT().ListByIssue(gomock.Any(), issueID, true).Return(all, nil)
	f.users.EXPECT().FindByIDs(gomock.Any(), []primitive.ObjectID{ana.ID, crew.ID}).Return([]models.User{crew, ana}, nil)

	got, err := f.svc.List(context.Background(), issueID, citizen())
	require.NoError(t, err)
	assert.Equal(t, []models.CommentView{{Comment: public[0], AuthorName: "Ana"}}, got)

	got, err = f.svc.List(context.Background(), issueID, models.Actor{Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ana", got[0].AuthorName)
	assert.Equal(t, "Road Crew", got[1].AuthorName)
	assert.True(t, got[1].IsInternal)
}

func TestCommentService_List_Empty(t *testing.T) {
	f := newCommentFixture(t)
	issueID := primitive.NewObjectID()
	f.comments.EXPECT().ListByIssue(gomock.Any(), issueID, false).Return([]models.Comment{}, nil)

	got, err := f.svc.List(context.Background(), issueID, citizen())
	require.NoError(t, err)
	assert.Empty(t, got)
}
