package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxCommentLength = 5000

// Comment belongs to one issue. Internal comments are only visible to staff.
type Comment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Issue       primitive.ObjectID `bson:"issue" json:"issue"`
	Author      primitive.ObjectID `bson:"author" json:"author"`
	Body        string             `bson:"body" json:"body"`
	Attachments []Attachment       `bson:"attachments" json:"attachments"`
	IsInternal  bool               `bson:"isInternal" json:"isInternal"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CommentView is a comment with its author's display name. AuthorName is
// empty when the author no longer exists.
type CommentView struct {
	Comment
	AuthorName string `json:"authorName"`
}
