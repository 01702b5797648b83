package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Actor is the authenticated user performing a mutation, plus the request
// metadata recorded on audit entries.
type Actor struct {
	ID        primitive.ObjectID
	Role      Role
	IP        string
	UserAgent string
}

func (a Actor) Elevated() bool { return a.Role.Elevated() }
