package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleTherapist Role = "therapist"
	RoleClient    Role = "client"
	RoleAdmin     Role = "admin"
)

// User represents a user in the system (a Therapist, a Client, or an Admin).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsTherapist() bool {
	return u.Role == RoleTherapist
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RequestingIdentity is the explicit actor identity passed into service
// operations. The API layer derives it from the authenticated token; services
// never resolve the actor from request-global state.
type RequestingIdentity struct {
	UserID primitive.ObjectID
	Role   Role
}
