package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"` // bcrypt hash
	Role      string             `json:"role" bson:"role"`
	Address   string             `json:"address,omitempty" bson:"address,omitempty"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// UserInfo is what login and register return; the client persists it as "userInfo".
type UserInfo struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}
