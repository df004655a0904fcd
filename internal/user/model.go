package user

import "time"

type User struct {
	ID         string    `json:"_id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Email      string    `json:"email" bson:"email"`
	Password   string    `json:"-" bson:"password,omitempty"`
	IsAdmin    bool      `json:"isAdmin" bson:"isAdmin"`
	FacebookID string    `json:"facebookId,omitempty" bson:"facebookId,omitempty"`
	GoogleID   string    `json:"googleId,omitempty" bson:"googleId,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AuthResult is the identity payload returned by login, register and profile
// updates; clients persist it to restore a session.
type AuthResult struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

type UpdateProfileParams struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type AdminUpdateParams struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	IsAdmin *bool   `json:"isAdmin"`
}
