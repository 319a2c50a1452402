package models

import "time"

type User struct {
	ID           string    `json:"user_id" db:"id" bson:"_id"`
	Email        string    `json:"email" db:"email" bson:"email"`
	PasswordHash string    `json:"-" db:"password_hash" bson:"password"`
	Name         string    `json:"name" db:"name" bson:"name"`
	DateCreated  time.Time `json:"-" db:"date_created" bson:"created_at"`
}
