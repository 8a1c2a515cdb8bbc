// Package models holds the records persisted by the server repositories.
package models

import "time"

// Account is a user able to pass the access gate. Accounts are created by the
// admin command; the upload pipeline only reads them.
type Account struct {
	ID           string
	Username     string
	PasswordHash []byte
	Email        string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// ProfileUpdate carries the editable profile fields. Nil keeps the stored value.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}
