package models

// User is the client-supplied payload for creating or updating a user
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserRecord represents a row in the users table
type UserRecord struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
