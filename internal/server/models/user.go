package models

// User is an account able to own tasks. HashedPassword is an
// algorithm-tagged hash string, never the plaintext.
type User struct {
	ID             string
	Email          string
	HashedPassword string
}
