package domain

import "time"

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Institution  string    `json:"institution,omitempty"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the public view of a user returned by the API.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Institution string `json:"institution,omitempty"`
	Email       string `json:"email"`
}

// Profile strips credentials from the user.
func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Name:        u.Name,
		Institution: u.Institution,
		Email:       u.Email,
	}
}
