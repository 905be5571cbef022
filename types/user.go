package types

import "time"

// Roles assignable to a user account. Public registration always
// produces RolePartner; RoleAdmin is assigned only by the seed tooling.
const (
	RolePartner = "partner"
	RoleAdmin   = "admin"
)

// User represents one registered account.
type User struct {
	// ID is the store-assigned identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// Role is either "partner" or "admin".
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Optional profile fields collected at registration.
	FirstName   string `json:"firstName,omitempty" db:"first_name"`
	LastName    string `json:"lastName,omitempty" db:"last_name"`
	Phone       string `json:"phone,omitempty" db:"phone"`
	CompanyName string `json:"companyName,omitempty" db:"company_name"`
	Address     string `json:"address,omitempty" db:"address"`
	City        string `json:"city,omitempty" db:"city"`
	Zip         string `json:"zip,omitempty" db:"zip"`
	Country     string `json:"country,omitempty" db:"country"`
	VatID       string `json:"vatId,omitempty" db:"vat_id"`

	// CreatedAt is set once by the store at insert time.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PublicUser is the compact user representation returned alongside a
// session token.
type PublicUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Public returns the compact representation of u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}
