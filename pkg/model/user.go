package model

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleResident Role = "resident"
	RoleGuard    Role = "guard"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleResident, RoleGuard:
		return true
	}
	return false
}

type User struct {
	Meta         `bson:",inline"`
	FirstName    string `json:"firstName" bson:"first_name" validate:"required,max=100"`
	LastName     string `json:"lastName" bson:"last_name" validate:"max=100"`
	Username     string `json:"username" bson:"username" validate:"required,min=3,max=50"`
	Email        string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Role         Role   `json:"role" bson:"role" validate:"required,oneof=admin resident guard"`
	PasswordHash string `json:"-" bson:"password"`
}

// NewUser is the registration payload; the plain password never reaches the store.
type NewUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
