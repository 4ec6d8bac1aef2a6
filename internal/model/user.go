package model

// User represents a registered account.  Both regular customers and
// administrators live in the same table; the IsAdmin flag gates access
// to the administrative endpoints.  Gender, Age and PhoneNumber are
// optional passenger details collected when a booking is made.
type User struct {
	ID          uint64  `json:"id"`           // users.id
	Username    string  `json:"username"`     // users.username
	Email       string  `json:"email"`        // users.email (unique)
	Password    string  `json:"-"`            // users.password (bcrypt hash, never serialized)
	Gender      *string `json:"gender"`       // users.gender (nullable)
	Age         *uint32 `json:"age"`          // users.age (nullable)
	PhoneNumber *string `json:"phone_number"` // users.phone_number (nullable)
	IsAdmin     bool    `json:"is_admin"`     // users.is_admin
}
