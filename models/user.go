package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role gates access to the admin panel.
type Role string

const (
	RoleUser   Role = "user"
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// Location is a geocoded farm position.
type Location struct {
	Latitude  float64 `bson:"latitude"  json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	Address   string  `bson:"address"   json:"address"`
}

// DefaultLocation is assigned to accounts created without one (New Delhi).
var DefaultLocation = Location{Latitude: 28.6139, Longitude: 77.2090, Address: "Default Location"}

// User is a farmer or admin account.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"   json:"id"`
	Name          string             `bson:"name"            json:"name"`
	Email         string             `bson:"email"           json:"email"` // stored lower-case, unique
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash  string             `bson:"passwordHash"    json:"-"`
	EmailVerified bool               `bson:"emailVerified"   json:"emailVerified"`
	Location      Location           `bson:"location"        json:"location"`
	Role          Role               `bson:"role"            json:"role"`
	IsActive      bool               `bson:"isActive"        json:"isActive"`
	LastLogin     time.Time          `bson:"lastLogin"       json:"lastLogin"`
	CreatedAt     time.Time          `bson:"createdAt"       json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"       json:"updatedAt"`
}

// IsAdmin reports whether the user may use the admin panel.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
