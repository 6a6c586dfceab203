package account

import "time"

// Type is the platform role an account was registered with
type Type string

const (
	TypeDriver        Type = "Driver"
	TypeMunicipal     Type = "Municipal"
	TypeEstablishment Type = "Establishment"
	TypeAdmin         Type = "Admin"
)

// Valid reports whether t is a known account type
func (t Type) Valid() bool {
	switch t {
	case TypeDriver, TypeMunicipal, TypeEstablishment, TypeAdmin:
		return true
	}
	return false
}

// OwnsSlots reports whether accounts of this type can receive parking revenue
func (t Type) OwnsSlots() bool {
	return t == TypeMunicipal || t == TypeEstablishment
}

// Account represents a registered party on the platform
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      Type      `json:"account_type"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayInfo is what reports show for a slot owner
type DisplayInfo struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}
