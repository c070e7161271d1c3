package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOfficer Role = "admin"
	RoleCitizen Role = "masyarakat"
)

// ParseRole maps a stored role value onto a known role. Older records carry
// "Masyarakat" and similar casings; anything unrecognized is a citizen.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleOfficer)) {
		return RoleOfficer
	}
	return RoleCitizen
}

// Profile is the application-side record created once at registration. Its
// ID equals the owning User's ID.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Name      string    `gorm:"size:255" json:"name"`
	NIK       string    `gorm:"column:nik;size:32" json:"nik"`
	Phone     string    `gorm:"size:32" json:"no_hp"`
	Role      Role      `gorm:"size:20;not null;default:'masyarakat'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
