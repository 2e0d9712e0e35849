package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold within a tenant. ADMIN sees every record in the
// tenant; MEMBER only records they own or unassigned ones.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// User represents a tenant user stored in the database
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Role      string         `json:"role" gorm:"type:varchar(20);not null;default:'MEMBER'"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
