package models

// SuperAdminRole is the bootstrap role: it cannot be deleted and every
// permission check passes for its members.
const SuperAdminRole = "super-admin"

type Role struct {
	BaseModel

	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	Users       []User       `gorm:"many2many:user_roles;" json:"users,omitempty"`
	Menus       []Menu       `gorm:"many2many:menu_roles;" json:"menus,omitempty"`
}
