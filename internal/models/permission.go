package models

type Permission struct {
	BaseModel

	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Roles []Role `gorm:"many2many:role_permissions;" json:"roles,omitempty"`
}
