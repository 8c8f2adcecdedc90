package models

// Menu link target values.
const (
	TargetSelf  = "_self"
	TargetBlank = "_blank"
)

// Menu is a navigation entry. Entries form a tree through ParentID; a
// row with IsSectionTitle set renders as a non-navigable divider.
// Permission names the permission required to see the entry; an empty
// value means the entry is visible to any authenticated user.
type Menu struct {
	BaseModel

	Title          string `gorm:"not null" json:"title"`
	Icon           string `json:"icon"`
	To             string `json:"to"`
	Href           string `json:"href"`
	Target         string `gorm:"default:_self" json:"target"`
	ParentID       *uint  `gorm:"index" json:"parent_id"`
	Order          int    `gorm:"column:order;default:0" json:"order"`
	IsSectionTitle bool   `gorm:"default:false" json:"is_section_title"`
	IsActive       bool   `gorm:"default:true" json:"is_active"`
	Permission     string `json:"permission"`

	Parent   *Menu  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Menu `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Roles    []Role `gorm:"many2many:menu_roles;" json:"roles,omitempty"`
}
