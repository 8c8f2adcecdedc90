// Package navtree prunes the navigation menu tree down to the entries a
// user is allowed to see.
package navtree

import "github.com/panelkit/panelkit/internal/models"

// View is the client-facing projection of a menu entry. Ordering,
// active state, and parent references are resolved before filtering and
// deliberately omitted from the payload.
type View struct {
	ID             uint   `json:"id"`
	Title          string `json:"title"`
	Icon           string `json:"icon"`
	To             string `json:"to"`
	Href           string `json:"href"`
	Target         string `json:"target"`
	IsSectionTitle bool   `json:"is_section_title"`
	Permission     string `json:"permission"`
	Children       []View `json:"children"`
}

// Filter walks the menu tree depth-first and keeps the entries visible
// to a user holding the given permission names. Input order is
// preserved at every level.
//
// The caller is responsible for the fetch step: menus must contain only
// active root entries sorted by display order, each preloaded with its
// own active children in display order. Filter performs permission
// pruning and shape projection only.
//
// An entry whose permission check fails is dropped together with its
// entire subtree; a descendant's own permission never resurrects it. An
// entry that passes its check is kept only when it leads somewhere: it
// has surviving children, an internal or external link, or marks a
// section title. Section titles survive with zero visible children,
// which can render empty headings for sparsely-permitted users.
func Filter(menus []models.Menu, permissionNames []string, isSuperAdmin bool) []View {
	granted := make(map[string]struct{}, len(permissionNames))
	for _, name := range permissionNames {
		granted[name] = struct{}{}
	}
	return filter(menus, granted, isSuperAdmin)
}

func filter(menus []models.Menu, granted map[string]struct{}, isSuperAdmin bool) []View {
	result := make([]View, 0, len(menus))

	for _, menu := range menus {
		if !hasAccess(menu.Permission, granted, isSuperAdmin) {
			continue
		}

		view := View{
			ID:             menu.ID,
			Title:          menu.Title,
			Icon:           menu.Icon,
			To:             menu.To,
			Href:           menu.Href,
			Target:         menu.Target,
			IsSectionTitle: menu.IsSectionTitle,
			Permission:     menu.Permission,
			Children:       []View{},
		}

		if len(menu.Children) > 0 {
			view.Children = filter(menu.Children, granted, isSuperAdmin)
		}

		if len(view.Children) > 0 || menu.To != "" || menu.Href != "" || menu.IsSectionTitle {
			result = append(result, view)
		}
	}

	return result
}

func hasAccess(required string, granted map[string]struct{}, isSuperAdmin bool) bool {
	if isSuperAdmin || required == "" {
		return true
	}
	_, ok := granted[required]
	return ok
}
