package survey

import (
	"strings"

	"fieldsurvey/pkg/ports/surveyport"
)

// BranchGroup holds the compiled location structures: the distinct branch
// names and the warehouses grouped under each of them.
type BranchGroup struct {
	Branches   []string
	Warehouses map[string][]surveyport.Warehouse
}

// GroupWarehouses separates raw warehouse rows into distinct branch ids and
// groups the warehouses by branch. Branch ids are trimmed before grouping to
// tolerate server-side whitespace. Branch order is the order of first
// appearance; each branch keeps its warehouses in original relative order.
func GroupWarehouses(warehouses []surveyport.Warehouse) BranchGroup {
	group := BranchGroup{
		Warehouses: make(map[string][]surveyport.Warehouse),
	}

	for _, warehouse := range warehouses {
		branch := strings.TrimSpace(warehouse.BranchWhseID)
		if _, seen := group.Warehouses[branch]; !seen {
			group.Branches = append(group.Branches, branch)
		}
		group.Warehouses[branch] = append(group.Warehouses[branch], warehouse)
	}

	return group
}

// FilterWarehouses returns the warehouses whose description or id contains the
// keyword, case-insensitively. An empty keyword returns the input unchanged.
func FilterWarehouses(warehouses []surveyport.Warehouse, keyword string) []surveyport.Warehouse {
	if keyword == "" {
		return warehouses
	}

	keyword = strings.ToLower(keyword)
	var matched []surveyport.Warehouse
	for _, warehouse := range warehouses {
		if strings.Contains(strings.ToLower(warehouse.WhseDescription), keyword) ||
			strings.Contains(strings.ToLower(warehouse.WhseID), keyword) {
			matched = append(matched, warehouse)
		}
	}
	return matched
}
