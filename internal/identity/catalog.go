package identity

import "sort"

// Privilege names known to the system.
const (
	PrivilegeAdministration = "Administration"
	PrivilegeSetting        = "Setting"
	PrivilegeReport         = "Report"
	PrivilegeDashboard      = "Dashboard"
	PrivilegeMessagePortal  = "MessagePortal"

	PrivilegeUserCreate = "User.Create"
	PrivilegeUserRead   = "User.Read"
	PrivilegeUserUpdate = "User.Update"
	PrivilegeUserDelete = "User.Delete"

	PrivilegeRoleCreate = "Role.Create"
	PrivilegeRoleRead   = "Role.Read"
	PrivilegeRoleUpdate = "Role.Update"
	PrivilegeRoleDelete = "Role.Delete"
)

// Catalog is the immutable set of privileges grantable to users. It is built
// once at startup and injected into the components that need it.
type Catalog struct {
	names []string
	index map[string]struct{}
}

// DefaultCatalog returns the full privilege catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		PrivilegeAdministration,
		PrivilegeSetting,
		PrivilegeReport,
		PrivilegeDashboard,
		PrivilegeMessagePortal,
		PrivilegeUserCreate,
		PrivilegeUserRead,
		PrivilegeUserUpdate,
		PrivilegeUserDelete,
		PrivilegeRoleCreate,
		PrivilegeRoleRead,
		PrivilegeRoleUpdate,
		PrivilegeRoleDelete,
	)
}

// NewCatalog builds a catalog from the given names, deduplicated and sorted.
func NewCatalog(names ...string) *Catalog {
	index := make(map[string]struct{}, len(names))
	for _, name := range names {
		index[name] = struct{}{}
	}
	sorted := make([]string, 0, len(index))
	for name := range index {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return &Catalog{names: sorted, index: index}
}

// Names returns the catalog entries in sorted order. The returned slice is a
// copy; the catalog itself never changes after construction.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Contains reports whether name is a known privilege.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Validate returns the subset of names not present in the catalog.
func (c *Catalog) Validate(names []string) []string {
	var unknown []string
	for _, name := range names {
		if !c.Contains(name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}
