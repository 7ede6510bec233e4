package navigation

// Role identifies a shell audience. The string values match the role field
// of persisted identity records.
type Role string

const (
	// RoleAdmin is the platform operator role.
	RoleAdmin Role = "Admin"
	// RoleReseller is a top-level tenant that manages its own users.
	RoleReseller Role = "Reseller"
	// RoleSubReseller is a tenant nested under a reseller.
	RoleSubReseller Role = "Sub-Reseller"
	// RoleUser is an end customer.
	RoleUser Role = "User"
)

// Roles lists the enumeration in declaration order.
var Roles = [...]Role{RoleAdmin, RoleReseller, RoleSubReseller, RoleUser}

// ParseRole reports whether s names a role in the enumeration.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleReseller, RoleSubReseller, RoleUser:
		return r, true
	default:
		return "", false
	}
}

// Entry is one navigation destination. PathTemplate may contain
// [UserPlaceholder].
type Entry struct {
	PathTemplate string
	Label        string
	Icon         string
}

var adminEntries = [...]Entry{
	{PathTemplate: "/admin", Label: "Dashboard", Icon: "🏠"},
	{PathTemplate: "/profile/:userId", Label: "My Profile", Icon: "👤"},
	{PathTemplate: "/users", Label: "Users", Icon: "👥"},
	{PathTemplate: "/campaigns", Label: "Campaigns", Icon: "📤"},
	{PathTemplate: "/credits", Label: "Credits", Icon: "💳"},
	{PathTemplate: "/reports", Label: "Reports", Icon: "📊"},
	{PathTemplate: "/history", Label: "History", Icon: "📋"},
	{PathTemplate: "/analytics", Label: "Analytics", Icon: "📈"},
	{PathTemplate: "/tickets", Label: "Support Tickets", Icon: "🎫"},
	{PathTemplate: "/admin-announcements", Label: "Manage Announcements", Icon: "⚙️"},
	{PathTemplate: "/announcements-history", Label: "View Announcements", Icon: "📢"},
	{PathTemplate: "/backup", Label: "Backup & Data", Icon: "🗄️"},
}

var resellerEntries = [...]Entry{
	{PathTemplate: "/reseller-dashboard", Label: "Dashboard", Icon: "🏠"},
	{PathTemplate: "/profile/:userId", Label: "My Profile", Icon: "👤"},
	{PathTemplate: "/users", Label: "My Users", Icon: "👥"},
	{PathTemplate: "/campaigns", Label: "Campaigns", Icon: "📤"},
	{PathTemplate: "/history", Label: "History", Icon: "📋"},
	{PathTemplate: "/analytics", Label: "Analytics", Icon: "📈"},
	{PathTemplate: "/tickets", Label: "Support Tickets", Icon: "🎫"},
	{PathTemplate: "/announcements-history", Label: "Announcements", Icon: "📢"},
	{PathTemplate: "/whitelabel-settings", Label: "Whitelabel", Icon: "🎨"},
}

var subResellerEntries = [...]Entry{
	{PathTemplate: "/subreseller-dashboard", Label: "Dashboard", Icon: "🏠"},
	{PathTemplate: "/profile/:userId", Label: "My Profile", Icon: "👤"},
	{PathTemplate: "/users", Label: "My Users", Icon: "👥"},
	{PathTemplate: "/campaigns", Label: "Campaigns", Icon: "📤"},
	{PathTemplate: "/tickets", Label: "Support Tickets", Icon: "🎫"},
	{PathTemplate: "/announcements-history", Label: "Announcements", Icon: "📢"},
	{PathTemplate: "/whitelabel-settings", Label: "Whitelabel", Icon: "🎨"},
}

var userEntries = [...]Entry{
	{PathTemplate: "/user-dashboard", Label: "Dashboard", Icon: "🏠"},
	{PathTemplate: "/profile/:userId", Label: "My Profile", Icon: "👤"},
	{PathTemplate: "/campaigns", Label: "My Campaigns", Icon: "📤"},
	{PathTemplate: "/tickets", Label: "Support Tickets", Icon: "🎫"},
	{PathTemplate: "/announcements-history", Label: "Announcements", Icon: "📢"},
}

// EntriesFor returns the ordered navigation entries for role. The result is a
// fresh copy; unknown roles yield an empty slice.
func EntriesFor(role Role) []Entry {
	switch role {
	case RoleAdmin:
		e := adminEntries
		return e[:]
	case RoleReseller:
		e := resellerEntries
		return e[:]
	case RoleSubReseller:
		e := subResellerEntries
		return e[:]
	case RoleUser:
		e := userEntries
		return e[:]
	default:
		return []Entry{}
	}
}
