package rbac

const (
	RoleAdmin   = "admin"
	RoleCurator = "curator"
	RoleStudent = "student"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

var RolePermissions = map[string][]string{
	RoleStudent: {
		"theme:view",
		"practical_set:view",
		"exam:generate",
		"exam:view-own",
		"attempt:create",
		"attempt:answer",
		"attempt:finish",
		"attempt:view-own",
		"analytics:view-own",
	},
	RoleCurator: {
		"theme:view",
		"question:*",
		"practical_set:*",
		"exam:generate",
		"exam:view-own",
		"attempt:create",
		"attempt:answer",
		"attempt:finish",
		"attempt:view-own",
		"analytics:view-own",
	},
	RoleAdmin: {
		"*",
	},
}
