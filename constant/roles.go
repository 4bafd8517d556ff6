package constant

// UserRole 网关透传的调用者角色。
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleModerator  UserRole = "moderator"
)

// UserRoleKey 角色在 gin.Context 中的键，由 middleware.RoleContextMiddleware 写入。
const UserRoleKey = "UserRole"

// UserRoleHeader 网关透传角色使用的请求头。
const UserRoleHeader = "X-User-Role"

// IsInstructor 只有讲师可以采纳答案。
func (r UserRole) IsInstructor() bool {
	return r == RoleInstructor
}

// IsElevated 讲师与版主可以删除他人的内容。
func (r UserRole) IsElevated() bool {
	return r == RoleInstructor || r == RoleModerator
}

// ParseUserRole 把请求头中的字符串规整为已知角色，未知值一律视为学生。
func ParseUserRole(raw string) UserRole {
	switch UserRole(raw) {
	case RoleInstructor, RoleModerator:
		return UserRole(raw)
	default:
		return RoleStudent
	}
}
