package rbac

// 权限常量
const (
	PermissionReadProject   = "project:read"
	PermissionUpdateProject = "project:update"
	PermissionManageMembers = "member:manage"

	PermissionWriteMilestone = "milestone:write"
	PermissionWriteTask      = "task:write"
	PermissionWriteDocument  = "document:write"
	PermissionComment        = "comment:write"
)

// 项目角色
const (
	RoleManager    = "Manager"
	RoleResearcher = "Researcher"
	RoleViewer     = "Viewer"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleManager: {
		PermissionReadProject,
		PermissionUpdateProject,
		PermissionManageMembers,
		PermissionWriteMilestone,
		PermissionWriteTask,
		PermissionWriteDocument,
		PermissionComment,
	},
	RoleResearcher: {
		PermissionReadProject,
		PermissionWriteMilestone,
		PermissionWriteTask,
		PermissionWriteDocument,
		PermissionComment,
	},
	RoleViewer: {
		PermissionReadProject,
		PermissionComment,
	},
}

// ValidRole reports whether role is one of the project roles.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查角色是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
