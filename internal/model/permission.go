package model

type Permission string

const (
	PermTakeExam        Permission = "exam:take"
	PermViewOwnResults  Permission = "result:view-own"
	PermManageExams     Permission = "exam:manage"
	PermManageQuestions Permission = "question:manage"
	PermViewResults     Permission = "result:view"
	PermManageResults   Permission = "result:manage"
	PermRevealResults   Permission = "result:reveal"
	PermExportResults   Permission = "result:export"
	PermManageUsers     Permission = "user:manage"
)

var rolePermissions = map[UserRole][]Permission{
	Student: {
		PermTakeExam,
		PermViewOwnResults,
	},
	Teacher: {
		PermManageExams,
		PermManageQuestions,
		PermViewResults,
		PermManageResults,
		PermRevealResults,
		PermExportResults,
	},
	DepartmentHead: {
		PermViewResults,
		PermExportResults,
	},
	Admin: {
		PermManageExams,
		PermManageQuestions,
		PermViewResults,
		PermManageResults,
		PermRevealResults,
		PermExportResults,
		PermManageUsers,
	},
}

var permissionIndex = func() map[UserRole]map[Permission]bool {
	idx := make(map[UserRole]map[Permission]bool, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[Permission]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		idx[role] = set
	}
	return idx
}()

func (r UserRole) Can(p Permission) bool {
	return permissionIndex[r][p]
}
