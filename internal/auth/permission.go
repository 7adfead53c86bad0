package auth

import "strings"

// Role: роль пользователя из токена.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleEmployee Role = "Employee"
	RolePartner  Role = "Partner"
)

// Permission: право вида "ресурс:действие", например "order:create".
type Permission string

const (
	wildcardAll = "*"

	PermissionAll         Permission = "*:*"
	PermissionOrderAll    Permission = "order:*"
	PermissionOrderList   Permission = "order:list"
	PermissionOrderView   Permission = "order:view"
	PermissionOrderCreate Permission = "order:create"
)

// Parse разбивает право на ресурс и действие.
func (p Permission) Parse() (resource, action string) {
	resource, action, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return resource, action
}

// Matches сообщает, покрывает ли право запрошенное: "*:*" покрывает всё,
// "order:*" покрывает любое действие над заказами.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionAll || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && act == wildcardAll
}

// Policy сопоставляет ролям их права.
type Policy struct {
	grants map[Role][]Permission
}

// NewPolicy создаёт политику из таблицы ролей.
func NewPolicy(grants map[Role][]Permission) *Policy {
	copied := make(map[Role][]Permission, len(grants))
	for role, perms := range grants {
		copied[role] = append([]Permission(nil), perms...)
	}
	return &Policy{grants: copied}
}

// DefaultPolicy: заказы доступны администраторам и сотрудникам.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Role][]Permission{
		RoleAdmin:    {PermissionOrderAll},
		RoleEmployee: {PermissionOrderAll},
	})
}

// Allowed проверяет, есть ли у роли право perm.
func (p *Policy) Allowed(role Role, perm Permission) bool {
	for _, granted := range p.grants[role] {
		if granted.Matches(perm) {
			return true
		}
	}
	return false
}
