package notify

import "context"

// RoleChanged se publica cuando un admin cambia el rol de un usuario.
// Los roles viajan como texto para no acoplar este puerto al dominio.
type RoleChanged struct {
	UID  string `json:"uid"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Bus distribuye RoleChanged a quien mantenga estado derivado del rol
// (cache de sesión). Puede ser in-process o cross-instance.
type Bus interface {
	PublishRoleChanged(ctx context.Context, ev RoleChanged) error
	SubscribeRoleChanged(fn func(RoleChanged)) (unsubscribe func())
}
