package auth

// Claims es la identidad que el proveedor devuelve al verificar el idToken de
// POST /auth/session. UserID pasa a ser el uid del usuario en la clínica.
type Claims struct {
	UserID string
	Email  string
	Name   string
}
