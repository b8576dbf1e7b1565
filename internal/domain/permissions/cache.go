package permissions

import "sync"

type cacheEntry struct {
	uid   string
	role  Role
	perms []Permission
}

// SessionCache guarda la tabla resuelta por sesión. Vive lo que vive el proceso
// que la crea (una por router), nunca como variable global.
type SessionCache struct {
	mu        sync.Mutex
	bySession map[string]cacheEntry
}

func NewSessionCache() *SessionCache {
	return &SessionCache{bySession: make(map[string]cacheEntry)}
}

// Get devuelve los permisos cacheados para la sesión de p. Si el rol cacheado no
// coincide con el rol releído, la entrada se descarta.
func (c *SessionCache) Get(p Principal) ([]Permission, bool) {
	if p.SessionID == "" {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.bySession[p.SessionID]
	if !ok {
		return nil, false
	}
	if e.uid != p.UID || e.role != p.Role {
		delete(c.bySession, p.SessionID)
		return nil, false
	}
	return clonePerms(e.perms), true
}

func (c *SessionCache) Put(p Principal, perms []Permission) {
	if p.SessionID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bySession[p.SessionID] = cacheEntry{uid: p.UID, role: p.Role, perms: clonePerms(perms)}
}

// Drop elimina una sesión (logout).
func (c *SessionCache) Drop(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bySession, sessionID)
}

// DropUser elimina todas las sesiones de uid (cambio de rol).
func (c *SessionCache) DropUser(uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.bySession {
		if e.uid == uid {
			delete(c.bySession, id)
		}
	}
}

// InvalidateRole elimina las sesiones cuyo rol fue reescrito.
func (c *SessionCache) InvalidateRole(role Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.bySession {
		if e.role == role {
			delete(c.bySession, id)
		}
	}
}

func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bySession)
}
