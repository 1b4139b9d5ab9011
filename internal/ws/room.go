package ws

// room is the member set of one room name. It carries no lock of its own;
// the owning Hub serializes every access.
type room map[*Conn]struct{}

func (r room) add(c *Conn) { r[c] = struct{}{} }

func (r room) remove(c *Conn) bool {
	if _, ok := r[c]; !ok {
		return false
	}
	delete(r, c)
	return true
}

// snapshot copies the current members so I/O can happen outside the lock.
func (r room) snapshot() []*Conn {
	conns := make([]*Conn, 0, len(r))
	for c := range r {
		conns = append(conns, c)
	}
	return conns
}
