package zre

// group is the set of peer UUIDs that have announced membership in a
// named group, mirroring Gyre's own peer-group bookkeeping.
type group struct {
	name    string
	members map[string]bool
}

func newGroup(name string) *group {
	return &group{name: name, members: make(map[string]bool)}
}

func (g *group) join(uuid string)  { g.members[uuid] = true }
func (g *group) leave(uuid string) { delete(g.members, uuid) }
func (g *group) has(uuid string) bool {
	return g.members[uuid]
}
