package harness

import (
	"fmt"

	"github.com/roach88/gpl/internal/ir"
)

// aliasTable maps scenario aliases to addresses and back.
type aliasTable struct {
	byName map[string]ir.Address
	byAddr map[ir.Address]string
}

func newAliasTable() *aliasTable {
	return &aliasTable{
		byName: make(map[string]ir.Address),
		byAddr: make(map[ir.Address]string),
	}
}

func (t *aliasTable) bind(name string, addr ir.Address) {
	t.byName[name] = addr
	if _, ok := t.byAddr[addr]; !ok {
		t.byAddr[addr] = name
	}
}

func (t *aliasTable) resolve(name string) (ir.Address, error) {
	addr, ok := t.byName[name]
	if !ok {
		return ir.Address{}, fmt.Errorf("alias %q is not bound", name)
	}
	return addr, nil
}

// name returns the alias for addr, or its hex form if it has none.
func (t *aliasTable) name(addr ir.Address) string {
	if name, ok := t.byAddr[addr]; ok {
		return name
	}
	return addr.String()
}

// eventMap returns ev's payload with addresses replaced by aliases.
func (t *aliasTable) eventMap(ev ir.Event) map[string]any {
	out := ev.Payload()
	out["kind"] = string(ev.Kind())
	switch e := ev.(type) {
	case ir.ProfileCreated:
		out["profile"] = t.name(e.Profile)
		out["user"] = t.name(e.User)
	case ir.ProfileDeleted:
		out["profile"] = t.name(e.Profile)
		out["user"] = t.name(e.User)
	}
	return out
}
