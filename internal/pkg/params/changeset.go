package params

// Change is one staged mutation: a parameter name and the literal to store.
type Change struct {
	Name  string
	Value string
}

// ChangeSet is an ordered set of staged mutations. Entries keep the order
// they were added in; adding an existing name updates it in place.
type ChangeSet struct {
	entries []Change
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{}
}

func (cs *ChangeSet) Add(name, value string) {
	for i := range cs.entries {
		if cs.entries[i].Name == name {
			cs.entries[i].Value = value
			return
		}
	}
	cs.entries = append(cs.entries, Change{Name: name, Value: value})
}

func (cs *ChangeSet) Entries() []Change {
	return cs.entries
}

func (cs *ChangeSet) Len() int {
	return len(cs.entries)
}

func (cs *ChangeSet) Empty() bool {
	return len(cs.entries) == 0
}
