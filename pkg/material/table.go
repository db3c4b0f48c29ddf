package material

// Handle refers to a Material stored in a Table
type Handle uint32

// Table stores each material once; surfaces refer to entries by Handle.
// It is filled while a scene is built and only read while rendering, so it
// can be shared by every worker without locking.
type Table struct {
	materials []Material
}

// NewTable creates an empty material table
func NewTable() *Table {
	return &Table{}
}

// Add stores m and returns its handle
func (t *Table) Add(m Material) Handle {
	t.materials = append(t.materials, m)
	return Handle(len(t.materials) - 1)
}

// Get returns the material for h. It panics on a handle the table never issued.
func (t *Table) Get(h Handle) Material {
	return t.materials[h]
}

// Len returns the number of stored materials
func (t *Table) Len() int {
	return len(t.materials)
}

// CountByKind tallies materials per kind
func (t *Table) CountByKind() map[Kind]int {
	counts := make(map[Kind]int, 3)
	for _, m := range t.materials {
		counts[m.Kind]++
	}
	return counts
}
