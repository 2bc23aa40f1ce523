package extraction

// FieldNode is one node of a form field hierarchy. Every accessor reports
// whether the attribute is present on the node; a present zero value is
// distinct from an absent one.
type FieldNode interface {
	Name() (string, bool)
	Type() (string, bool)
	MaxLength() (int, bool)
	DefaultValue() (string, bool)
	Flags() (int64, bool)
	Options() ([]string, bool)
	Kids() ([]FieldNode, bool)
}

// objectIdentity is implemented by nodes backed by indirect PDF objects and
// lets the walker detect Kids cycles.
type objectIdentity interface {
	ObjectNumber() (int, bool)
}

// StaticNode is an in-memory FieldNode. Nil pointers are absent attributes.
type StaticNode struct {
	FieldName    *string
	FieldType    *string
	MaxLen       *int
	Default      *string
	FlagMask     *int64
	OptionValues []string
	HasOptions   bool
	Children     []FieldNode
	HasKids      bool
}

func (n *StaticNode) Name() (string, bool)         { return deref(n.FieldName) }
func (n *StaticNode) Type() (string, bool)         { return deref(n.FieldType) }
func (n *StaticNode) MaxLength() (int, bool)       { return deref(n.MaxLen) }
func (n *StaticNode) DefaultValue() (string, bool) { return deref(n.Default) }
func (n *StaticNode) Flags() (int64, bool)         { return deref(n.FlagMask) }

func (n *StaticNode) Options() ([]string, bool) {
	return n.OptionValues, n.HasOptions || n.OptionValues != nil
}

func (n *StaticNode) Kids() ([]FieldNode, bool) {
	return n.Children, n.HasKids || n.Children != nil
}

// WithKids sets the node's children and returns the node
func (n *StaticNode) WithKids(kids ...FieldNode) *StaticNode {
	n.Children = kids
	n.HasKids = true
	return n
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Ptr returns a pointer to v, for building StaticNodes.
func Ptr[T any](v T) *T {
	return &v
}
