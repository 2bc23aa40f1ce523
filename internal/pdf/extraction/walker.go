package extraction

import "log/slog"

// WalkOption configures WalkFields
type WalkOption func(*walkConfig)

type walkConfig struct {
	legacyFalsy bool
	logger      *slog.Logger
}

// WithLegacyFlagQuirk treats a zero Ff, a zero MaxLen and an empty DV as
// absent, matching the historical truthiness checks.
func WithLegacyFlagQuirk() WalkOption {
	return func(c *walkConfig) { c.legacyFalsy = true }
}

// WithWalkLogger reports skipped Kids cycles to logger
func WithWalkLogger(logger *slog.Logger) WalkOption {
	return func(c *walkConfig) { c.logger = logger }
}

// WalkFields flattens a field hierarchy in pre-order. Each node yields one
// descriptor, appended before the descriptors of its Kids. A Kids entry that
// refers back to an object on the current ancestor path is skipped.
func WalkFields(nodes []FieldNode, opts ...WalkOption) []FieldDescriptor {
	cfg := &walkConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	w := &walker{cfg: cfg, onPath: make(map[int]bool)}
	out := make([]FieldDescriptor, 0, len(nodes))
	return w.walk(nodes, out)
}

type walker struct {
	cfg    *walkConfig
	onPath map[int]bool
}

func (w *walker) walk(nodes []FieldNode, out []FieldDescriptor) []FieldDescriptor {
	for _, node := range nodes {
		if node == nil {
			continue
		}

		objNr, tracked := identityOf(node)
		if tracked && w.onPath[objNr] {
			if w.cfg.logger != nil {
				w.cfg.logger.Warn("extraction.walk.cycle_skipped", "object", objNr)
			}
			continue
		}

		out = append(out, w.describe(node))

		kids, ok := node.Kids()
		if !ok || len(kids) == 0 {
			continue
		}
		if tracked {
			w.onPath[objNr] = true
		}
		out = w.walk(kids, out)
		if tracked {
			delete(w.onPath, objNr)
		}
	}
	return out
}

func (w *walker) describe(node FieldNode) FieldDescriptor {
	var d FieldDescriptor
	legacy := w.cfg.legacyFalsy

	if name, ok := node.Name(); ok && !(legacy && name == "") {
		d.Name = &name
	}
	if ft, ok := node.Type(); ok && !(legacy && ft == "") {
		d.Type = &ft
	}
	if maxLen, ok := node.MaxLength(); ok && maxLen >= 0 && !(legacy && maxLen == 0) {
		d.MaxLength = &maxLen
	}
	if dv, ok := node.DefaultValue(); ok && !(legacy && dv == "") {
		d.DefaultValue = &dv
	}
	if mask, ok := node.Flags(); ok && !(legacy && mask == 0) {
		flags := DecodeFieldFlags(mask)
		d.Flags = &flags
	}
	if opts, ok := node.Options(); ok && !(legacy && len(opts) == 0) {
		copied := make([]string, len(opts))
		copy(copied, opts)
		d.Options = &copied
	}
	return d
}

func identityOf(node FieldNode) (int, bool) {
	if id, ok := node.(objectIdentity); ok {
		return id.ObjectNumber()
	}
	return 0, false
}
