package circuitfile

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	bb "github.com/dwyrd/breadboard"
)

var (
	// validate is a singleton validator instance.
	validate *validator.Validate

	// MaxPins bounds pin counts, value vectors and wire pin indexes. The
	// struct tags on Document mirror this value.
	MaxPins = 4096

	idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)
)

func init() {
	validate = validator.New()
}

// Validate checks a document beyond what decoding enforces: identifier
// shape and uniqueness, wire endpoints, module terminal lists and the pin
// layout of fixed kinds. It expects defaults to have been applied, which
// Load and Save take care of. The module reference of a MODULE node is
// deliberately not resolved; instances of a removed definition stay valid
// and settle to all false pins.
//
func Validate(d *Document) error {
	if d == nil {
		return errors.New("circuit document cannot be nil")
	}
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}
	if err := checkCircuit(d.Nodes, d.Connections); err != nil {
		return err
	}
	seen := make(map[string]int, len(d.Modules))
	for i := range d.Modules {
		m := &d.Modules[i]
		if !idPattern.MatchString(m.ID) {
			return errors.Errorf("modules[%d]: invalid id %q", i, m.ID)
		}
		if j, ok := seen[m.ID]; ok {
			return errors.Errorf("modules[%d]: id %q already used by modules[%d]", i, m.ID, j)
		}
		seen[m.ID] = i
		if err := m.check(); err != nil {
			return errors.Wrapf(err, "module %q", m.ID)
		}
	}
	return nil
}

func checkCircuit(nodes []NodeDoc, conns []ConnDoc) error {
	byID := make(map[string]int, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if !idPattern.MatchString(n.ID) {
			return errors.Errorf("nodes[%d]: invalid id %q", i, n.ID)
		}
		if j, ok := byID[n.ID]; ok {
			return errors.Errorf("nodes[%d]: id %q already used by nodes[%d]", i, n.ID, j)
		}
		byID[n.ID] = i
		if err := n.check(); err != nil {
			return errors.Wrapf(err, "nodes[%d]", i)
		}
	}
	seen := make(map[string]int, len(conns))
	for i := range conns {
		w := &conns[i]
		if !idPattern.MatchString(w.ID) {
			return errors.Errorf("connections[%d]: invalid id %q", i, w.ID)
		}
		if j, ok := seen[w.ID]; ok {
			return errors.Errorf("connections[%d]: id %q already used by connections[%d]", i, w.ID, j)
		}
		seen[w.ID] = i
		if _, ok := byID[w.From]; !ok {
			return errors.Errorf("connections[%d]: unknown source node %q", i, w.From)
		}
		if _, ok := byID[w.To]; !ok {
			return errors.Errorf("connections[%d]: unknown target node %q", i, w.To)
		}
	}
	return nil
}

func (nd *NodeDoc) check() error {
	k := bb.Kind(nd.Kind)
	if in, out, fixed := bb.PinCounts(k); fixed {
		if nd.Inputs != in || nd.Outputs != out {
			return errors.Errorf("%s pin layout is fixed at %d in, %d out", nd.Kind, in, out)
		}
	}
	switch k {
	case bb.KindPinBar:
		if nd.Mode == "" {
			return errors.New("pin bar requires a mode")
		}
		if nd.Mode == string(bb.BarInput) && len(nd.Values) > nd.Outputs {
			return errors.Errorf("%d values exceed %d pins", len(nd.Values), nd.Outputs)
		}
	case bb.KindModule:
		if nd.Module == "" {
			return errors.New("module instance requires a definition reference")
		}
	}
	return nil
}

func (md *ModuleDoc) check() error {
	if err := checkCircuit(md.Nodes, md.Connections); err != nil {
		return err
	}
	byID := make(map[string]*NodeDoc, len(md.Nodes))
	for i := range md.Nodes {
		if _, ok := byID[md.Nodes[i].ID]; !ok {
			byID[md.Nodes[i].ID] = &md.Nodes[i]
		}
	}
	seen := make(map[string]bool, len(md.InputIDs)+len(md.OutputIDs))
	for _, id := range md.InputIDs {
		n := byID[id]
		switch {
		case n == nil:
			return errors.Errorf("input terminal %q is not a node of the module", id)
		case !isTerminal(n, true):
			return errors.Errorf("node %q cannot serve as an input terminal", id)
		case seen[id]:
			return errors.Errorf("terminal %q listed twice", id)
		}
		seen[id] = true
	}
	for _, id := range md.OutputIDs {
		n := byID[id]
		switch {
		case n == nil:
			return errors.Errorf("output terminal %q is not a node of the module", id)
		case !isTerminal(n, false):
			return errors.Errorf("node %q cannot serve as an output terminal", id)
		case seen[id]:
			return errors.Errorf("terminal %q listed twice", id)
		}
		seen[id] = true
	}
	return nil
}

func isTerminal(n *NodeDoc, input bool) bool {
	switch bb.Kind(n.Kind) {
	case bb.KindInput, bb.KindButton:
		return input
	case bb.KindOutput, bb.KindLED:
		return !input
	case bb.KindPinBar:
		if input {
			return n.Mode == string(bb.BarInput)
		}
		return n.Mode == string(bb.BarOutput)
	}
	return false
}

// formatValidationError converts validator errors to a more user-friendly
// format.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return errors.Errorf("%s: field is required", field)
		case "min":
			return errors.Errorf("%s: must be at least %s", field, e.Param())
		case "max":
			return errors.Errorf("%s: must not exceed %s", field, e.Param())
		case "oneof":
			return errors.Errorf("%s: must be one of %s", field, e.Param())
		default:
			return errors.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
