package sim

import (
	"fmt"

	"github.com/google/uuid"
)

// Component is any addressable, stateful simulation entity. Containers
// forward requests to children by matching the next path segment; leaves
// execute terminal verbs. DescribeState returns the component's own fields
// merged with the recursively described state of every child.
type Component interface {
	ID() uuid.UUID
	Name() string
	ApplyRequest(path []string, ctx *RequestContext) Response
	DescribeState() map[string]any
}

// entity supplies the identity fields shared by every component. The UUID
// is derived from the component's tree path so identically configured
// simulations describe identical state.
type entity struct {
	id   uuid.UUID
	name string
}

func newEntity(kind, name string) entity {
	return entity{
		id:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+"/"+name)),
		name: name,
	}
}

func (e *entity) ID() uuid.UUID { return e.id }
func (e *entity) Name() string  { return e.name }

// LeafOp is a terminal verb registered on a component. args holds any path
// segments following the verb (e.g. the target address of a ping).
type LeafOp func(ctx *RequestContext, args []string) Response

// RequestRouter implements the segment-dispatch half of the Component
// contract: a mapping from path segment to child component or leaf verb.
// Routing itself never mutates state; only the terminal verb does.
type RequestRouter struct {
	children   map[string]Component
	childOrder []string
	ops        map[string]LeafOp
}

func NewRequestRouter() *RequestRouter {
	return &RequestRouter{
		children: make(map[string]Component),
		ops:      make(map[string]LeafOp),
	}
}

// AddChild registers a child under its path segment. Duplicate segments are
// a caller bug and rejected eagerly.
func (r *RequestRouter) AddChild(segment string, c Component) error {
	if _, exists := r.children[segment]; exists {
		return fmt.Errorf("router: segment %q already has a child", segment)
	}
	r.children[segment] = c
	r.childOrder = append(r.childOrder, segment)
	return nil
}

// RemoveChild drops the child registered under segment, if any.
func (r *RequestRouter) RemoveChild(segment string) {
	if _, exists := r.children[segment]; !exists {
		return
	}
	delete(r.children, segment)
	for i, s := range r.childOrder {
		if s == segment {
			r.childOrder = append(r.childOrder[:i], r.childOrder[i+1:]...)
			break
		}
	}
}

// Child looks up a child by segment, distinguishing "absent" from a present
// child via the second return value.
func (r *RequestRouter) Child(segment string) (Component, bool) {
	c, ok := r.children[segment]
	return c, ok
}

// Children returns the registered segments in insertion order.
func (r *RequestRouter) Children() []string {
	out := make([]string, len(r.childOrder))
	copy(out, r.childOrder)
	return out
}

// RegisterOp registers a terminal verb. Duplicate verbs are rejected.
func (r *RequestRouter) RegisterOp(verb string, op LeafOp) error {
	if _, exists := r.ops[verb]; exists {
		return fmt.Errorf("router: verb %q already registered", verb)
	}
	r.ops[verb] = op
	return nil
}

// mustOp registers a fixed built-in verb at construction time. A duplicate
// built-in verb is a programming bug, not a runtime condition.
func (r *RequestRouter) mustOp(verb string, op LeafOp) {
	if err := r.RegisterOp(verb, op); err != nil {
		panic(err)
	}
}

// Dispatch pops the first path segment and either recurses into the named
// child or executes the named verb with the remaining segments as
// arguments. Unknown segments resolve to a failure response, never a panic.
func (r *RequestRouter) Dispatch(path []string, ctx *RequestContext) Response {
	if len(path) == 0 {
		return Failure("empty request path: missing verb")
	}
	segment := path[0]
	if child, ok := r.children[segment]; ok {
		return child.ApplyRequest(path[1:], ctx)
	}
	if op, ok := r.ops[segment]; ok {
		return op(ctx, path[1:])
	}
	return Response{
		Status: StatusFailure,
		Data: map[string]any{
			"reason":  "unknown path segment",
			"segment": segment,
		},
	}
}
