package sim

// RequestStatus is the outcome of applying a request to a component.
type RequestStatus string

const (
	// StatusPending means the request was accepted but its effect resolves
	// on a later timestep.
	StatusPending RequestStatus = "pending"
	// StatusSuccess means the request was received and processed. It says
	// nothing about whether the simulated outcome was the one the caller
	// intended.
	StatusSuccess RequestStatus = "success"
	// StatusFailure means the target could not be reached or rejected the
	// request outright.
	StatusFailure RequestStatus = "failure"
)

// Response is the envelope every request resolves to. Routing and
// state-machine problems surface here as StatusFailure; they are never
// raised as errors to the caller.
type Response struct {
	Status RequestStatus
	Data   map[string]any
}

// Success wraps data in a successful response. A nil map is replaced with an
// empty one so callers can always index Data.
func Success(data map[string]any) Response {
	if data == nil {
		data = map[string]any{}
	}
	return Response{Status: StatusSuccess, Data: data}
}

// Failure builds a failed response carrying a diagnostic reason.
func Failure(reason string) Response {
	return Response{Status: StatusFailure, Data: map[string]any{"reason": reason}}
}

// RequestContext carries per-request information through the dispatch tree.
type RequestContext struct {
	// Step is the simulation step at which the request was issued.
	Step int
	// From names the originator of the request, when known.
	From string
}
