package llm

import (
	"context"
	"iter"
)

// RawCandidate is one product entry as the model reported it, before validation.
// Price is nil when the model's value was not numeric.
type RawCandidate struct {
	Name  string
	Price *float64
}

// FailureKind classifies why an extraction produced nothing.
type FailureKind string

const (
	FailureNone              FailureKind = "none"
	FailureMissingCredential FailureKind = "missing_credential"
	FailureTransport         FailureKind = "transport"
	FailureBadStatus         FailureKind = "bad_status"
	FailureEnvelope          FailureKind = "envelope"
	FailureContent           FailureKind = "content"
	FailureProducts          FailureKind = "products"
)

// Result is the outcome of one vision call. Callers that only need the
// candidates use Seq, which is empty on any failure.
type Result struct {
	Candidates []RawCandidate
	Failure    FailureKind
	Err        error
}

// Succeeded wraps decoded candidates.
func Succeeded(c []RawCandidate) Result {
	return Result{Candidates: c, Failure: FailureNone}
}

// Failed records a failure; the candidate sequence is empty.
func Failed(kind FailureKind, err error) Result {
	return Result{Failure: kind, Err: err}
}

// OK reports whether the call produced a usable product list (possibly empty).
func (r Result) OK() bool {
	return r.Failure == FailureNone || r.Failure == ""
}

// Seq yields candidates in the order the model returned them.
func (r Result) Seq() iter.Seq[RawCandidate] {
	return func(yield func(RawCandidate) bool) {
		if !r.OK() {
			return
		}
		for _, c := range r.Candidates {
			if !yield(c) {
				return
			}
		}
	}
}

// Extractor is the interface our pipeline depends on. Implementations never
// return an error; failures are reported through Result.Failure.
type Extractor interface {
	Extract(ctx context.Context, image []byte) Result
}
