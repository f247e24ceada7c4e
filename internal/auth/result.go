package auth

// ResultKind tags the outcome of an authentication attempt.
type ResultKind int

const (
	// ResultNone means the request carried no credential for the scheme.
	ResultNone ResultKind = iota
	// ResultFailure means a credential was supplied but rejected.
	ResultFailure
	// ResultSuccess means the credential resolved to a principal.
	ResultSuccess
)

func (k ResultKind) String() string {
	switch k {
	case ResultFailure:
		return "failure"
	case ResultSuccess:
		return "success"
	default:
		return "none"
	}
}

// Result is the outcome of Authenticator.Authenticate. Only successful
// results carry a principal.
type Result struct {
	kind      ResultKind
	reason    string
	principal Principal
}

func NoResult() Result {
	return Result{kind: ResultNone}
}

func Fail(reason string) Result {
	return Result{kind: ResultFailure, reason: reason}
}

func Success(principal Principal) Result {
	return Result{kind: ResultSuccess, principal: principal}
}

func (r Result) Kind() ResultKind { return r.kind }

func (r Result) None() bool { return r.kind == ResultNone }

func (r Result) Failed() bool { return r.kind == ResultFailure }

func (r Result) Succeeded() bool { return r.kind == ResultSuccess }

// FailureReason is empty unless the result is a failure.
func (r Result) FailureReason() string {
	return r.reason
}

func (r Result) Principal() (Principal, bool) {
	if r.kind != ResultSuccess {
		return Principal{}, false
	}
	return r.principal, true
}
