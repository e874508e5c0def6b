package domain

// Verdict is the outcome of evaluating a submission
type Verdict string

const (
	VerdictPass    Verdict = "PASS"
	VerdictFail    Verdict = "FAIL"
	VerdictPartial Verdict = "PARTIAL"
	VerdictError   Verdict = "ERROR"
)

// Headline returns the short title shown above the feedback message
func (v Verdict) Headline() string {
	switch v {
	case VerdictPass:
		return "Challenge Complete!"
	case VerdictFail:
		return "Not Quite There"
	case VerdictPartial:
		return "Partial Solution"
	default:
		return "Validation Error"
	}
}

// Diagnostic classifies why an evaluation ended in an ERROR verdict
type Diagnostic string

const (
	DiagnosticNone      Diagnostic = ""
	DiagnosticNetwork   Diagnostic = "network"   // service unreachable or timed out
	DiagnosticService   Diagnostic = "service"   // non-success status from the service
	DiagnosticMalformed Diagnostic = "malformed" // reply could not be decoded or held no text
)

// Feedback is what a learner sees after a submission
type Feedback struct {
	Verdict    Verdict    `json:"verdict"`
	Headline   string     `json:"headline"`
	Message    string     `json:"message"`
	Diagnostic Diagnostic `json:"diagnostic,omitempty"`
	Detail     string     `json:"detail,omitempty"`
}

// Passed reports whether the submission completes the challenge
func (f *Feedback) Passed() bool {
	return f != nil && f.Verdict == VerdictPass
}
