package containment

// Result is the outcome of a containment check.
type Result int

const (
	// ResultAllowed: every check passed.
	ResultAllowed Result = iota
	// ResultLockdown: the shield is locked down; nothing was evaluated.
	ResultLockdown
	// ResultAutonomyViolation: the autonomy exposure exceeded the limit.
	ResultAutonomyViolation
	// ResultEthicalViolation: a criterion fell below its corridor.
	ResultEthicalViolation
	// ResultInconclusive: the evaluation timed out with a provisional
	// report. Denied without tripping the breaker.
	ResultInconclusive
)

var resultNames = map[Result]string{
	ResultAllowed:           "ALLOWED",
	ResultLockdown:          "LOCKDOWN_ACTIVE",
	ResultAutonomyViolation: "AUTONOMY_VIOLATION",
	ResultEthicalViolation:  "ETHICAL_VIOLATION",
	ResultInconclusive:      "INCONCLUSIVE",
}

// String returns the result name, e.g. "ETHICAL_VIOLATION".
func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return "UNKNOWN"
}

// MarshalText implements encoding.TextMarshaler.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
