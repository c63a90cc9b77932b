package analysis

// ConfigurationError means the service cannot run without operator action,
// e.g. a missing API key. Nothing is sent over the network.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Msg }

// AnalysisError covers network, remote, parse and schema failures of one analysis.
// It is retryable by submitting the image again.
type AnalysisError struct {
	Msg string
	Err error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *AnalysisError) Unwrap() error { return e.Err }

const MsgMalformedResponse = "malformed response"
