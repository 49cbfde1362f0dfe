package coachdto

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "coach service error"
}

// Response wraps one command result for line-oriented output.
type Response struct {
	Command string       `json:"command"`
	OK      bool         `json:"ok"`
	Error   *DomainError `json:"error,omitempty"`
	Data    any          `json:"data,omitempty"`
}
