// Package verify wraps the phone-verification provider (Twilio Verify).
// Outcomes are reported as structured results rather than errors: the
// integration is optional and must never take a request down with it.
package verify

import "context"

// Result is the structured outcome of a verification call. Provider-reported
// failures and unexpected errors both land here with Success=false; Error
// carries the underlying cause for logs and clients that want it.
type Result struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Valid   bool   `json:"valid,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Verifier sends and checks one-time codes for phone numbers.
type Verifier interface {
	SendCode(ctx context.Context, phone string) Result
	CheckCode(ctx context.Context, phone, code string) Result
}

// Disabled is the Verifier used when provider credentials are missing.
// Calls fail explicitly instead of pretending to verify.
type Disabled struct{}

func (Disabled) SendCode(context.Context, string) Result {
	return Result{Success: false, Message: "Phone verification is not configured"}
}

func (Disabled) CheckCode(context.Context, string, string) Result {
	return Result{Success: false, Message: "Phone verification is not configured"}
}
