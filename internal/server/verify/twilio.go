package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	verifyv2 "github.com/twilio/twilio-go/rest/verify/v2"

	"github.com/learnhub/user-service/internal/server/config"
)

// verifyAPI is the slice of the Twilio SDK we call; a seam for tests.
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verifyv2.CreateVerificationParams) (*verifyv2.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verifyv2.CreateVerificationCheckParams) (*verifyv2.VerifyV2VerificationCheck, error)
}

// TwilioVerifier sends OTP codes through the Twilio Verify API.
type TwilioVerifier struct {
	api        verifyAPI
	serviceSID string
}

// NewFromConfig returns a TwilioVerifier when all provider credentials are
// configured, and the Disabled verifier otherwise.
func NewFromConfig(cfg *config.Config) Verifier {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioVerifyServiceSID == "" {
		return Disabled{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return &TwilioVerifier{api: client.VerifyV2, serviceSID: cfg.TwilioVerifyServiceSID}
}

func (v *TwilioVerifier) SendCode(_ context.Context, phone string) Result {
	params := &verifyv2.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel("sms")

	verification, err := v.api.CreateVerification(v.serviceSID, params)
	if err != nil {
		return failure(err, "Failed to send verification code")
	}

	res := Result{Success: true, Message: fmt.Sprintf("Verification code sent to %s", phone)}
	if verification.Status != nil {
		res.Status = *verification.Status
	}
	return res
}

func (v *TwilioVerifier) CheckCode(_ context.Context, phone, code string) Result {
	params := &verifyv2.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	check, err := v.api.CreateVerificationCheck(v.serviceSID, params)
	if err != nil {
		return failure(err, "Verification failed")
	}

	res := Result{Success: true}
	if check.Status != nil {
		res.Status = *check.Status
	}
	if check.Valid != nil {
		res.Valid = *check.Valid
	}
	if res.Valid {
		res.Message = "Code verified successfully"
	} else {
		res.Message = "Invalid code"
	}
	return res
}

// failure distinguishes a provider-reported rejection from an unexpected
// error, mirroring how callers are expected to report them.
func failure(err error, providerMessage string) Result {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return Result{Success: false, Message: providerMessage, Error: restErr.Error()}
	}
	return Result{Success: false, Message: "Unexpected error occurred", Error: err.Error()}
}
