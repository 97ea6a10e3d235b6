package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender delivers codes as SMS through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{client: client, from: from}, nil
}

// createMessage is a seam for testing without the Twilio API.
var createMessage = func(client *twilio.RestClient, params *twilioApi.CreateMessageParams) error {
	_, err := client.Api.CreateMessage(params)
	return err
}

func (s *TwilioSender) Send(ctx context.Context, phone string, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(phone)
	params.SetBody(fmt.Sprintf("Your SafeWatch verification code is %s", code))

	if err := createMessage(s.client, params); err != nil {
		return fmt.Errorf("twilio send error: %w", err)
	}
	return nil
}
