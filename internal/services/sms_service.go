package services

import (
	"encoding/json"
	"errors"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"rebuy/internal/config"
)

// SMSService sends pre-approved content-template messages through Twilio.
type SMSService struct {
	client *twilio.RestClient
	from   string
	log    *zap.Logger
}

func NewSMSService(cfg config.Config, log *zap.Logger) *SMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &SMSService{client: client, from: cfg.TwilioFromNumber, log: log}
}

// SendTemplate delivers one templated message to a normalized phone number.
// vars are the positional content variables the template was approved with.
func (s *SMSService) SendTemplate(to, templateSID string, vars map[string]string) error {
	encoded, err := json.Marshal(vars)
	if err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetContentSid(templateSID)
	params.SetContentVariables(string(encoded))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			s.log.Warn("provider rejected message",
				zap.String("to", to),
				zap.Int("code", restErr.Code),
				zap.String("detail", restErr.Message))
		}
		return err
	}
	return nil
}
