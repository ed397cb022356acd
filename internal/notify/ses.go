package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the part of the SES client the transport uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESTransport struct {
	api SESAPI
}

// NewSESTransport builds an SES client from the default AWS credential chain.
func NewSESTransport(ctx context.Context, region string) (*SESTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESTransport{api: ses.NewFromConfig(cfg)}, nil
}

func NewSESTransportWithAPI(api SESAPI) *SESTransport {
	return &SESTransport{api: api}
}

func (t *SESTransport) Send(ctx context.Context, msg Message) error {
	input := &ses.SendEmailInput{
		Source:      aws.String(msg.From),
		Destination: &types.Destination{BccAddresses: msg.Bcc},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")},
			},
		},
	}
	if _, err := t.api.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}

// Close is a no-op; the SES client holds no session.
func (t *SESTransport) Close() error {
	return nil
}
