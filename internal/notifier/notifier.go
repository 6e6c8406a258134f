// Package notifier delivers password reset codes by email.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"github.com/memberdir/admin_api/internal/models"
)

// ErrNotConfigured is returned by Disabled for every send.
var ErrNotConfigured = errors.New("email delivery is not configured")

const resetSubject = "Your password reset code"

// SESAPI is the subset of the SES v2 client used by SESNotifier.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier sends reset codes through Amazon SES.
type SESNotifier struct {
	client SESAPI
	from   string
}

// NewSESNotifier creates an SESNotifier sending from the given address.
func NewSESNotifier(client SESAPI, from string) *SESNotifier {
	return &SESNotifier{client: client, from: from}
}

// SendResetCode emails code to email.
func (n *SESNotifier) SendResetCode(ctx context.Context, email, code string) error {
	out, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(resetSubject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(resetBody(code)), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	log.Debug().Str("message_id", aws.ToString(out.MessageId)).Msg("Reset email sent")
	return nil
}

func resetBody(code string) string {
	return fmt.Sprintf(
		"Your password reset code is %s.\n\nThe code expires in %d minutes. If you did not request a reset, ignore this email.\n",
		code, int(models.OTPTTL.Minutes()),
	)
}

// Disabled is used when no sender address is configured. It fails every
// send so that no reset code is left behind undelivered.
type Disabled struct{}

// SendResetCode always fails with ErrNotConfigured.
func (Disabled) SendResetCode(context.Context, string, string) error {
	return ErrNotConfigured
}
