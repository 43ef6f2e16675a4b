package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends transactional email via Amazon SES
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewEmailService creates a new email service. When fromEmail is empty the
// service is disabled and sends become no-ops.
func NewEmailService(ctx context.Context, region, fromEmail, fromName string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: no from address configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

// SendWelcomeEmail sends the signup welcome message to a new user
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, displayName string) error {
	subject := "Welcome to SpeakCoach!"
	body := fmt.Sprintf(`Hi %s,

Welcome to SpeakCoach! Your account is ready.

Pick a topic, hit record, and answer out loud. You'll get instant feedback
on your grammar, vocabulary and fluency, plus an improved version of your
answer to learn from.

A few minutes of practice a day goes a long way.

Happy speaking!
The SpeakCoach Team`, displayName)

	return s.send(ctx, toEmail, subject, body)
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, body string) error {
	if !s.enabled {
		log.Printf("Email service disabled, skipping email to %s", toEmail)
		return nil
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data: aws.String(subject),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data: aws.String(body),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
