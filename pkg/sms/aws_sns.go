package sms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsPublisher is the part of *sns.Client the provider uses.
type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type AWSSNSProvider struct {
	client   snsPublisher
	senderID string
}

func NewAWSSNSProvider(region, senderID string) (*AWSSNSProvider, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSNSProvider{
		client:   sns.NewFromConfig(cfg),
		senderID: senderID,
	}, nil
}

func (a *AWSSNSProvider) SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error) {
	resp, err := a.client.Publish(ctx, a.publishInput(request))
	if err != nil {
		return &SMSResponse{Status: "failed", Error: err.Error()}, fmt.Errorf("sns: failed to publish sms: %w", err)
	}

	return &SMSResponse{
		MessageID: aws.ToString(resp.MessageId),
		Status:    "sent",
	}, nil
}

func (a *AWSSNSProvider) publishInput(request *SMSRequest) *sns.PublishInput {
	attrs := map[string]snsTypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(snsSMSType(request.Type)),
		},
	}

	senderID := request.From
	if senderID == "" {
		senderID = a.senderID
	}
	if senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(senderID),
		}
	}

	return &sns.PublishInput{
		PhoneNumber:       aws.String(request.To),
		Message:           aws.String(request.Message),
		MessageAttributes: attrs,
	}
}

func snsSMSType(messageType string) string {
	if messageType == TypePromotional {
		return "Promotional"
	}
	return "Transactional"
}
