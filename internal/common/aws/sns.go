// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the subset of *sns.Client the dashboard uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	api      SNSAPI
	topicARN string
}

func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewSNSClientWith(sns.NewFromConfig(cfg), topicARN), nil
}

func NewSNSClientWith(api SNSAPI, topicARN string) *SNSClient {
	return &SNSClient{api: api, topicARN: topicARN}
}

// PublishJSON marshals payload as the message body and sends it to the
// configured topic with string message attributes. Returns the message id.
func (s *SNSClient) PublishJSON(ctx context.Context, subject string, payload interface{}, attributes map[string]string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sns payload: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: awssdk.String(s.topicARN),
		Message:  awssdk.String(string(body)),
	}
	if subject != "" {
		input.Subject = awssdk.String(subject)
	}
	if len(attributes) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attributes))
		for k, v := range attributes {
			if v == "" {
				continue
			}
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(v),
			}
		}
	}

	out, err := s.api.Publish(ctx, input)
	if err != nil {
		return "", fmt.Errorf("sns publish failed: %w", err)
	}
	return awssdk.ToString(out.MessageId), nil
}
