package judge

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const maxReplyTokens = 1024

// AnthropicClient judges images with the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicClient returns a Client for the given key and model. Extra
// request options (base URL, HTTP client) are passed through to the SDK.
func NewAnthropicClient(apiKey, model string, opts ...option.RequestOption) *AnthropicClient {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	}, opts...)
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}
}

// Judge sends the image and prompt as a single user turn and returns the
// concatenated text blocks of the reply.
func (c *AnthropicClient) Judge(ctx context.Context, image []byte, mediaType, prompt string) (string, error) {
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxReplyTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("judge reply has no text content")
	}
	return sb.String(), nil
}
