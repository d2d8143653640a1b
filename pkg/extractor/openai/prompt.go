package openai

import (
	"strings"

	"github.com/goliatone/go-optout/pkg/interfaces/extractor"
)

const systemPrompt = "You are an email analysis assistant. Extract unsubscribe URLs from email content. Return only the URL, nothing else."

const promptTemplate = `You are an email analysis expert. Extract the unsubscribe/opt-out URL from this email content.

Email Headers (relevant):
List-Unsubscribe: {{ header_value }}

Email Body (excerpt):
{{ body_excerpt }}

Find and return ONLY the unsubscribe/opt-out URL. Look for:
- Links labeled "unsubscribe", "opt-out", "manage preferences", "manage subscriptions"
- URLs in the List-Unsubscribe header
- Any footer links related to email preferences
- Alternative text like "click here to unsubscribe" or similar

Return ONLY the URL in this format:
URL: https://example.com/unsubscribe?token=123

If no unsubscribe link is found, respond with:
URL: NOT_FOUND

Do not include any other text in your response.`

func (c *Client) renderPrompt(in extractor.Input) (string, error) {
	headerValue := strings.TrimSpace(in.HeaderValue)
	if headerValue == "" {
		headerValue = "N/A"
	}
	return c.renderer.RenderString(promptTemplate, map[string]any{
		"header_value": headerValue,
		"body_excerpt": in.BodyExcerpt,
	})
}
