package llm

import "encoding/base64"

// ExtractionPrompt is sent with every price-tag image.
const ExtractionPrompt = `You are reading retail shelf price tags in the attached image.

Extract every product that has a visible price tag and return them as JSON.

Rules:
1. Extract all products visible in the image.
2. Copy product names exactly as printed.
3. Prices must be numbers only: drop currency symbols, units and thousands separators (e.g. "1,500원" -> 1500).
4. Skip any product whose price cannot be read.
5. If the same product appears more than once, list each occurrence separately.

Respond with a single JSON object and nothing else, no prose and no markdown fences:
{"products": [{"product_name": "string", "price": number}]}`

// ChatRequest is the chat/completions body for a single image.
type ChatRequest struct {
	Model          string         `json:"model"`
	Messages       []ChatMessage  `json:"messages"`
	Temperature    float32        `json:"temperature"`
	ResponseFormat ResponseFormat `json:"response_format"`
}

type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is either a text part or an image_url part.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

// ImageDataURL encodes raw image bytes as a JPEG data URL.
func ImageDataURL(image []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
}

// BuildChatRequest assembles the user message: prompt text followed by the image.
func BuildChatRequest(model string, temperature float32, image []byte) ChatRequest {
	return ChatRequest{
		Model: model,
		Messages: []ChatMessage{{
			Role: "user",
			Content: []ContentPart{
				{Type: "text", Text: ExtractionPrompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: ImageDataURL(image)}},
			},
		}},
		Temperature:    temperature,
		ResponseFormat: ResponseFormat{Type: "json_object"},
	}
}
