package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

var metadataClient = &http.Client{Timeout: 20 * time.Second}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// ExtractMetadata asks Gemini to pull brand/model/attributes out of a product
// title. Returns nil (not an error) when no API key is configured — metadata
// is an enrichment, never a requirement.
func ExtractMetadata(ctx context.Context, apiKey, title string) (json.RawMessage, error) {
	if apiKey == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(
		"Extract the brand, model, and key attributes from this product title. "+
			"Return as JSON with keys: brand, model, attributes.\nTitle: %s", title)

	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		geminiEndpoint+"?key="+apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := metadataClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	text := StripCodeFences(out.Candidates[0].Content.Parts[0].Text)
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("gemini response is not valid JSON")
	}
	return json.RawMessage(text), nil
}

// StripCodeFences removes the ```json ... ``` wrapper models like to add.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
