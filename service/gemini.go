package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thamerkt/contract-service/config"
	"github.com/thamerkt/contract-service/model"
)

// GeminiService synthesizes contract documents through the Gemini
// generateContent API.
type GeminiService struct {
	config     *config.GeminiConfig
	httpClient *http.Client
}

// GeminiRequest represents the generateContent request body
type GeminiRequest struct {
	Contents []GeminiContent `json:"contents"`
}

type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiResponse represents the generateContent response body
type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []GeminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewGeminiService(cfg *config.GeminiConfig) *GeminiService {
	return &GeminiService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GenerateContract renders the aggregated rental data into a prompt and
// returns the synthesized document text verbatim. Failures are not retried;
// they surface as a *SynthesisError.
func (s *GeminiService) GenerateContract(terms model.ContractTerms, owner, client Profile, equipment []EquipmentInfo) (string, error) {
	prompt := buildPrompt(terms, owner, client, equipment)

	reqBody := GeminiRequest{
		Contents: []GeminiContent{
			{Parts: []GeminiPart{{Text: prompt}}},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &SynthesisError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent", s.config.APIURL, s.config.Model)
	req, err := http.NewRequest("POST", reqURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &SynthesisError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &SynthesisError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &SynthesisError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var result GeminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &SynthesisError{Err: fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))}
	}

	if result.Error != nil {
		return "", &SynthesisError{Err: fmt.Errorf("gemini API error: %s", result.Error.Message)}
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &SynthesisError{Err: fmt.Errorf("gemini returned no candidates")}
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

// buildPrompt renders the contract terms, party profiles and equipment
// records into one structured prompt. Absent records and missing fields
// render as empty strings.
func buildPrompt(terms model.ContractTerms, owner, client Profile, equipment []EquipmentInfo) string {
	var b strings.Builder

	b.WriteString("Generate a professional HTML equipment rental contract based on the following data:\n\n")

	b.WriteString("Contract Details:\n")
	fmt.Fprintf(&b, "- Owner Name: %s\n", terms.OwnerName)
	fmt.Fprintf(&b, "- Client Name: %s\n", terms.ClientName)
	fmt.Fprintf(&b, "- Start Date: %s\n", terms.StartDate)
	fmt.Fprintf(&b, "- End Date: %s\n", terms.EndDate)
	fmt.Fprintf(&b, "- Total Value: %v TND\n\n", terms.TotalValue)

	b.WriteString("Owner Profile:\n")
	writeProfile(&b, owner)

	b.WriteString("Client Profile:\n")
	writeProfile(&b, client)

	for _, info := range equipment {
		b.WriteString("Equipment Information:\n")
		fmt.Fprintf(&b, "- Name: %s\n", field(info, "stuffname"))
		fmt.Fprintf(&b, "- Brand: %s\n", field(info, "brand"))
		fmt.Fprintf(&b, "- Location: %s\n", field(info, "location"))
		fmt.Fprintf(&b, "- Price per day: %s TND\n", field(info, "price_per_day"))
		fmt.Fprintf(&b, "- Condition: %s\n", field(info, "state"))
		fmt.Fprintf(&b, "- Rental Location: %s\n", field(info, "rental_location"))
		fmt.Fprintf(&b, "- Description: %s\n\n", field(info, "short_description"))

		b.WriteString("Detailed Description:\n")
		fmt.Fprintf(&b, "%s\n\n", field(info, "detailed_description"))
	}

	b.WriteString("Please return a well-structured HTML contract that includes the parties' names, " +
		"equipment details, rental terms, and a signature section for both the owner and the client.\n")

	return b.String()
}

func writeProfile(b *strings.Builder, p Profile) {
	fmt.Fprintf(b, "- Full Name: %s %s\n", field(p, "first_name"), field(p, "last_name"))
	fmt.Fprintf(b, "- Phone: %s\n", field(p, "phone"))

	var addr map[string]any
	if p != nil {
		addr, _ = p["address"].(map[string]any)
	}
	fmt.Fprintf(b, "- Address: %s, %s, %s, %s, %s\n\n",
		field(addr, "street"),
		field(addr, "city"),
		field(addr, "state"),
		field(addr, "postal_code"),
		field(addr, "country"),
	)
}

// field extracts a value from a mapping as a string, with nil maps and
// missing keys rendering as the empty string.
func field(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
