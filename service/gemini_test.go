package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thamerkt/contract-service/config"
	"github.com/thamerkt/contract-service/model"
)

func testTerms() model.ContractTerms {
	return model.ContractTerms{
		OwnerName:  "alice",
		ClientName: "bob",
		StartDate:  "2025-01-01",
		EndDate:    "2025-01-10",
		TotalValue: 100,
	}
}

func TestGenerateContract(t *testing.T) {
	var gotPrompt string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("Expected API key header")
		}

		var req GeminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"<html>generated contract</html>"}]}}]}`))
	}))
	defer server.Close()

	svc := NewGeminiService(&config.GeminiConfig{
		APIURL: server.URL,
		APIKey: "test-key",
		Model:  "gemini-2.0-flash",
	})

	owner := Profile{"first_name": "Alice", "last_name": "A", "phone": "111"}
	client := Profile{"first_name": "Bob", "last_name": "B"}
	equipment := []EquipmentInfo{{"stuffname": "drill", "brand": "bosch", "price_per_day": 10}}

	text, err := svc.GenerateContract(testTerms(), owner, client, equipment)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The response text is returned verbatim
	if text != "<html>generated contract</html>" {
		t.Errorf("Unexpected contract text: %s", text)
	}

	for _, want := range []string{
		"- Owner Name: alice",
		"- Client Name: bob",
		"- Total Value: 100 TND",
		"- Full Name: Alice A",
		"- Name: drill",
		"- Price per day: 10 TND",
	} {
		if !strings.Contains(gotPrompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestGenerateContractAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"invalid key"}}`))
	}))
	defer server.Close()

	svc := NewGeminiService(&config.GeminiConfig{APIURL: server.URL, Model: "gemini-2.0-flash"})

	_, err := svc.GenerateContract(testTerms(), nil, nil, nil)
	if err == nil {
		t.Fatal("Expected error")
	}

	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Errorf("Expected SynthesisError, got %T", err)
	}
}

func TestGenerateContractUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	svc := NewGeminiService(&config.GeminiConfig{APIURL: server.URL, Model: "gemini-2.0-flash"})

	_, err := svc.GenerateContract(testTerms(), nil, nil, nil)
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Errorf("Expected SynthesisError, got %v", err)
	}
}

func TestGenerateContractNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	svc := NewGeminiService(&config.GeminiConfig{APIURL: server.URL, Model: "gemini-2.0-flash"})

	_, err := svc.GenerateContract(testTerms(), nil, nil, nil)
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Errorf("Expected SynthesisError, got %v", err)
	}
}

func TestBuildPromptAbsentRecords(t *testing.T) {
	// Absent profiles and equipment render as empty strings, never fail
	prompt := buildPrompt(testTerms(), nil, nil, []EquipmentInfo{nil})

	for _, want := range []string{
		"- Full Name:  \n",
		"- Phone: \n",
		"- Address: , , , , \n",
		"- Name: \n",
		"- Brand: \n",
		"- Rental Location: \n",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestBuildPromptMultipleEquipment(t *testing.T) {
	equipment := []EquipmentInfo{
		{"stuffname": "drill"},
		{"stuffname": "saw"},
	}

	prompt := buildPrompt(testTerms(), nil, nil, equipment)

	if strings.Count(prompt, "Equipment Information:") != 2 {
		t.Errorf("Expected two equipment blocks:\n%s", prompt)
	}
	// Order preserved
	if strings.Index(prompt, "- Name: drill") > strings.Index(prompt, "- Name: saw") {
		t.Error("Expected equipment blocks in request order")
	}
}

func TestBuildPromptComposedAddress(t *testing.T) {
	owner := Profile{
		"first_name": "Alice",
		"address": map[string]any{
			"street":      "1 Main St",
			"city":        "Tunis",
			"state":       "TN",
			"postal_code": "1000",
			"country":     "Tunisia",
		},
	}

	prompt := buildPrompt(testTerms(), owner, nil, nil)

	if !strings.Contains(prompt, "- Address: 1 Main St, Tunis, TN, 1000, Tunisia") {
		t.Errorf("Expected composed address in prompt:\n%s", prompt)
	}
}
