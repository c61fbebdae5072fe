package model

import (
	"encoding/json"
	"testing"
)

func TestEquipmentListSingle(t *testing.T) {
	var event RentalEvent
	payload := `{"rental":"alice","client":"bob","equipment":"5","start_date":"2025-01-01","end_date":"2025-01-10","total_price":100}`

	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !event.Equipment.Single {
		t.Error("Expected single equipment shape to be preserved")
	}
	if len(event.Equipment.IDs) != 1 || event.Equipment.IDs[0] != "5" {
		t.Errorf("Expected equipment [5], got %v", event.Equipment.IDs)
	}

	// Shape round-trips
	out, err := json.Marshal(event.Equipment)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != `"5"` {
		t.Errorf(`Expected "5", got %s`, out)
	}
}

func TestEquipmentListMultiple(t *testing.T) {
	var event RentalEvent
	payload := `{"rental":"alice","client":"bob","equipment":["5","7","9"]}`

	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if event.Equipment.Single {
		t.Error("Expected list equipment shape to be preserved")
	}
	if len(event.Equipment.IDs) != 3 {
		t.Fatalf("Expected 3 equipment ids, got %d", len(event.Equipment.IDs))
	}
	// Order preserved
	for i, want := range []string{"5", "7", "9"} {
		if event.Equipment.IDs[i] != want {
			t.Errorf("Expected id %s at position %d, got %s", want, i, event.Equipment.IDs[i])
		}
	}

	out, err := json.Marshal(event.Equipment)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != `["5","7","9"]` {
		t.Errorf(`Expected ["5","7","9"], got %s`, out)
	}
}

func TestEquipmentListInvalid(t *testing.T) {
	var list EquipmentList
	if err := json.Unmarshal([]byte(`{"bad":"shape"}`), &list); err == nil {
		t.Error("Expected error for object-shaped equipment")
	}
}

func TestRentalEventTerms(t *testing.T) {
	event := RentalEvent{
		Rental:     "alice",
		Client:     "bob",
		StartDate:  "2025-01-01",
		EndDate:    "2025-01-10",
		TotalPrice: 100,
		Status:     "pending",
	}

	terms := event.Terms()
	if terms.OwnerName != "alice" || terms.ClientName != "bob" {
		t.Errorf("Expected parties alice/bob, got %s/%s", terms.OwnerName, terms.ClientName)
	}
	if terms.TotalValue != 100 {
		t.Errorf("Expected total value 100, got %v", terms.TotalValue)
	}
	if terms.Details != "pending" {
		t.Errorf("Expected details pending, got %s", terms.Details)
	}
}

func TestRentalEventTermsDefaultsTotalValue(t *testing.T) {
	var event RentalEvent
	if err := json.Unmarshal([]byte(`{"rental":"alice","client":"bob","equipment":"5"}`), &event); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if event.Terms().TotalValue != 0 {
		t.Errorf("Expected total value to default to 0, got %v", event.Terms().TotalValue)
	}
}
