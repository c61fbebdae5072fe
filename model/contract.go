package model

import (
	"encoding/json"
	"time"
)

// Contract represents a rental contract document
type Contract struct {
	ID           string        `json:"id"`
	EventID      string        `json:"event_id,omitempty"`
	OwnerName    string        `json:"owner_name"`
	ClientName   string        `json:"client_name"`
	Equipment    EquipmentList `json:"equipment"`
	ContractText string        `json:"contract_text"`
	Status       string        `json:"status"` // draft, signed
	TotalValue   float64       `json:"total_value"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	Details      string        `json:"details,omitempty"`
	SignedDate   *time.Time    `json:"signed_date,omitempty"`
	Document     string        `json:"document,omitempty"`
	PublicKey    string        `json:"public_key,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Contract status constants
const (
	StatusDraft  = "draft"
	StatusSigned = "signed"
)

// EquipmentList holds one or more equipment identifiers. Queue events carry
// either a single id or an array of ids; the received shape is preserved
// when marshalling back out.
type EquipmentList struct {
	IDs    []string
	Single bool
}

func (e *EquipmentList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		e.IDs = []string{one}
		e.Single = true
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	e.IDs = many
	e.Single = false
	return nil
}

func (e EquipmentList) MarshalJSON() ([]byte, error) {
	if e.Single && len(e.IDs) == 1 {
		return json.Marshal(e.IDs[0])
	}
	return json.Marshal(e.IDs)
}
