package model

// RentalEvent is the payload consumed from the generate_contract queue.
// "rental" names the equipment owner; "client" names the renting party.
type RentalEvent struct {
	EventID    string        `json:"event_id,omitempty"`
	Rental     string        `json:"rental"`
	Client     string        `json:"client"`
	Equipment  EquipmentList `json:"equipment"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	TotalPrice float64       `json:"total_price"`
	Status     string        `json:"status"`
}

// ContractTerms carries the event fields that end up on the contract.
type ContractTerms struct {
	OwnerName  string
	ClientName string
	Equipment  EquipmentList
	StartDate  string
	EndDate    string
	TotalValue float64
	Details    string
}

// Terms maps the event onto contract terms. A missing total_price
// defaults to zero.
func (e *RentalEvent) Terms() ContractTerms {
	return ContractTerms{
		OwnerName:  e.Rental,
		ClientName: e.Client,
		Equipment:  e.Equipment,
		StartDate:  e.StartDate,
		EndDate:    e.EndDate,
		TotalValue: e.TotalPrice,
		Details:    e.Status,
	}
}
