package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thamerkt/contract-service/service"
)

type ContractHandler struct {
	store *service.ContractStore
}

func NewContractHandler(store *service.ContractStore) *ContractHandler {
	return &ContractHandler{store: store}
}

// List returns contracts, optionally filtered by owner_name and/or
// client_name query parameters. Contract text is omitted from the list view.
func (h *ContractHandler) List(c *gin.Context) {
	ownerName := c.Query("owner_name")
	clientName := c.Query("client_name")

	contracts := h.store.List(ownerName, clientName)

	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		result[i] = gin.H{
			"id":          contract.ID,
			"owner_name":  contract.OwnerName,
			"client_name": contract.ClientName,
			"equipment":   contract.Equipment,
			"status":      contract.Status,
			"total_value": contract.TotalValue,
			"start_date":  contract.StartDate,
			"end_date":    contract.EndDate,
			"created_at":  contract.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			"updated_at":  contract.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns a single contract with its document text
func (h *ContractHandler) Get(c *gin.Context) {
	id := c.Param("id")

	contract := h.store.Get(id)
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Find looks up the single contract between a named owner and client.
// Party pairs are not unique: when more than one contract matches, the
// ambiguity is surfaced instead of picking one.
func (h *ContractHandler) Find(c *gin.Context) {
	ownerName := c.Query("owner_name")
	clientName := c.Query("client_name")

	if ownerName == "" || clientName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	contract, err := h.store.FindByParties(ownerName, clientName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		case errors.Is(err, service.ErrAmbiguous):
			c.JSON(http.StatusConflict, gin.H{"error": "Multiple contracts match the given parties"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, contract)
}
