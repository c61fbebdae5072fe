package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thamerkt/contract-service/model"
	"github.com/thamerkt/contract-service/service"
)

// SignHandler finalizes drafted contracts: it stores the party's signature
// image, signs the contract text with a fresh key pair and transitions the
// contract to signed.
type SignHandler struct {
	store  *service.ContractStore
	signer *service.SigningService
	images service.ImageStore
}

func NewSignHandler(store *service.ContractStore, signer *service.SigningService, images service.ImageStore) *SignHandler {
	return &SignHandler{
		store:  store,
		signer: signer,
		images: images,
	}
}

// SignRequest is the signing request body. The contract is addressed by its
// id; party names are echoed back and used to name the stored image.
type SignRequest struct {
	ContractID     string `json:"contract_id"`
	OwnerName      string `json:"owner_name"`
	ClientName     string `json:"client_name"`
	ContractText   string `json:"contract_text"`
	SignatureImage string `json:"signature_image"`
}

// Sign handles POST /api/contracts/sign
func (h *SignHandler) Sign(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.ContractID == "" || req.OwnerName == "" || req.ClientName == "" ||
		req.ContractText == "" || req.SignatureImage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	// Validate the image before any side effect.
	imageData, err := service.DecodeSignatureImage(req.SignatureImage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract := h.store.Get(req.ContractID)
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}
	if contract.Status != model.StatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Contract already signed"})
		return
	}

	imagePath, err := h.images.Save(c.Request.Context(), req.OwnerName, imageData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save signature image: " + err.Error()})
		return
	}

	priv, pub, err := h.signer.GenerateKeyPair()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate keys: " + err.Error()})
		return
	}

	signature := h.signer.Sign(req.ContractText, priv)

	publicKeyPEM, err := service.EncodePublicKey(pub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode public key: " + err.Error()})
		return
	}

	signed, err := h.store.MarkSigned(contract.ID, imagePath, publicKeyPEM, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySigned):
			// A concurrent request won the race; this one loses.
			c.JSON(http.StatusConflict, gin.H{"error": "Contract already signed"})
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             req.ContractText,
		"owner_name":          req.OwnerName,
		"client_name":         req.ClientName,
		"signature":           base64.StdEncoding.EncodeToString(signature),
		"public_key":          publicKeyPEM,
		"signature_image_url": h.images.URL(imagePath),
		"contract_id":         signed.ID,
		"status":              signed.Status,
		"signed_date":         signed.SignedDate.Format("2006-01-02"),
		"total_value":         signed.TotalValue,
		"start_date":          signed.StartDate,
		"end_date":            signed.EndDate,
	})
}
