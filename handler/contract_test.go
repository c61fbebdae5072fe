package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/thamerkt/contract-service/config"
	"github.com/thamerkt/contract-service/model"
	"github.com/thamerkt/contract-service/service"
)

func newContractRouter(t *testing.T) (*gin.Engine, *service.ContractStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := service.NewContractStore(&config.StoreConfig{})
	handler := NewContractHandler(store)

	router := gin.New()
	router.GET("/api/contracts", handler.List)
	router.GET("/api/contracts/find", handler.Find)
	router.GET("/api/contracts/:id", handler.Get)

	return router, store
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestContractList(t *testing.T) {
	router, store := newContractRouter(t)

	store.CreateDraft(&model.Contract{OwnerName: "alice", ClientName: "bob"})
	store.CreateDraft(&model.Contract{OwnerName: "alice", ClientName: "carol"})
	store.CreateDraft(&model.Contract{OwnerName: "dave", ClientName: "bob"})

	tests := []struct {
		name  string
		path  string
		count int
	}{
		{name: "all", path: "/api/contracts", count: 3},
		{name: "by owner", path: "/api/contracts?owner_name=alice", count: 2},
		{name: "by client", path: "/api/contracts?client_name=bob", count: 2},
		{name: "by both", path: "/api/contracts?owner_name=alice&client_name=bob", count: 1},
		{name: "no match", path: "/api/contracts?owner_name=nobody", count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, tt.path)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Contracts []map[string]any `json:"contracts"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if len(resp.Contracts) != tt.count {
				t.Errorf("Expected %d contracts, got %d", tt.count, len(resp.Contracts))
			}
		})
	}
}

func TestContractGet(t *testing.T) {
	router, store := newContractRouter(t)

	created := store.CreateDraft(&model.Contract{
		OwnerName:    "alice",
		ClientName:   "bob",
		ContractText: "<html>contract</html>",
	})

	w := get(t, router, "/api/contracts/"+created.ID)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var contract model.Contract
	if err := json.Unmarshal(w.Body.Bytes(), &contract); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if contract.ContractText != "<html>contract</html>" {
		t.Errorf("Expected contract text in detail view, got %q", contract.ContractText)
	}
}

func TestContractGetNotFound(t *testing.T) {
	router, _ := newContractRouter(t)

	w := get(t, router, "/api/contracts/non-existent")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestContractFind(t *testing.T) {
	router, store := newContractRouter(t)

	created := store.CreateDraft(&model.Contract{OwnerName: "alice", ClientName: "bob"})

	w := get(t, router, "/api/contracts/find?owner_name=alice&client_name=bob")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var contract model.Contract
	if err := json.Unmarshal(w.Body.Bytes(), &contract); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if contract.ID != created.ID {
		t.Errorf("Expected contract %s, got %s", created.ID, contract.ID)
	}
}

func TestContractFindMissingParams(t *testing.T) {
	router, _ := newContractRouter(t)

	w := get(t, router, "/api/contracts/find?owner_name=alice")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestContractFindNotFound(t *testing.T) {
	router, _ := newContractRouter(t)

	w := get(t, router, "/api/contracts/find?owner_name=alice&client_name=bob")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestContractFindAmbiguous(t *testing.T) {
	router, store := newContractRouter(t)

	// Two drafts for the same party pair make the lookup ambiguous
	store.CreateDraft(&model.Contract{OwnerName: "alice", ClientName: "bob"})
	store.CreateDraft(&model.Contract{OwnerName: "alice", ClientName: "bob"})

	w := get(t, router, "/api/contracts/find?owner_name=alice&client_name=bob")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}
