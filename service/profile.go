package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/thamerkt/contract-service/config"
	"github.com/thamerkt/contract-service/model"
)

// Profile is a party profile as returned by the profile service.
type Profile map[string]any

// EquipmentInfo is an equipment record as returned by the equipment service.
type EquipmentInfo map[string]any

// AggregatedData is the result of the fan-out fetch for one rental event.
// Absent records (fetch failure) are nil; equipment records keep the order
// of the requested ids.
type AggregatedData struct {
	Owner     Profile
	Client    Profile
	Equipment []EquipmentInfo
}

// ProfileAggregator fetches owner, client and equipment records from their
// external services. Each fetch has its own timeout and degrades to an
// absent record on failure; one failing fetch never aborts the others.
type ProfileAggregator struct {
	profileBaseURL   string
	equipmentBaseURL string
	profileClient    *http.Client
	equipmentClient  *http.Client
}

func NewProfileAggregator(profileCfg *config.ProfileConfig, equipmentCfg *config.EquipmentConfig) *ProfileAggregator {
	return &ProfileAggregator{
		profileBaseURL:   profileCfg.BaseURL,
		equipmentBaseURL: equipmentCfg.BaseURL,
		profileClient: &http.Client{
			Timeout: time.Duration(profileCfg.TimeoutSeconds) * time.Second,
		},
		equipmentClient: &http.Client{
			Timeout: time.Duration(equipmentCfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Aggregate issues the owner, client and equipment fetches concurrently and
// waits for all of them.
func (a *ProfileAggregator) Aggregate(ownerName, clientName string, equipment model.EquipmentList) *AggregatedData {
	result := &AggregatedData{
		Equipment: make([]EquipmentInfo, len(equipment.IDs)),
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		result.Owner = a.FetchProfile(ownerName)
	}()
	go func() {
		defer wg.Done()
		result.Client = a.FetchProfile(clientName)
	}()
	go func() {
		defer wg.Done()
		for i, id := range equipment.IDs {
			result.Equipment[i] = a.FetchEquipment(id)
		}
	}()

	wg.Wait()
	return result
}

// FetchProfile fetches a party profile. Returns nil on any failure.
func (a *ProfileAggregator) FetchProfile(user string) Profile {
	reqURL := fmt.Sprintf("%s/profile/profil/?user=%s", a.profileBaseURL, url.QueryEscape(user))

	body, err := a.get(a.profileClient, reqURL)
	if err != nil {
		slog.Error("failed to fetch profile", "user", user, "error", err)
		return nil
	}

	profile, err := normalizeProfile(body)
	if err != nil {
		slog.Error("failed to parse profile", "user", user, "error", err)
		return nil
	}
	return profile
}

// FetchEquipment fetches one equipment record. Returns nil on any failure.
func (a *ProfileAggregator) FetchEquipment(equipmentID string) EquipmentInfo {
	reqURL := fmt.Sprintf("%s/api/stuffs/%s/", a.equipmentBaseURL, url.PathEscape(equipmentID))

	body, err := a.get(a.equipmentClient, reqURL)
	if err != nil {
		slog.Error("failed to fetch equipment", "equipment_id", equipmentID, "error", err)
		return nil
	}

	var info EquipmentInfo
	if err := json.Unmarshal(body, &info); err != nil {
		slog.Error("failed to parse equipment", "equipment_id", equipmentID, "error", err)
		return nil
	}
	return info
}

func (a *ProfileAggregator) get(client *http.Client, reqURL string) ([]byte, error) {
	resp, err := client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// normalizeProfile accepts either a JSON object or a one-element array
// wrapping an object, and returns a single mapping. An empty array
// normalizes to an empty mapping.
func normalizeProfile(data []byte) (Profile, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		return m, nil
	}

	var list []map[string]any
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse profile payload: %w", err)
	}
	if len(list) == 0 {
		return Profile{}, nil
	}
	return list[0], nil
}
