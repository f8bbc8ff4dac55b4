package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"edusync/internal/config"
	"edusync/internal/model"
	"edusync/internal/util"
)

// HTTPStore 通过平台 HTTP API 访问远端记录源
type HTTPStore struct {
	config *config.RemoteConfig
	client *http.Client
}

func NewHTTPStore(cfg *config.RemoteConfig) *HTTPStore {
	return &HTTPStore{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return util.ErrRecordNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("remote store error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (s *HTTPStore) UpsertProgress(ctx context.Context, rec *model.ModuleProgressRecord) error {
	return s.do(ctx, http.MethodPut, "/progress", rec, nil)
}

func (s *HTTPStore) ListProgress(ctx context.Context, userID uint, courseID uint) ([]model.ModuleProgressRecord, error) {
	path := fmt.Sprintf("/progress?userId=%d", userID)
	if courseID != 0 {
		path = fmt.Sprintf("%s&courseId=%d", path, courseID)
	}

	var records []model.ModuleProgressRecord
	if err := s.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *HTTPStore) UpsertBalance(ctx context.Context, balance *model.CoinBalance) error {
	return s.do(ctx, http.MethodPut, "/wallet/balance", balance, nil)
}

func (s *HTTPStore) FetchBalance(ctx context.Context, userID uint) (*model.CoinBalance, error) {
	var balance model.CoinBalance
	err := s.do(ctx, http.MethodGet, fmt.Sprintf("/wallet/balance?userId=%d", userID), nil, &balance)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *HTTPStore) AppendTransaction(ctx context.Context, txn *model.XpTransaction) error {
	return s.do(ctx, http.MethodPost, "/wallet/transactions", txn, nil)
}

func (s *HTTPStore) AppendUnlock(ctx context.Context, unlock *model.AchievementUnlock) error {
	return s.do(ctx, http.MethodPost, "/achievements/unlocks", unlock, nil)
}
