package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultFaucetURL is the XRPL test network faucet.
const DefaultFaucetURL = "https://faucet.altnet.rippletest.net/accounts"

// ErrNoFaucet is returned by CreateAccount when no faucet is configured.
var ErrNoFaucet = errors.New("no faucet configured")

// Faucet funds new accounts on a test network.
type Faucet struct {
	url  string
	http *http.Client
}

// NewFaucet creates a faucet client. An empty url uses DefaultFaucetURL.
func NewFaucet(url string, client *http.Client) *Faucet {
	if url == "" {
		url = DefaultFaucetURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Faucet{url: url, http: client}
}

// Funding is the faucet's answer.
type Funding struct {
	Address         string      `json:"address"`
	Amount          json.Number `json:"amount"`
	TransactionHash string      `json:"transactionHash,omitempty"`
}

// Fund asks the faucet to fund address.
func (f *Faucet) Fund(ctx context.Context, address string) (*Funding, error) {
	body, err := json.Marshal(map[string]string{"destination": address, "userAgent": "xrplgate"})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling faucet: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading faucet response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("faucet returned %s: %s", resp.Status, bytes.TrimSpace(data))
	}

	var res struct {
		Account struct {
			Address        string `json:"address"`
			ClassicAddress string `json:"classicAddress"`
		} `json:"account"`
		Amount          json.Number `json:"amount"`
		TransactionHash string      `json:"transactionHash"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding faucet response: %w", err)
	}
	funded := res.Account.ClassicAddress
	if funded == "" {
		funded = res.Account.Address
	}
	if funded != "" && funded != address {
		return nil, fmt.Errorf("faucet funded %s instead of %s", funded, address)
	}
	return &Funding{Address: address, Amount: res.Amount, TransactionHash: res.TransactionHash}, nil
}
