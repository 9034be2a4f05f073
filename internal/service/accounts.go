package service

import (
	"context"
	"errors"
	"time"

	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/crypto"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/LeJamon/xrplgate/internal/submit"
)

const (
	paymentHistoryLimit = 20
	// fundingPolls bounds how long CreateAccount waits for a funded
	// account to show up in a validated ledger.
	fundingPolls    = 20
	fundingInterval = time.Second
)

// AccountInfo returns the account root of address as of the latest
// validated ledger.
func (s *Service) AccountInfo(ctx context.Context, address string) (*rpc.AccountRoot, error) {
	if address == "" {
		return nil, xrplerr.Input("account", "required")
	}
	info, err := read(ctx, s, "account_info", address, func() (*rpc.AccountInfo, error) {
		return s.node.AccountInfo(ctx, address, "validated")
	})
	if err != nil {
		return nil, err
	}
	return &info.AccountData, nil
}

// NewAccount is a freshly created and funded account.
type NewAccount struct {
	Address string `json:"address"`
	Seed    string `json:"seed"`
	Balance string `json:"balance"`
}

// CreateAccount generates a wallet and funds it through the faucet. It
// returns once the account is in a validated ledger.
func (s *Service) CreateAccount(ctx context.Context) (*NewAccount, error) {
	if s.faucet == nil {
		return nil, ErrNoFaucet
	}
	w, err := crypto.GenerateWallet(crypto.KeyTypeEd25519)
	if err != nil {
		return nil, err
	}
	funding, err := s.faucet.Fund(ctx, w.Address)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account funded", "account", w.Address, "amount", funding.Amount.String())

	for range fundingPolls {
		root, err := s.AccountInfo(ctx, w.Address)
		if err == nil {
			return &NewAccount{Address: w.Address, Seed: w.Seed, Balance: root.Balance}, nil
		}
		if !rpc.IsRpcError(err, rpc.ErrActNotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(fundingInterval):
		}
	}
	return nil, errors.New("funded account not validated in time")
}

// XRPPayment sends XRP, given in whole XRP units.
type XRPPayment struct {
	Account        string
	Destination    string
	XRP            string
	DestinationTag *uint32
	Memos          []tx.Memo
}

// SendXRP sends XRP from Account to Destination.
func (s *Service) SendXRP(ctx context.Context, auth Auth, p XRPPayment) (*submit.Outcome, error) {
	amt, err := amount.NativeFromXRP(p.XRP)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, auth, &tx.Payment{
		Account:        p.Account,
		Destination:    p.Destination,
		Amount:         amt,
		DestinationTag: p.DestinationTag,
		Memos:          p.Memos,
	})
}

// Transaction summarizes one transaction for callers.
type Transaction struct {
	Hash        string         `json:"hash"`
	Type        string         `json:"type"`
	Account     string         `json:"account"`
	Destination string         `json:"destination,omitempty"`
	Amount      *amount.Amount `json:"amount,omitempty"`
	ResultCode  string         `json:"resultCode"`
	Succeeded   bool           `json:"succeeded"`
	Validated   bool           `json:"validated"`
	LedgerIndex uint32         `json:"ledgerIndex,omitempty"`
	Timestamp   *time.Time     `json:"timestamp,omitempty"`
}

func summarize(env *tx.Envelope) Transaction {
	t := Transaction{
		Hash:        env.Hash,
		Type:        env.Tx.TransactionType,
		Account:     env.Tx.Account,
		Destination: env.Tx.Destination,
		ResultCode:  env.ResultCode(),
		Succeeded:   tx.IsSuccess(env.ResultCode()),
		Validated:   env.Validated,
		LedgerIndex: env.LedgerIndex,
	}
	if t.Type == string(tx.TypePayment) {
		t.Amount = env.Tx.DeliveredAmount(env.Meta)
	}
	if env.Date != 0 {
		ts := meta.FromRippleTime(env.Date)
		t.Timestamp = &ts
	}
	return t
}

// PaymentHistory returns the recent payments sent or received by address,
// newest first.
func (s *Service) PaymentHistory(ctx context.Context, address string) ([]Transaction, error) {
	if address == "" {
		return nil, xrplerr.Input("account", "required")
	}
	res, err := read(ctx, s, "account_tx", address, func() (*rpc.AccountTxResult, error) {
		return s.node.AccountTx(ctx, rpc.AccountTxRequest{Account: address, Limit: paymentHistoryLimit})
	})
	if err != nil {
		return nil, err
	}
	var out []Transaction
	for i := range res.Transactions {
		if res.Transactions[i].Tx.TransactionType == string(tx.TypePayment) {
			out = append(out, summarize(&res.Transactions[i]))
		}
	}
	return out, nil
}

// TransactionDetails looks a transaction up by hash.
func (s *Service) TransactionDetails(ctx context.Context, hash string) (*Transaction, error) {
	if hash == "" {
		return nil, xrplerr.Input("hash", "required")
	}
	env, err := read(ctx, s, "tx", "", func() (*tx.Envelope, error) {
		return s.node.Tx(ctx, hash)
	})
	if err != nil {
		return nil, err
	}
	t := summarize(env)
	return &t, nil
}
