package service

import (
	"context"
	"encoding/json"

	"github.com/LeJamon/xrplgate/internal/core/currency"
	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/history"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/LeJamon/xrplgate/internal/submit"
)

// offerHistoryLimit is how many recent transactions OfferHistory scans.
const offerHistoryLimit = 20

// CreateOffer places an offer. On success the outcome's settlement carries
// the sequence of the created offer.
func (s *Service) CreateOffer(ctx context.Context, auth Auth, offer *tx.OfferCreate) (*submit.Outcome, error) {
	return s.execute(ctx, auth, offer)
}

// CancelOffer removes the offer created with offerSequence.
func (s *Service) CancelOffer(ctx context.Context, auth Auth, account string, offerSequence uint32) (*submit.Outcome, error) {
	return s.execute(ctx, auth, &tx.OfferCancel{Account: account, OfferSequence: offerSequence})
}

// OfferFilter selects offers of one account.
type OfferFilter struct {
	Account     string
	Limit       int
	LedgerIndex string
	Marker      json.RawMessage
}

// AccountOffers lists the open offers of an account, by default as of the
// latest validated ledger.
func (s *Service) AccountOffers(ctx context.Context, f OfferFilter) (*rpc.AccountOffersResult, error) {
	if f.Account == "" {
		return nil, xrplerr.Input("account", "required")
	}
	return read(ctx, s, "account_offers", f.Account, func() (*rpc.AccountOffersResult, error) {
		return s.node.AccountOffers(ctx, rpc.AccountOffersRequest{
			Account:     f.Account,
			Limit:       f.Limit,
			LedgerIndex: f.LedgerIndex,
			Marker:      f.Marker,
		})
	})
}

// BookQuery selects one side of an order book. Issuers are ignored for
// XRP.
type BookQuery struct {
	TakerGets rpc.Issue
	TakerPays rpc.Issue
	Taker     string
	Limit     int
}

// OrderBook returns the offers that exchange TakerPays for TakerGets.
func (s *Service) OrderBook(ctx context.Context, q BookQuery) (*rpc.BookOffersResult, error) {
	gets, err := bookIssue("takerGets", q.TakerGets)
	if err != nil {
		return nil, err
	}
	pays, err := bookIssue("takerPays", q.TakerPays)
	if err != nil {
		return nil, err
	}
	return read(ctx, s, "book_offers", q.Taker, func() (*rpc.BookOffersResult, error) {
		return s.node.BookOffers(ctx, rpc.BookOffersRequest{TakerGets: gets, TakerPays: pays, Taker: q.Taker, Limit: q.Limit})
	})
}

func bookIssue(field string, in rpc.Issue) (rpc.Issue, error) {
	if in.Currency == "" {
		return rpc.Issue{}, xrplerr.Input(field+".currency", "required")
	}
	code := currency.Canonicalize(in.Currency)
	if code.IsNative() {
		return rpc.Issue{Currency: code.String()}, nil
	}
	if in.Issuer == "" {
		return rpc.Issue{}, xrplerr.Input(field+".issuer", "required for %s", in.Currency)
	}
	return rpc.Issue{Currency: code.String(), Issuer: in.Issuer}, nil
}

// OfferStatus tells whether an offer is still on the books.
type OfferStatus struct {
	Active bool              `json:"active"`
	Offer  *rpc.AccountOffer `json:"offer,omitempty"`
}

// Status returns "active" or "inactive". An inactive offer was filled,
// cancelled or expired.
func (o OfferStatus) Status() string {
	if o.Active {
		return "active"
	}
	return "inactive"
}

// OfferStatus looks the offer created with offerSequence up in the
// account's open offers as of the latest validated ledger.
func (s *Service) OfferStatus(ctx context.Context, account string, offerSequence uint32) (*OfferStatus, error) {
	if offerSequence == 0 {
		return nil, xrplerr.Input("offerSequence", "required")
	}
	var marker json.RawMessage
	for {
		res, err := s.AccountOffers(ctx, OfferFilter{Account: account, Marker: marker})
		if err != nil {
			return nil, err
		}
		for i := range res.Offers {
			if res.Offers[i].Seq == offerSequence {
				return &OfferStatus{Active: true, Offer: &res.Offers[i]}, nil
			}
		}
		if len(res.Marker) == 0 {
			return &OfferStatus{}, nil
		}
		marker = res.Marker
	}
}

// OfferHistory returns the recent transactions of account that created,
// cancelled or consumed the offer with offerSequence, newest first.
func (s *Service) OfferHistory(ctx context.Context, account string, offerSequence uint32) ([]history.Entry, error) {
	if account == "" {
		return nil, xrplerr.Input("account", "required")
	}
	if offerSequence == 0 {
		return nil, xrplerr.Input("offerSequence", "required")
	}
	res, err := read(ctx, s, "account_tx", account, func() (*rpc.AccountTxResult, error) {
		return s.node.AccountTx(ctx, rpc.AccountTxRequest{Account: account, Limit: offerHistoryLimit})
	})
	if err != nil {
		return nil, err
	}
	return history.Correlate(res.Transactions, history.ObjectOffer, offerSequence, account), nil
}

