package service

import (
	"context"
	"encoding/json"

	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/currency"
	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/LeJamon/xrplgate/internal/submit"
)

// TokenPayment moves an issued currency from Account to Destination.
type TokenPayment struct {
	Account        string
	Destination    string
	Currency       string
	Issuer         string
	Value          string
	DestinationTag *uint32
	Memos          []tx.Memo
}

func (p TokenPayment) intent() *tx.Payment {
	return &tx.Payment{
		Account:        p.Account,
		Destination:    p.Destination,
		Amount:         amount.Issued(p.Currency, p.Issuer, p.Value),
		DestinationTag: p.DestinationTag,
		Memos:          p.Memos,
	}
}

// IssueToken issues Value of Currency. The issuer defaults to the sending
// account and the destination to the issuer.
func (s *Service) IssueToken(ctx context.Context, auth Auth, p TokenPayment) (*submit.Outcome, error) {
	if p.Issuer == "" {
		p.Issuer = p.Account
	}
	if p.Destination == "" {
		p.Destination = p.Issuer
	}
	return s.execute(ctx, auth, p.intent())
}

// TransferToken sends an issued currency held by Account.
func (s *Service) TransferToken(ctx context.Context, auth Auth, p TokenPayment) (*submit.Outcome, error) {
	if p.Issuer == "" {
		return nil, xrplerr.Input("issuer", "required")
	}
	return s.execute(ctx, auth, p.intent())
}

// SetTrustLine creates or changes a trust line.
func (s *Service) SetTrustLine(ctx context.Context, auth Auth, line *tx.TrustSet) (*submit.Outcome, error) {
	return s.execute(ctx, auth, line)
}

// SetTrustLineNoRipple changes the no-ripple setting of a trust line. The
// flag is set unless line.NoRipple is explicitly false. The existing line,
// if any, is only logged.
func (s *Service) SetTrustLineNoRipple(ctx context.Context, auth Auth, line *tx.TrustSet) (*submit.Outcome, error) {
	if line == nil {
		return nil, xrplerr.Input("trustLine", "required")
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.signer(auth, line.Account); err != nil {
		return nil, err
	}

	update := *line
	if update.NoRipple == nil || *update.NoRipple {
		update.RipplingDisabled = true
		update.NoRipple = nil
	}
	update.Margin = s.policy.Standard()

	lines, err := s.TrustLines(ctx, line.Account, line.Currency, line.Issuer)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "looking up trust line", "account", line.Account, "peer", line.Issuer, "error", err)
	case len(lines) == 0:
		s.logger.InfoContext(ctx, "no existing trust line", "account", line.Account, "peer", line.Issuer, "currency", line.Currency)
	default:
		s.logger.InfoContext(ctx, "existing trust line",
			"account", line.Account,
			"peer", line.Issuer,
			"currency", lines[0].Currency,
			"limit", lines[0].Limit,
			"no_ripple", lines[0].NoRipple,
		)
	}
	return s.execute(ctx, auth, &update)
}

// TrustLines lists the trust lines of address, optionally only those in
// code or shared with peer.
func (s *Service) TrustLines(ctx context.Context, address, code, peer string) ([]rpc.TrustLine, error) {
	lines, err := s.accountLines(ctx, address, peer)
	if err != nil || code == "" {
		return lines, err
	}
	want := currency.Canonicalize(code)
	var out []rpc.TrustLine
	for _, l := range lines {
		if currency.Canonicalize(l.Currency) == want {
			out = append(out, l)
		}
	}
	return out, nil
}

// TokensByIssuer lists the trust lines held against an issuing account,
// which are the balances of the tokens it issued.
func (s *Service) TokensByIssuer(ctx context.Context, issuer string) ([]rpc.TrustLine, error) {
	return s.accountLines(ctx, issuer, "")
}

func (s *Service) accountLines(ctx context.Context, address, peer string) ([]rpc.TrustLine, error) {
	if address == "" {
		return nil, xrplerr.Input("account", "required")
	}
	return read(ctx, s, "account_lines", address, func() ([]rpc.TrustLine, error) {
		var (
			lines  []rpc.TrustLine
			marker json.RawMessage
		)
		for {
			res, err := s.node.AccountLines(ctx, rpc.AccountLinesRequest{Account: address, Peer: peer, Marker: marker})
			if err != nil {
				return nil, err
			}
			lines = append(lines, res.Lines...)
			if len(res.Marker) == 0 {
				return lines, nil
			}
			marker = res.Marker
		}
	})
}

// AccountOptions are account settings to change. Nil fields are left
// alone. At most one flag can be set and one cleared per call.
type AccountOptions struct {
	Account          string
	DefaultRipple    *bool
	RequireDest      *bool
	RequireAuth      *bool
	DisallowXRP      *bool
	DisableMasterKey *bool
	Domain           *string
	// TransferRate is a percentage from 0 to 100.
	TransferRate *string
	EmailHash    *string
	MessageKey   *string
	TickSize     *uint8
}

func (o AccountOptions) intent() *tx.AccountSet {
	in := &tx.AccountSet{
		Account:             o.Account,
		Domain:              o.Domain,
		TransferRatePercent: o.TransferRate,
		EmailHash:           o.EmailHash,
		MessageKey:          o.MessageKey,
		TickSize:            o.TickSize,
	}
	toggles := []struct {
		on   *bool
		flag tx.AccountFlag
	}{
		{o.DefaultRipple, tx.AsfDefaultRipple},
		{o.RequireDest, tx.AsfRequireDest},
		{o.RequireAuth, tx.AsfRequireAuth},
		{o.DisallowXRP, tx.AsfDisallowXRP},
		{o.DisableMasterKey, tx.AsfDisableMaster},
	}
	for _, t := range toggles {
		switch {
		case t.on == nil:
		case *t.on:
			in.SetFlags = append(in.SetFlags, t.flag)
		default:
			in.ClearFlags = append(in.ClearFlags, t.flag)
		}
	}
	return in
}

// SetAccountOptions changes account settings with one AccountSet.
func (s *Service) SetAccountOptions(ctx context.Context, auth Auth, o AccountOptions) (*submit.Outcome, error) {
	return s.execute(ctx, auth, o.intent())
}
