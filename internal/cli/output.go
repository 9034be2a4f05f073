package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/crypto"
	"github.com/LeJamon/xrplgate/internal/service"
)

var output io.Writer = os.Stdout

// printJSON pretty-prints v to the command output.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting result: %w", err)
	}
	_, err = fmt.Fprintln(output, string(out))
	return err
}

// parseAmount reads "VALUE" as XRP or "VALUE/CURRENCY/ISSUER" as an issued
// amount.
func parseAmount(s string) (amount.Amount, error) {
	parts := strings.Split(s, "/")
	switch len(parts) {
	case 1:
		return amount.New("XRP", "", parts[0])
	case 2:
		return amount.New(parts[1], "", parts[0])
	case 3:
		return amount.New(parts[1], parts[2], parts[0])
	default:
		return amount.Amount{}, xrplerr.Input("amount", "%q is not VALUE[/CURRENCY[/ISSUER]]", s)
	}
}

// authFor returns the credentials for a write and the account it acts for.
// Without --account the account is the one the seed controls.
func authFor(account string) (service.Auth, string, error) {
	s := signingSeed()
	if s == "" {
		return service.Auth{}, "", xrplerr.Input("seed", "required, pass --seed or set XRPLGATE_SEED")
	}
	if account == "" {
		w, err := crypto.WalletFromSeed(s)
		if err != nil {
			return service.Auth{}, "", xrplerr.Input("seed", "%v", err)
		}
		account = w.Address
	}
	return service.Auth{Seed: s, IdempotencyKey: idempotencyKey}, account, nil
}

// optionalUint32 returns a pointer to the flag's value when it was set.
func optionalUint32(set bool, v uint32) *uint32 {
	if !set {
		return nil
	}
	return &v
}
