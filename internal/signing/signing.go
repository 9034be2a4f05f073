// Package signing produces signed transaction blobs, either locally from a
// family seed or by asking the node to sign.
package signing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LeJamon/xrplgate/internal/crypto"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/Peersyst/xrpl-go/xrpl/wallet"
)

// ErrNoSeed is returned when a signer is created without a seed.
var ErrNoSeed = errors.New("signing: seed required")

//go:generate mockgen -destination=mocks/signer.go -package=mocks . Signer

// Signer signs a transaction field map.
type Signer interface {
	// Address is the account the signer signs for.
	Address() string
	Sign(ctx context.Context, txJSON map[string]any) (blob, hash string, err error)
}

// Mode selects where signatures are produced.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// ParseMode parses a configured signing mode. The empty string is local.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeRemote:
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("unknown signing mode %q", s)
	}
}

// Local signs in process; the seed never leaves the process.
type Local struct {
	address string
	wallet  wallet.Wallet
}

// NewLocal creates a signer for the wallet controlled by seed.
func NewLocal(seed string) (*Local, error) {
	if seed == "" {
		return nil, ErrNoSeed
	}
	derived, err := crypto.WalletFromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("deriving wallet: %w", err)
	}
	w, err := wallet.FromSeed(seed, "")
	if err != nil {
		return nil, fmt.Errorf("loading wallet: %w", err)
	}
	return &Local{address: derived.Address, wallet: w}, nil
}

func (l *Local) Address() string { return l.address }

func (l *Local) Sign(_ context.Context, txJSON map[string]any) (string, string, error) {
	blob, hash, err := l.wallet.Sign(txJSON)
	if err != nil {
		return "", "", fmt.Errorf("signing locally: %w", err)
	}
	return blob, hash, nil
}

// NodeSigner is the node request Remote depends on.
type NodeSigner interface {
	Sign(ctx context.Context, txJSON map[string]any, secret string) (*rpc.SignResult, error)
}

// Remote sends the secret to the node's sign command. Only use it with a
// node you operate.
type Remote struct {
	address string
	seed    string
	node    NodeSigner
}

// NewRemote creates a signer that signs through node.
func NewRemote(seed string, node NodeSigner) (*Remote, error) {
	if seed == "" {
		return nil, ErrNoSeed
	}
	derived, err := crypto.WalletFromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("deriving wallet: %w", err)
	}
	return &Remote{address: derived.Address, seed: seed, node: node}, nil
}

func (r *Remote) Address() string { return r.address }

func (r *Remote) Sign(ctx context.Context, txJSON map[string]any) (string, string, error) {
	res, err := r.node.Sign(ctx, txJSON, r.seed)
	if err != nil {
		return "", "", fmt.Errorf("signing on node: %w", err)
	}
	return res.TxBlob, res.TxJSON.Hash, nil
}

// New creates a signer of the given mode.
func New(mode Mode, seed string, node NodeSigner) (Signer, error) {
	switch mode {
	case ModeRemote:
		return NewRemote(seed, node)
	default:
		return NewLocal(seed)
	}
}
