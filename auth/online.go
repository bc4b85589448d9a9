package auth

import (
	"context"
	"crypto/ecdsa"

	"github.com/gamevidea/bedrock/auth/xboxlive"
)

// OnlineProvider delegates identity chain assembly to an external Xbox
// Live provider, the path a client takes when connecting to a server that
// requires Microsoft account authentication.
type OnlineProvider struct {
	XboxLive xboxlive.Provider
}

// IdentityChain implements Provider by exchanging the session's public key
// for an Xbox Live token chain and prepending a self-signed identity token
// binding that chain to the session's own ephemeral key, the way a real
// client certifies the key it is about to log in with.
func (p OnlineProvider) IdentityChain(publicKey *ecdsa.PublicKey) ([]string, error) {
	der := exportPublicKeyDER(publicKey)

	chain, err := p.XboxLive.Chain(context.Background(), der)
	if err != nil {
		return nil, err
	}

	if len(chain) == 0 {
		return nil, errEmptyChain
	}

	key, err := newKeyPair()
	if err != nil {
		return nil, err
	}

	claims := map[string]any{
		"identityPublicKey":    exportPublicKey(publicKey),
		"certificateAuthority": true,
	}

	selfSigned, err := signClaims(key, claims, "self", 0, identityValidity)
	if err != nil {
		return nil, err
	}

	return append([]string{selfSigned}, chain...), nil
}
