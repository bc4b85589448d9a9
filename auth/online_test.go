package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/gamevidea/bedrock/auth/xboxlive"
)

type fakeXboxLive struct {
	chain xboxlive.Chain
	err   error
}

func (f fakeXboxLive) Chain(ctx context.Context, publicKeyDER []byte) (xboxlive.Chain, error) {
	return f.chain, f.err
}

func TestOnlineProviderPrependsSelfSignedIdentityToken(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	provider := OnlineProvider{XboxLive: fakeXboxLive{chain: xboxlive.Chain{"external-one", "external-two"}}}

	chain, err := provider.IdentityChain(&key.PublicKey)
	if err != nil {
		t.Fatalf("identity chain: %v", err)
	}

	if len(chain) != 3 {
		t.Fatalf("expected self-signed token plus 2 external links, got %d", len(chain))
	}

	if chain[1] != "external-one" || chain[2] != "external-two" {
		t.Fatalf("expected external chain to be preserved in order, got %v", chain[1:])
	}

	claims := decodeClaims(t, chain[0])

	if claims["certificateAuthority"] != true {
		t.Fatalf("expected certificateAuthority claim, got %v", claims["certificateAuthority"])
	}

	if claims["iss"] != "self" {
		t.Fatalf("got iss %v, want self", claims["iss"])
	}

	if _, ok := claims["identityPublicKey"]; !ok {
		t.Fatal("expected identityPublicKey claim")
	}
}

func TestOnlineProviderEmptyChainIsAnError(t *testing.T) {
	key, _ := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	provider := OnlineProvider{XboxLive: fakeXboxLive{chain: nil}}

	if _, err := provider.IdentityChain(&key.PublicKey); err != errEmptyChain {
		t.Fatalf("got err %v, want errEmptyChain", err)
	}
}
