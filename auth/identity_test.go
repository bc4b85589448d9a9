package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func decodeClaims(t *testing.T, token string) map[string]any {
	t.Helper()

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected a 3-part JWT, got %d parts", len(parts))
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode claims: %v", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		t.Fatalf("unmarshal claims: %v", err)
	}

	return claims
}

func TestOfflineProviderIdentityChainIsWellFormed(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	provider := OfflineProvider{DisplayName: "Steve"}

	chain, err := provider.IdentityChain(&key.PublicKey)
	if err != nil {
		t.Fatalf("identity chain: %v", err)
	}

	if len(chain) != 1 {
		t.Fatalf("expected offline mode to produce a single-link chain, got %d", len(chain))
	}

	claims := decodeClaims(t, chain[0])

	extra, ok := claims["extraData"].(map[string]any)
	if !ok {
		t.Fatal("expected extraData claim")
	}

	if extra["displayName"] != "Steve" {
		t.Fatalf("got displayName %v", extra["displayName"])
	}

	if extra["titleId"] != offlineTitleID {
		t.Fatalf("got titleId %v, want %q", extra["titleId"], offlineTitleID)
	}

	if claims["iss"] != "self" {
		t.Fatalf("got iss %v, want %q", claims["iss"], "self")
	}

	nbf, ok := claims["nbf"].(float64)
	if !ok || nbf != 0 {
		t.Fatalf("got nbf %v, want 0", claims["nbf"])
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		t.Fatal("expected iat claim")
	}

	exp, ok := claims["exp"].(float64)
	if !ok || exp-iat != identityValidity {
		t.Fatalf("got exp-iat %v, want %d", exp-iat, identityValidity)
	}
}

func TestOfflineProviderDeterministicUUID(t *testing.T) {
	key, _ := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	provider := OfflineProvider{DisplayName: "Steve"}

	first, err := provider.IdentityChain(&key.PublicKey)
	if err != nil {
		t.Fatalf("identity chain: %v", err)
	}

	second, err := provider.IdentityChain(&key.PublicKey)
	if err != nil {
		t.Fatalf("identity chain: %v", err)
	}

	extractIdentity := func(chain []string) string {
		claims := decodeClaims(t, chain[0])
		extra := claims["extraData"].(map[string]any)
		return extra["identity"].(string)
	}

	if extractIdentity(first) != extractIdentity(second) {
		t.Fatal("expected the offline UUID to be deterministic for the same display name")
	}
}

func TestEncodeConnectionRequestRoundTrip(t *testing.T) {
	encoded, err := EncodeConnectionRequest([]string{"link-one", "link-two"}, "client-data-token")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	offset := 0
	readVaruint32 := func() uint32 {
		var x uint32
		var shift uint
		for {
			b := encoded[offset]
			offset++
			x |= uint32(b&0x7f) << shift
			if b&0x80 == 0 {
				break
			}
			shift += 7
		}
		return x
	}

	chainLen := readVaruint32()
	chainJSON := encoded[offset : offset+int(chainLen)]
	offset += int(chainLen)

	var decoded connectionRequestChain
	if err := json.Unmarshal(chainJSON, &decoded); err != nil {
		t.Fatalf("unmarshal chain envelope: %v", err)
	}

	if len(decoded.Chain) != 2 || decoded.Chain[0] != "link-one" || decoded.Chain[1] != "link-two" {
		t.Fatalf("got chain %v", decoded.Chain)
	}

	clientDataLen := readVaruint32()
	clientData := string(encoded[offset : offset+int(clientDataLen)])

	if clientData != "client-data-token" {
		t.Fatalf("got client data %q", clientData)
	}
}

func TestSignAndVerifyES384(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	sig, err := signES384(key, []byte("payload"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := verifyES384(&key.PublicKey, []byte("payload"), sig); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := verifyES384(&key.PublicKey, []byte("tampered"), sig); err == nil {
		t.Fatal("expected verification to fail for tampered payload")
	}
}
