// Package auth assembles the identity and user JSON Web Token chains a
// Bedrock client presents during login, covering both the offline
// (self-signed) path and delegation to an external Xbox Live identity
// provider for online mode.
package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
)

// offlineNamespace is the RFC 4122 namespace RakNet clients have
// traditionally used to derive a stable offline UUID from a display name.
var offlineNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

// errEmptyChain is returned when an Xbox Live provider reports success but
// hands back no token chain at all.
var errEmptyChain = errors.New("auth: xbox live provider returned an empty chain")

// Provider supplies the identity chain a client authenticates with. The
// offline provider below self-signs; an online provider delegates to Xbox
// Live token exchange.
type Provider interface {
	// IdentityChain returns the JWT chain proving the client's identity,
	// keyed by the session's ephemeral public key. The chain is returned
	// in the order the Login packet's ConnectionRequest expects it: each
	// element a separate signed link, self-signed links first.
	IdentityChain(publicKey *ecdsa.PublicKey) ([]string, error)
}

// OfflineProvider self-signs an identity chain with a UUID derived
// deterministically from the display name and an XUID of "0", the way a client without an
// Xbox Live account authenticates against a server running in offline
// mode.
type OfflineProvider struct {
	DisplayName string
}

// offlineTitleID is the title ID a vanilla Bedrock client presents while
// signed out, carried in every offline identity token's extraData.
const offlineTitleID = "89692877"

// identityValidity is the lifetime of a self-signed identity token, per
// the login sequence's certificate chain rules.
const identityValidity = 3600

// IdentityChain implements Provider.
func (p OfflineProvider) IdentityChain(publicKey *ecdsa.PublicKey) ([]string, error) {
	key, err := newKeyPair()
	if err != nil {
		return nil, err
	}

	claims := map[string]any{
		"certificateAuthority": true,
		"extraData": map[string]any{
			"displayName": p.DisplayName,
			"identity":    uuid.NewMD5(offlineNamespace, []byte(p.DisplayName)).String(),
			"titleId":     offlineTitleID,
			"XUID":        "0",
		},
		"identityPublicKey": exportPublicKey(publicKey),
	}

	token, err := signClaims(key, claims, "self", 0, identityValidity)
	if err != nil {
		return nil, err
	}

	return []string{token}, nil
}

// keyPair is the ephemeral EC384 key a session generates once for the
// lifetime of a connection, used to sign both JWT chains.
type keyPair struct {
	private *ecdsa.PrivateKey
}

func newKeyPair() (*keyPair, error) {
	private, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, err
	}

	return &keyPair{private: private}, nil
}

// exportPublicKey returns the base64-encoded DER SubjectPublicKeyInfo of
// key, the form Bedrock's identity chain expects for x5u / public key
// fields.
func exportPublicKey(key *ecdsa.PublicKey) string {
	return base64.StdEncoding.EncodeToString(exportPublicKeyDER(key))
}

// exportPublicKeyDER returns the DER SubjectPublicKeyInfo encoding of key.
func exportPublicKeyDER(key *ecdsa.PublicKey) []byte {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		panic(err)
	}

	return der
}

// signClaims produces a single-link JWT: header identifying the ES384
// algorithm and the signing key's x5u, the claims payload, and an ES384
// signature over both. issuer, when non-empty, sets the link's "iss".
// notBefore is the token's nbf claim and expiresIn the number of seconds
// after iat the token remains valid for.
func signClaims(key *keyPair, claims map[string]any, issuer string, notBefore, expiresIn int64) (string, error) {
	header := map[string]any{
		"alg": "ES384",
		"x5u": exportPublicKey(&key.private.PublicKey),
	}

	now := time.Now().Unix()
	claims["nbf"] = notBefore
	claims["iat"] = now
	claims["exp"] = now + expiresIn

	if issuer != "" {
		claims["iss"] = issuer
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(claimsJSON)

	sig, err := signES384(key.private, []byte(signingInput))
	if err != nil {
		return "", err
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// SignClientData signs clientData with the session's own private key and
// returns the resulting JWT, the token the server verifies against the
// "identityPublicKey" claim of the identity chain's last link.
func SignClientData(private *ecdsa.PrivateKey, clientData login.ClientData) (string, error) {
	raw, err := json.Marshal(clientData)
	if err != nil {
		return "", err
	}

	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", err
	}

	notBefore := time.Now().Add(-time.Minute).Unix()
	return signClaims(&keyPair{private: private}, claims, "", notBefore, int64((6 * time.Hour).Seconds()))
}

// connectionRequestChain is the JSON envelope a Login packet's
// ConnectionRequest wraps its identity chain tokens in.
type connectionRequestChain struct {
	Chain []string `json:"chain"`
}

// EncodeConnectionRequest packs the identity chain and signed client data
// token into the length-prefixed pair the Login packet's ConnectionRequest
// field carries on the wire. chain is wrapped as the {"chain":[...]} JSON
// object a real server expects, not a bare token.
func EncodeConnectionRequest(chain []string, clientDataJWT string) ([]byte, error) {
	chainJSON, err := json.Marshal(connectionRequestChain{Chain: chain})
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(chainJSON)+len(clientDataJWT)+8)
	out = appendVaruint32(out, uint32(len(chainJSON)))
	out = append(out, chainJSON...)
	out = appendVaruint32(out, uint32(len(clientDataJWT)))
	out = append(out, clientDataJWT...)
	return out, nil
}

// appendVaruint32 appends x to out using the unsigned LEB128 varint
// encoding the Bedrock protocol uses for every length prefix.
func appendVaruint32(out []byte, x uint32) []byte {
	for x >= 0x80 {
		out = append(out, byte(x)|0x80)
		x >>= 7
	}

	return append(out, byte(x))
}

// ClientData builds the login.ClientData payload sent alongside the
// identity chain, carrying device, skin, and platform information. Fields
// left at their zero value are filled in with defaults a vanilla client
// would use.
func ClientData(deviceID string, locale string) login.ClientData {
	if deviceID == "" {
		deviceID = uuid.New().String()
	}

	if locale == "" {
		locale = "en_US"
	}

	return login.ClientData{
		GameVersion:       "1.21.0",
		DeviceID:          deviceID,
		DeviceOS:          7,
		DeviceModel:       "bedrock-client",
		LanguageCode:      locale,
		SkinID:            uuid.New().String(),
		SkinResourcePatch: base64.StdEncoding.EncodeToString([]byte(`{"geometry":{"default":"geometry.humanoid.custom"}}`)),
		SkinImageWidth:    64,
		SkinImageHeight:   64,
		ArmSize:           "wide",
		SkinColor:         "#0",
		PersonaSkin:       false,
		PremiumSkin:       false,
		SelfSignedID:      uuid.New().String(),
	}
}
