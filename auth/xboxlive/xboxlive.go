// Package xboxlive defines the boundary between the client core and an
// external Xbox Live authentication flow. The core never talks to
// Microsoft's services directly; a Provider implementation supplies
// whatever token exchange (device code, MSA refresh token, cached XSTS
// token) the embedding application wants to use.
package xboxlive

import "context"

// Chain is the three-link JWT chain Xbox Live issues once a player has
// authenticated: the player's own identity token followed by the links
// Microsoft's services add on top of it.
type Chain []string

// Provider obtains a signed Xbox Live identity chain for the public key a
// session generated for this connection. Implementations are expected to
// cache tokens across calls since a chain is tied to a live XSTS token
// with its own expiry, independent of the session's ephemeral key.
type Provider interface {
	Chain(ctx context.Context, publicKeyDER []byte) (Chain, error)
}
