package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrKeyNotFound is returned when a token names a kid the key set lacks.
	ErrKeyNotFound = errors.New("jwks: key not found")
	// ErrUnsupportedKey is returned for key types the portal cannot verify with.
	ErrUnsupportedKey = errors.New("jwks: unsupported key")
)

type JWKS struct {
	Keys []JSONWebKey `json:"keys"`
}

// JSONWebKey holds the public members of an RSA or P-256 key. Supabase
// projects sign with RS256 (legacy asymmetric keys) or ES256.
type JSONWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// Provider caches a project's signing keys by kid. An unknown kid triggers a
// refetch, at most once per minRefresh.
type Provider struct {
	url        string
	httpClient *http.Client
	minRefresh time.Duration

	mu        sync.RWMutex
	keys      map[string]crypto.PublicKey
	refreshed time.Time
}

func NewProvider(jwksURL string) *Provider {
	return &Provider{
		url:        jwksURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		minRefresh: time.Minute,
		keys:       make(map[string]crypto.PublicKey),
	}
}

// KeyFunc is a jwt.Keyfunc for RS256 and ES256 tokens. The key type must
// match the token's algorithm.
func (p *Provider) KeyFunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("jwks: token has no kid header")
	}
	key, err := p.GetKey(context.Background(), kid)
	if err != nil {
		return nil, err
	}

	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if k, ok := key.(*rsa.PublicKey); ok {
			return k, nil
		}
	case *jwt.SigningMethodECDSA:
		if k, ok := key.(*ecdsa.PublicKey); ok {
			return k, nil
		}
	}
	return nil, fmt.Errorf("jwks: key %q does not match alg %v", kid, token.Header["alg"])
}

func (p *Provider) lookup(kid string) (crypto.PublicKey, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	key, ok := p.keys[kid]
	return key, ok
}

func (p *Provider) GetKey(ctx context.Context, kid string) (crypto.PublicKey, error) {
	if key, ok := p.lookup(kid); ok {
		return key, nil
	}
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := p.lookup(kid); ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

func (p *Provider) refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) > 0 && time.Since(p.refreshed) < p.minRefresh {
		return nil
	}

	set, err := p.fetch(ctx)
	if err != nil {
		return err
	}

	keys := make(map[string]crypto.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		pub, err := k.PublicKey()
		if err != nil {
			// Keys of other types may share the set; skip them.
			continue
		}
		keys[k.Kid] = pub
	}
	p.keys = keys
	p.refreshed = time.Now()
	return nil
}

func (p *Provider) fetch(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jwks: fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks: unexpected status %d", resp.StatusCode)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("jwks: decode failed: %w", err)
	}
	return &set, nil
}

// PublicKey decodes an RSA or P-256 JWK.
func (k *JSONWebKey) PublicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		n, err := decodeInt(k.N)
		if err != nil {
			return nil, err
		}
		e, err := decodeInt(k.E)
		if err != nil {
			return nil, err
		}
		if !e.IsInt64() || e.Int64() < 3 {
			return nil, ErrUnsupportedKey
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
	case "EC":
		if k.Crv != "P-256" {
			return nil, ErrUnsupportedKey
		}
		x, err := decodeInt(k.X)
		if err != nil {
			return nil, err
		}
		y, err := decodeInt(k.Y)
		if err != nil {
			return nil, err
		}
		return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
	default:
		return nil, ErrUnsupportedKey
	}
}

func decodeInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("jwks: bad key member: %w", err)
	}
	return new(big.Int).SetBytes(b), nil
}
