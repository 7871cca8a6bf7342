// Package assertion decodes signed attribute assertions into attribute bags.
//
// The surrounding request lifecycle may hand the engine its raw attributes as
// a JWT signed by the identity source. The decoder verifies the signature
// against the issuer's JWKS and flattens the claims into an attr.Bag.
package assertion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/project-relgate/relgate/internal/attr"
	"github.com/project-relgate/relgate/internal/clock"
)

// Common decoding errors
var (
	ErrInvalidAssertion = errors.New("invalid assertion")
	ErrExpiredAssertion = errors.New("assertion expired")
)

// registeredClaims are JWT claims that are not identity attributes and are
// excluded from the bag by default
var registeredClaims = map[string]bool{
	"iss": true,
	"sub": true,
	"aud": true,
	"exp": true,
	"nbf": true,
	"iat": true,
	"jti": true,
}

// Decoder verifies attribute assertions and extracts their attribute bags
type Decoder struct {
	issuer  string
	jwksURL string
	cache   *jwk.Cache
	clock   clock.Clock

	includeRegistered bool
}

// DecoderConfig contains configuration for assertion decoding
type DecoderConfig struct {
	// Issuer is the expected issuer URL (iss claim)
	Issuer string

	// JWKSURL is the URL to fetch the JSON Web Key Set from.
	// If empty, will attempt to discover from issuer/.well-known/jwks.json
	JWKSURL string

	// RefreshInterval for the JWKS cache (default: 15 minutes)
	RefreshInterval time.Duration

	// IncludeRegistered keeps registered JWT claims (iss, sub, aud, ...) in
	// the decoded bag. Default is to exclude them.
	IncludeRegistered bool

	// HTTPClient is an optional HTTP client for JWKS fetching.
	// If nil, http.DefaultClient will be used.
	HTTPClient *http.Client

	// Clock is the time source for assertion validation.
	// If nil, uses system clock.
	Clock clock.Clock
}

// NewDecoder creates an assertion decoder with JWKS support
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		// Default: try standard OIDC discovery endpoint
		jwksURL = cfg.Issuer + "/.well-known/jwks.json"
	}

	refreshInterval := cfg.RefreshInterval
	if refreshInterval == 0 {
		refreshInterval = 15 * time.Minute
	}

	// Create JWKS cache with auto-refresh
	cache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS cache: %w", err)
	}

	registerOpts := []jwk.RegisterOption{jwk.WithMinInterval(refreshInterval)}
	if cfg.HTTPClient != nil {
		registerOpts = append(registerOpts, jwk.WithHTTPClient(cfg.HTTPClient))
	}
	if err := cache.Register(context.Background(), jwksURL, registerOpts...); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	// Pre-fetch the JWKS so the first exchange doesn't pay for it
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to fetch initial JWKS: %w", err)
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}

	return &Decoder{
		issuer:            cfg.Issuer,
		jwksURL:           jwksURL,
		cache:             cache,
		clock:             clk,
		includeRegistered: cfg.IncludeRegistered,
	}, nil
}

// Decode verifies an assertion and returns its attribute bag
func (d *Decoder) Decode(ctx context.Context, assertion string) (attr.Bag, error) {
	jwks, err := d.cache.Lookup(ctx, d.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(assertion),
		jwt.WithKeySet(jwks),
		jwt.WithValidate(true),
		jwt.WithIssuer(d.issuer),
		jwt.WithClock(jwt.ClockFunc(func() time.Time {
			return d.clock.Now()
		})),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return nil, ErrExpiredAssertion
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	// Flatten all claims through JSON, the same representation the issuer
	// serialized them from
	allClaims := map[string]any{}
	serialized, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize assertion claims: %w", err)
	}
	if err := json.Unmarshal(serialized, &allClaims); err != nil {
		return nil, fmt.Errorf("failed to parse assertion claims: %w", err)
	}

	bag := make(attr.Bag, len(allClaims))
	for name, value := range allClaims {
		if !d.includeRegistered && registeredClaims[name] {
			continue
		}
		values, err := claimValues(value)
		if err != nil {
			return nil, fmt.Errorf("%w: claim %q: %v", ErrInvalidAssertion, name, err)
		}
		if values != nil {
			bag[name] = values
		}
	}

	return bag, nil
}

// claimValues converts one claim into an ordered value list.
// Strings and lists of scalars become values; objects are not attributes and
// are skipped (nil, nil).
func claimValues(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case bool:
		return []string{strconv.FormatBool(v)}, nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			switch s := item.(type) {
			case string:
				values = append(values, s)
			case bool:
				values = append(values, strconv.FormatBool(s))
			case float64:
				values = append(values, strconv.FormatFloat(s, 'f', -1, 64))
			default:
				return nil, fmt.Errorf("unsupported value type %T", item)
			}
		}
		return values, nil
	case map[string]any:
		// Structured claims are not identity attributes
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported claim type %T", value)
	}
}
