package credentialstatus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/pilacorp/go-statuslist-sdk/credential/common/statuslist"
)

// DefaultTimeout bounds a single status list fetch.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps the size of a fetched status list credential.
const maxResponseBytes = 8 << 20

// Client fetches status list credentials and checks credential status
// entries against them.
type Client struct {
	httpClient     *http.Client
	logger         *slog.Logger
	minimumEntries int
	now            func() time.Time
	group          singleflight.Group
}

// ClientOpt configures a Client.
type ClientOpt func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(c *http.Client) ClientOpt {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOpt {
	return func(cl *Client) {
		cl.httpClient.Timeout = d
	}
}

func WithLogger(l *slog.Logger) ClientOpt {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithMinimumEntries overrides the minimum entry count enforced on decoded lists.
func WithMinimumEntries(n int) ClientOpt {
	return func(cl *Client) {
		cl.minimumEntries = n
	}
}

// WithClock sets the time source used for validity checks.
func WithClock(now func() time.Time) ClientOpt {
	return func(cl *Client) {
		cl.now = now
	}
}

// NewClient creates a new credential status client with a sensible default timeout.
func NewClient(opts ...ClientOpt) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchStatusListCredential fetches and parses the status list credential
// located at the given statusListCredential URL. Concurrent fetches of the
// same URL share one request.
func (c *Client) FetchStatusListCredential(ctx context.Context, statusListCredentialURL string) (*statuslist.Credential, error) {
	if statusListCredentialURL == "" {
		return nil, statuslist.NewError(statuslist.CodeMalformedValue, "statusListCredential URL is empty")
	}

	if err := ctx.Err(); err != nil {
		return nil, statuslist.WrapError(err, statuslist.CodeStatusRetrieval, "status list credential fetch canceled")
	}

	// The shared fetch is detached from any one caller's cancellation and
	// bounded by the client timeout instead.
	ch := c.group.DoChan(statusListCredentialURL, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
		defer cancel()
		return c.fetch(fetchCtx, statusListCredentialURL)
	})

	select {
	case <-ctx.Done():
		return nil, statuslist.WrapError(ctx.Err(), statuslist.CodeStatusRetrieval, "status list credential fetch canceled")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.DebugContext(ctx, "shared status list fetch", "url", statusListCredentialURL)
		}
		return statuslist.ParseCredential(unwrapResponse(res.Val.([]byte)))
	}
}

func (c *Client) timeout() time.Duration {
	if c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return DefaultTimeout
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, statuslist.WrapError(err, statuslist.CodeStatusRetrieval, "failed to build status list credential request")
	}
	req.Header.Set("Accept", "application/vc+ld+json, application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, statuslist.WrapError(err, statuslist.CodeStatusRetrieval, "failed to call status list credential endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statuslist.NewError(statuslist.CodeStatusRetrieval,
			"status list credential API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, statuslist.WrapError(err, statuslist.CodeStatusRetrieval, "failed to read status list credential response body")
	}
	if len(body) > maxResponseBytes {
		return nil, statuslist.NewError(statuslist.CodeStatusRetrieval, "status list credential exceeds %d bytes", maxResponseBytes)
	}

	c.logger.DebugContext(ctx, "fetched status list credential",
		"url", url, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

// Check resolves the status of a credential from its credentialStatus entry.
func (c *Client) Check(ctx context.Context, entry statuslist.BitstringStatusListEntry) (*statuslist.StatusEvaluation, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	credential, err := c.FetchStatusListCredential(ctx, entry.StatusListCredential)
	if err != nil {
		return nil, err
	}

	if err := c.verifyListCredential(entry, credential); err != nil {
		c.logger.WarnContext(ctx, "status list credential rejected",
			"url", entry.StatusListCredential, "error", err)
		return nil, err
	}

	subject := credential.CredentialSubject
	evaluation, err := statuslist.EvaluateStatus(statuslist.EvaluateOptions{
		EncodedList:     subject.EncodedList,
		StatusListIndex: entry.StatusListIndex,
		StatusPurpose:   entry.StatusPurpose,
		StatusSize:      subject.EffectiveStatusSize(),
		StatusMessages:  subject.StatusMessages,
		MinimumEntries:  c.minimumEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s index %s: %w", entry.StatusListCredential, entry.StatusListIndex, err)
	}
	return evaluation, nil
}

func (c *Client) verifyListCredential(entry statuslist.BitstringStatusListEntry, credential *statuslist.Credential) error {
	subject := credential.CredentialSubject
	if subject.StatusPurpose != entry.StatusPurpose {
		return statuslist.NewError(statuslist.CodeStatusVerification,
			"status purpose %q does not match status list purpose %q", entry.StatusPurpose, subject.StatusPurpose)
	}
	if entry.StatusSize != 0 && entry.StatusSize != subject.EffectiveStatusSize() {
		return statuslist.NewError(statuslist.CodeStatusVerification,
			"status size %d does not match status list size %d", entry.StatusSize, subject.EffectiveStatusSize())
	}

	now := c.now()
	if credential.ValidFrom != "" {
		validFrom, err := time.Parse(time.RFC3339, credential.ValidFrom)
		if err != nil {
			return statuslist.WrapError(err, statuslist.CodeStatusVerification, "status list credential has invalid validFrom")
		}
		if now.Before(validFrom) {
			return statuslist.NewError(statuslist.CodeStatusVerification, "status list credential is not valid before %s", credential.ValidFrom)
		}
	}
	if credential.ValidUntil != "" {
		validUntil, err := time.Parse(time.RFC3339, credential.ValidUntil)
		if err != nil {
			return statuslist.WrapError(err, statuslist.CodeStatusVerification, "status list credential has invalid validUntil")
		}
		if now.After(validUntil) {
			return statuslist.NewError(statuslist.CodeStatusVerification, "status list credential expired at %s", credential.ValidUntil)
		}
	}
	return nil
}

// IsRevoked checks whether the credential at position in the revocation list
// published at statusListCredentialURL is revoked.
func (c *Client) IsRevoked(ctx context.Context, statusListCredentialURL string, position int) (bool, error) {
	evaluation, err := c.Check(ctx, statuslist.BitstringStatusListEntry{
		Type:                 statuslist.TypeBitstringStatusListEntry,
		StatusPurpose:        statuslist.PurposeRevocation,
		StatusListIndex:      fmt.Sprint(position),
		StatusListCredential: statusListCredentialURL,
	})
	if err != nil {
		return false, err
	}
	return !evaluation.Valid, nil
}

// FetchAndCheckRevocation is IsRevoked with a default client.
func FetchAndCheckRevocation(ctx context.Context, statusListCredentialURL string, position int) (bool, error) {
	return NewClient().IsRevoked(ctx, statusListCredentialURL, position)
}
