package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/sync/singleflight"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is the interface that wraps GetParameter.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client wraps an AWS SSM API for parameter retrieval.
type Client struct {
	api ssmAPI
}

// New creates a Client with the given SSM API implementation.
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return *out.Parameter.Value, nil
}

// tokenPayload is the JSON shape stored in SSM for provider API tokens.
type tokenPayload struct {
	Token string `json:"token"`
}

// Token lazily resolves a provider API token stored as {"token":"..."} under
// one parameter name. A successful lookup is cached for the process lifetime;
// a failed one is retried on the next call. Concurrent cold-start callers share
// a single SSM fetch and no lock is held while it is in flight.
type Token struct {
	getter Getter
	name   string
	group  singleflight.Group

	mu    sync.RWMutex
	value string
}

// NewToken returns a Token reading parameter name through getter.
func NewToken(getter Getter, name string) (*Token, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: token parameter name is empty")
	}
	return &Token{getter: getter, name: name}, nil
}

// Name returns the SSM parameter the token is read from.
func (t *Token) Name() string {
	return t.name
}

// Token returns the cached token, fetching it on first use.
func (t *Token) Token(ctx context.Context) (string, error) {
	if v := t.cached(); v != "" {
		return v, nil
	}
	v, err, _ := t.group.Do(t.name, func() (any, error) {
		if v := t.cached(); v != "" {
			return v, nil
		}
		return t.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *Token) cached() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

func (t *Token) fetch(ctx context.Context) (string, error) {
	raw, err := t.getter.GetParameter(ctx, t.name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch token %q: %w", t.name, err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal token %q as JSON: %w", t.name, err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", fmt.Errorf("paramstore: token %q is empty", t.name)
	}
	t.mu.Lock()
	t.value = tp.Token
	t.mu.Unlock()
	return tp.Token, nil
}
