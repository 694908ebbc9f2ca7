package databricks

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// azureDatabricksScope is the AAD scope of the Databricks first-party
// application; tokens issued for it are accepted by any Azure Databricks
// workspace.
const azureDatabricksScope = "2ff814a6-3304-4ab8-85cb-cd0e6f879c1d/.default"

// tokenRefreshMargin renews cached AAD tokens this long before expiry.
const tokenRefreshMargin = 2 * time.Minute

type tokenSource interface {
	Token(ctx context.Context) (string, error)
}

// staticToken serves a personal access token.
type staticToken string

func (t staticToken) Token(context.Context) (string, error) { return string(t), nil }

// aadToken acquires and caches an AAD access token through the default Azure
// credential chain (env vars, managed identity, az CLI).
type aadToken struct {
	cred *azidentity.DefaultAzureCredential

	mu     sync.Mutex
	cached azcore.AccessToken
}

func (t *aadToken) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cached.Token != "" && time.Until(t.cached.ExpiresOn) > tokenRefreshMargin {
		return t.cached.Token, nil
	}
	tok, err := t.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{azureDatabricksScope},
	})
	if err != nil {
		return "", fmt.Errorf("acquiring AAD token: %w", err)
	}
	t.cached = tok
	return tok.Token, nil
}

// newTokenSource picks the auth mechanism: a PAT when one is configured,
// otherwise AAD for Azure-hosted workspaces.
func newTokenSource(host, pat string) (tokenSource, error) {
	if pat != "" {
		return staticToken(pat), nil
	}
	if !strings.Contains(host, "azuredatabricks.net") {
		return nil, fmt.Errorf("databricks: no token configured and host %s is not an Azure workspace (set DATABRICKS_TOKEN)", host)
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("building Azure credential: %w", err)
	}
	return &aadToken{cred: cred}, nil
}

// NewClientFromEnv builds a client from the conventional environment
// variables: DATABRICKS_HOST (required), DATABRICKS_TOKEN,
// DATABRICKS_WAREHOUSE_ID, and DATABRICKS_CATALOG.
func NewClientFromEnv() (*Client, error) {
	host := os.Getenv("DATABRICKS_HOST")
	if host == "" {
		return nil, fmt.Errorf("databricks: DATABRICKS_HOST is not set")
	}
	return NewClient(Config{
		Host:        host,
		Token:       os.Getenv("DATABRICKS_TOKEN"),
		WarehouseID: os.Getenv("DATABRICKS_WAREHOUSE_ID"),
		Catalog:     os.Getenv("DATABRICKS_CATALOG"),
	})
}
