package inventory

import (
	"context"
	"fmt"
	"strings"
)

// Credential is what the inventory service needs to serve one tenant: an
// impersonation token and that tenant's service endpoint.
type Credential struct {
	Token    string
	Endpoint string
}

// Authenticator impersonates a tenant against the identity service.
// Implementations own credential caching, renewal and retry; a returned
// error is fatal to the whole collection pass.
type Authenticator interface {
	Authenticate(ctx context.Context, tenantID string) (Credential, error)
}

// StaticAuthenticator serves a fixed token and an endpoint template for
// every tenant. It covers single-endpoint deployments and tests; production
// wiring substitutes the identity collaborator.
type StaticAuthenticator struct {
	Token string
	// EndpointTemplate is the tenant endpoint; an optional %s is replaced
	// with the tenant id.
	EndpointTemplate string
}

func (a StaticAuthenticator) Authenticate(_ context.Context, tenantID string) (Credential, error) {
	if strings.TrimSpace(a.EndpointTemplate) == "" {
		return Credential{}, fmt.Errorf("no inventory endpoint configured")
	}
	endpoint := a.EndpointTemplate
	if strings.Contains(endpoint, "%s") {
		endpoint = fmt.Sprintf(endpoint, tenantID)
	}
	return Credential{Token: a.Token, Endpoint: endpoint}, nil
}
