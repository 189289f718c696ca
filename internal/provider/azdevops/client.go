package azdevops

import (
	"context"
	"fmt"
	"time"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"
)

// Config contains the Azure DevOps connection parameters. The values are
// fixed for the lifetime of one adapter. A zero RequestTimeout leaves
// outbound calls without a deadline of their own.
type Config struct {
	OrganizationURL string
	Project         string
	BuildID         int
	Token           string
	RequestTimeout  time.Duration
}

// Validate checks that all required connection parameters are present
func (c *Config) Validate() error {
	if c.OrganizationURL == "" {
		return fmt.Errorf("organization url is required")
	}
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	if c.BuildID <= 0 {
		return fmt.Errorf("invalid build id %d: provide an existent one", c.BuildID)
	}
	if c.Token == "" {
		return fmt.Errorf("access token is required: set AZURE_PIPELINES_TOKEN or configure azure.token")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}

// buildAPI is the subset of the Azure DevOps build client the adapter uses.
// build.Client satisfies it; tests supply fakes.
type buildAPI interface {
	GetBuild(ctx context.Context, args build.GetBuildArgs) (*build.Build, error)
	GetBuildTimeline(ctx context.Context, args build.GetBuildTimelineArgs) (*build.Timeline, error)
	GetBuildLogLines(ctx context.Context, args build.GetBuildLogLinesArgs) (*[]string, error)
	GetBuilds(ctx context.Context, args build.GetBuildsArgs) (*build.GetBuildsResponseValue, error)
}

// withTimeout bounds one outbound SDK call. With a zero timeout the parent
// context is returned unchanged.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// connect dials the organization with PAT credentials and returns the SDK
// build client
func connect(ctx context.Context, cfg *Config) (buildAPI, error) {
	connection := azuredevops.NewPatConnection(cfg.OrganizationURL, cfg.Token)

	client, err := build.NewClient(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("create build client: %w", err)
	}

	return client, nil
}
