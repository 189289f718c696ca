// Package gateway provides an embeddable build-inspection gateway for Azure
// DevOps pipelines.
//
// # Overview
//
// The gateway wraps the official Azure DevOps Go SDK behind a small read-only
// REST API: build summary, run timeline, failed tasks with their logs, failed
// jobs grouped by stage, previous-build resolution, and a comparison verdict
// against the previous build.
//
// # Basic Usage
//
// Create a gateway programmatically:
//
//	cfg := &gateway.Config{
//		Server: gateway.ServerConfig{
//			Port:         8080,
//			ReadTimeout:  30 * time.Second,
//			WriteTimeout: 30 * time.Second,
//		},
//		Auth: gateway.AuthConfig{
//			APIKeys: []gateway.APIKey{
//				{Name: "my-app", Key: "secret-key-here"},
//			},
//		},
//		Azure: gateway.AzureConfig{
//			OrganizationURL: "https://dev.azure.com/my-org",
//			Project:         "my-project",
//			BuildID:         4242,
//			Token:           os.Getenv("AZURE_PIPELINES_TOKEN"),
//		},
//		Logging: gateway.LoggingConfig{
//			Level:  "info",
//			Format: "json",
//		},
//	}
//
//	gw, err := gateway.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := gw.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Using with Existing HTTP Server
//
// Integrate the gateway into an existing HTTP server:
//
//	gw, err := gateway.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Mount the gateway under a specific path
//	http.Handle("/ci/", http.StripPrefix("/ci", gw.Handler()))
//
//	http.ListenAndServe(":8080", nil)
//
// # Direct Service Access
//
// Access the service layer directly for programmatic control:
//
//	gw, err := gateway.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc := gw.Service()
//
//	comparison, err := svc.Compare(ctx, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("verdict: %s\n", comparison.Verdict)
package gateway
