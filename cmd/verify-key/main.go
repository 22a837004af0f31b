package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/imgix/contentful/internal/imgix"
	"github.com/imgix/contentful/internal/logging"
	"github.com/imgix/contentful/internal/ratelimit"
)

func main() {
	defaultKey := os.Getenv("IMGIX_API_KEY")
	apiKey := flag.String("api-key", defaultKey, "imgix management API key")
	baseURL := flag.String("base-url", os.Getenv("IMGIX_BASE_URL"), "management API base URL override")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "API key is required (pass -api-key or IMGIX_API_KEY env var)")
		os.Exit(1)
	}

	logger := logging.New(logging.LevelError)
	client := imgix.NewClient(imgix.Config{
		APIKey:  *apiKey,
		BaseURL: *baseURL,
		Timeout: *timeout,
		Limiter: ratelimit.New(time.Second),
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := client.Verify(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "key verification failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Key verified.")

	sources := client.ListSources(ctx)
	if len(sources) == 0 {
		fmt.Println("No eligible sources (enabled, non-web-proxy) on this account.")
		return
	}

	fmt.Printf("Eligible sources (%d):\n", len(sources))
	for _, source := range sources {
		fmt.Printf("  %-24s %-10s %s.imgix.net\n", source.Name, source.Type, source.Domain)
	}
}
