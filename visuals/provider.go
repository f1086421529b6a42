package visuals

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// Provider generates one processed image per unique prompt. Images are cached
// by normalized prompt key for the lifetime of one pipeline run, which is the
// mechanism bounding external generation cost. Provider failures never fail
// the run: exhausted retries and missing credentials both degrade to a
// deterministic gradient placeholder.
type Provider struct {
	cfg        *config.Config
	httpClient *http.Client
	baseURL    string
	apiKey     string

	mu     sync.Mutex
	cache  map[string]*types.GeneratedImage
	flight singleflight.Group
}

// NewProvider creates a per-run image provider. Credentials come from
// IMAGE_API_KEY and IMAGE_API_URL; with no key set every prompt renders a
// placeholder.
func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.ImageTimeout()},
		baseURL:    os.Getenv("IMAGE_API_URL"),
		apiKey:     os.Getenv("IMAGE_API_KEY"),
		cache:      make(map[string]*types.GeneratedImage),
	}
}

// NewProviderForEndpoint creates a provider against an explicit endpoint and
// key, for callers that do not read credentials from the environment.
func NewProviderForEndpoint(cfg *config.Config, baseURL, apiKey string) *Provider {
	p := NewProvider(cfg)
	p.baseURL = baseURL
	p.apiKey = apiKey
	return p
}

// Configured reports whether an external generation service is usable.
func (p *Provider) Configured() bool {
	return p.apiKey != "" && p.baseURL != ""
}

// Get returns the processed image for a prompt, generating it on first use.
// Concurrent calls for the same key coalesce onto a single generation; the
// cache write is serialized. Only a post-processing defect is an error.
func (p *Provider) Get(ctx context.Context, prompt types.VisualPrompt) (*types.GeneratedImage, error) {
	key := prompt.CacheKey()

	p.mu.Lock()
	if img, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return img, nil
	}
	p.mu.Unlock()

	v, err, _ := p.flight.Do(key, func() (interface{}, error) {
		img, err := p.generate(ctx, prompt)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache[key] = img
		p.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.GeneratedImage), nil
}

// Prefetch warms the cache for every unique prompt, fetching concurrently
// with bounded parallelism. External calls are the run's only natural
// suspension points, so this is where latency is won.
func (p *Provider) Prefetch(ctx context.Context, prompts []types.VisualPrompt) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Images.MaxConcurrency)

	seen := make(map[string]bool)
	for _, prompt := range prompts {
		key := prompt.CacheKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		prompt := prompt
		g.Go(func() error {
			_, err := p.Get(ctx, prompt)
			return err
		})
	}
	return g.Wait()
}

// UniqueImages reports how many distinct images this run has generated.
func (p *Provider) UniqueImages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// generate produces one processed image: external service when configured,
// gradient placeholder otherwise or on exhaustion.
func (p *Provider) generate(ctx context.Context, prompt types.VisualPrompt) (*types.GeneratedImage, error) {
	w, h := p.cfg.Video.Width, p.cfg.Video.Height

	var raw *types.GeneratedImage
	if p.Configured() {
		bitmap, err := p.fetchExternal(ctx, prompt)
		if err != nil {
			log.Printf("[visuals] ⚠️  segment %d: provider gave up (%v) — using placeholder", prompt.SegmentIndex, err)
		} else {
			raw = &types.GeneratedImage{Bitmap: bitmap, Source: types.SourceProvider}
		}
	} else {
		log.Printf("[visuals] no IMAGE_API_KEY — using placeholder for segment %d", prompt.SegmentIndex)
	}
	if raw == nil {
		raw = Placeholder(prompt.Text, w, h)
	}

	return Process(raw, w, h, p.cfg.Images.DarkenFactor)
}

// fetchExternal calls the generation service, retrying while the model warms
// up. Every attempt is bounded by the client timeout.
func (p *Provider) fetchExternal(ctx context.Context, prompt types.VisualPrompt) (image.Image, error) {
	imageURL := fmt.Sprintf(
		"%s/%s?width=%d&height=%d&seed=%d",
		p.baseURL,
		url.PathEscape(prompt.Text),
		p.cfg.Video.Width,
		p.cfg.Video.Height,
		promptSeed(prompt.Text),
	)

	var lastErr error
	for attempt := 1; attempt <= p.cfg.Images.RetryAttempts; attempt++ {
		bitmap, retryable, err := p.downloadImage(ctx, imageURL)
		if err == nil {
			log.Printf("[visuals] ✅ segment %d image generated (attempt %d)", prompt.SegmentIndex, attempt)
			return bitmap, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		log.Printf("[visuals] attempt %d/%d for segment %d: %v", attempt, p.cfg.Images.RetryAttempts, prompt.SegmentIndex, err)
		if attempt < p.cfg.Images.RetryAttempts {
			select {
			case <-time.After(p.cfg.ImageRetryDelay()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", p.cfg.Images.RetryAttempts, lastErr)
}

// downloadImage performs one generation request. retryable marks "not ready"
// responses (warm-up) and transport errors; malformed payloads are not worth
// retrying.
func (p *Provider) downloadImage(ctx context.Context, imageURL string) (img image.Image, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("User-Agent", "shortform-pipeline/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, true, fmt.Errorf("provider not ready (HTTP %d)", resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// bad credential or bad request; retrying cannot help
		return nil, false, fmt.Errorf("HTTP %d from image provider", resp.StatusCode)
	default:
		return nil, true, fmt.Errorf("HTTP %d from image provider", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if len(data) < 100 {
		// likely an error page, not an image
		return nil, true, fmt.Errorf("response too small (%d bytes)", len(data))
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}
	return decoded, false, nil
}

// promptSeed derives a stable generation seed from the prompt so re-renders
// of the same script reproduce the same imagery.
func promptSeed(prompt string) uint32 {
	return placeholderHash(prompt)
}
