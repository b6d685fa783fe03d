package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"influencer/internal/fileutil"
	"influencer/internal/logging"
	"influencer/internal/services"
)

// Collector downloads stock images from every configured provider.
type Collector struct {
	Providers []Provider
	HTTP      *http.Client
	Logger    *slog.Logger
}

// NewCollector returns a collector for the given providers.
func NewCollector(client *http.Client, logger *slog.Logger, providers ...Provider) *Collector {
	return &Collector{Providers: providers, HTTP: client, Logger: logging.NewComponentLogger(logger, "images")}
}

// Fetch asks every provider for up to perProvider images matching query and
// saves them into dst. Providers run concurrently; a failing provider is
// logged and skipped. It returns the number of images saved.
func (c *Collector) Fetch(ctx context.Context, query, dst string, perProvider int) (int, error) {
	if len(c.Providers) == 0 || perProvider <= 0 || query == "" {
		return 0, nil
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, services.Wrap(services.ErrStorage, "images", "create images dir", dst, err)
	}
	var saved atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range c.Providers {
		g.Go(func() error {
			n, err := c.fetchOne(gctx, p, query, dst, perProvider)
			saved.Add(int64(n))
			if err != nil {
				logging.WarnWithContext(c.Logger, "stock provider failed", "stock_provider_failed",
					logging.String("provider", p.Name()),
					logging.Int("saved", n),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the provider API key"),
					logging.String(logging.FieldImpact, "item uses library images only"),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(saved.Load()), err
	}
	return int(saved.Load()), ctx.Err()
}

func (c *Collector) fetchOne(ctx context.Context, p Provider, query, dst string, n int) (int, error) {
	urls, err := p.Search(ctx, query, n)
	if err != nil {
		return 0, err
	}
	saved := 0
	for i, u := range urls {
		if i >= n {
			break
		}
		target := filepath.Join(dst, fmt.Sprintf("%s_%02d.jpg", p.Name(), i+1))
		if err := c.download(ctx, p.Name(), u, target); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

func (c *Collector) download(ctx context.Context, provider, url, target string) error {
	resp, err := get(ctx, c.HTTP, provider, url, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, provider, "download", url, err)
	}
	return fileutil.WriteFileAtomic(target, data, 0o644)
}
