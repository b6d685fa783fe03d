package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"influencer/internal/services"
)

// Provider searches a stock photo service for portrait images.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, n int) ([]string, error)
}

// Pexels searches api.pexels.com.
type Pexels struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func (p *Pexels) Name() string { return "pexels" }

// Search returns up to n portrait image URLs.
func (p *Pexels) Search(ctx context.Context, query string, n int) ([]string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(min(n, 80)))
	params.Set("orientation", "portrait")
	var body struct {
		Photos []struct {
			Src struct {
				Portrait string `json:"portrait"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := getJSON(ctx, p.HTTP, p.Name(), strings.TrimRight(p.BaseURL, "/")+"/search?"+params.Encode(), p.APIKey, &body); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(body.Photos))
	for _, photo := range body.Photos {
		if photo.Src.Portrait != "" {
			out = append(out, photo.Src.Portrait)
		}
	}
	return out, nil
}

// Unsplash queries random photos from api.unsplash.com.
type Unsplash struct {
	BaseURL   string
	AccessKey string
	HTTP      *http.Client
}

func (u *Unsplash) Name() string { return "unsplash" }

// Search returns up to n portrait image URLs.
func (u *Unsplash) Search(ctx context.Context, query string, n int) ([]string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("count", strconv.Itoa(min(n, 30)))
	params.Set("orientation", "portrait")
	var body []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	}
	if err := getJSON(ctx, u.HTTP, u.Name(), strings.TrimRight(u.BaseURL, "/")+"/photos/random?"+params.Encode(), "Client-ID "+u.AccessKey, &body); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(body))
	for _, photo := range body {
		if photo.URLs.Regular != "" {
			out = append(out, photo.URLs.Regular)
		}
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, provider, endpoint, auth string, target any) error {
	resp, err := get(ctx, client, provider, endpoint, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrTransient, provider, "decode search", "", err)
	}
	return nil
}

func get(ctx context.Context, client *http.Client, provider, endpoint, auth string) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, provider, "new request", endpoint, err)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return nil, services.Wrap(services.ErrTransient, provider, "request", "network", err)
		}
		return nil, services.Wrap(services.ErrFatal, provider, "request", "", err)
	}
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		resp.Body.Close()
		marker := services.ErrFatal
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, provider, "request", fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}
	return resp, nil
}
