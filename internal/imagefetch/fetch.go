package imagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

var (
	errInvalidReference = errors.New("invalid image reference")
	errTooLarge         = errors.New("too large")
)

// parseReference accepts absolute http(s) URLs with a host.
func parseReference(ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidReference, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidReference, ref)
	}
	return u, nil
}

type download struct {
	data        []byte
	contentType string
}

// probe issues a HEAD request and rejects a declared size above the limit.
// Servers that do not answer HEAD properly are not an error.
func (s *Service) probe(ctx context.Context, u *url.URL) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create head request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil
	}
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 && resp.ContentLength > s.cfg.MaxBytes {
		return fmt.Errorf("%w: declared %d bytes, limit %d", errTooLarge, resp.ContentLength, s.cfg.MaxBytes)
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, u *url.URL, filename string) (download, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return download{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return download{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return download{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return download{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > s.cfg.MaxBytes {
		return download{}, fmt.Errorf("%w: declared %d bytes, limit %d", errTooLarge, resp.ContentLength, s.cfg.MaxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBytes+1))
	if err != nil {
		return download{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return download{}, fmt.Errorf("%w: body exceeds %d bytes", errTooLarge, s.cfg.MaxBytes)
	}

	return download{
		data:        data,
		contentType: contentType(resp.Header.Get("Content-Type"), filename, u, data),
	}, nil
}

// contentType prefers the declared type, then the file extension, then sniffing.
func contentType(declared, filename string, u *url.URL, data []byte) string {
	if mediaType, params, err := mime.ParseMediaType(declared); err == nil && !isGeneric(mediaType) {
		return mime.FormatMediaType(mediaType, params)
	}

	for _, name := range []string{filename, u.Path} {
		if ext := path.Ext(name); ext != "" {
			if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
				return t
			}
		}
	}

	return http.DetectContentType(data)
}

func isGeneric(mediaType string) bool {
	switch mediaType {
	case "", "application/octet-stream", "binary/octet-stream", "application/binary":
		return true
	}
	return false
}
