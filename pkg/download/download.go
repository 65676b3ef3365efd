// Package download retrieves files over HTTP with integrity verification.
//
// A download streams to a ".partial" file next to the final destination and
// is renamed into place only after the length and secure hash checks pass, so
// an interrupted or corrupt transfer never replaces a complete file.
package download

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmezou/lappupdate/pkg/logging"
	"github.com/fmezou/lappupdate/pkg/retry"
	"github.com/fmezou/lappupdate/pkg/version"
)

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 30 * time.Second

var defaultRetry = retry.Config{MaxRetries: 3, InitialInterval: time.Second, Multiplier: 2.0}

// Options tunes a download. The zero value downloads without any expectation
// checks using sha256.
type Options struct {
	// ExpectedLength makes the pre and post length checks fail when the
	// resource size differs. Zero or negative disables the check.
	ExpectedLength int64
	// ExpectedType makes the Content-Type pre-check fail on mismatch. Empty
	// disables the check.
	ExpectedType string
	// HashAlgo selects the secure hash computed while writing: "sha256"
	// (default), "sha1" or "md5".
	HashAlgo string
	// ExpectedHash is the expected hex digest. Empty skips the hash check;
	// the digest is still computed and reported.
	ExpectedHash string
	// Client overrides the HTTP client.
	Client *http.Client
	// Retry overrides the retry policy.
	Retry *retry.Config
	// Progress, when set, is called as data arrives with the number of bytes
	// received so far and the expected total (-1 when the server does not
	// report one).
	Progress func(received, expected int64)
}

// Result describes a completed download.
type Result struct {
	Filename  string // final path of the retrieved file
	Length    int64  // number of bytes written
	HashAlgo  string
	HashValue string // hex digest of the file content
	MIMEType  string // Content-Type reported by the server, may be empty
}

// Fetch retrieves rawurl into dir and returns the verification result. The
// file name is taken from the Content-Disposition header when the server
// provides one, from the URL path otherwise. Transient failures are retried
// with exponential backoff; HTTP client errors (4xx) are not retried.
func Fetch(ctx context.Context, rawurl, dir string) (*Result, error) {
	return FetchWithOptions(ctx, rawurl, dir, Options{})
}

// FetchWithOptions is Fetch with explicit verification options.
func FetchWithOptions(ctx context.Context, rawurl, dir string, opts Options) (*Result, error) {
	if rawurl == "" {
		return nil, fmt.Errorf("url cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create the destination directory: %w", err)
	}

	policy := defaultRetry
	if opts.Retry != nil {
		policy = *opts.Retry
	}

	var result *Result
	err := retry.Do(ctx, policy, func() error {
		r, err := fetchOnce(ctx, rawurl, dir, opts)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func fetchOnce(ctx context.Context, rawurl, dir string, opts Options) (*Result, error) {
	logging.Info("Starting download", "url", rawurl, "dir", dir)

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, retry.NonRetryable(fmt.Errorf("failed to prepare HTTP request: %w", err))
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected HTTP status code: %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.NonRetryable(err)
		}
		return nil, err
	}

	if err := preCheckLength(resp, opts.ExpectedLength); err != nil {
		return nil, retry.NonRetryable(err)
	}
	mimeType, err := preCheckType(resp, opts.ExpectedType)
	if err != nil {
		return nil, retry.NonRetryable(err)
	}

	name := filenameFromHeaders(resp)
	if name == "" {
		name = filenameFromURL(resp.Request.URL)
	}
	if name == "" {
		return nil, retry.NonRetryable(fmt.Errorf("unable to derive a file name from %q", rawurl))
	}

	dest := filepath.Join(dir, name)
	algo, hasher, err := newHasher(opts.HashAlgo)
	if err != nil {
		return nil, retry.NonRetryable(err)
	}

	partial := dest + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination file: %w", err)
	}

	var src io.Reader = resp.Body
	if opts.Progress != nil {
		src = &progressReader{
			r:        resp.Body,
			expected: resp.ContentLength,
			notify:   opts.Progress,
		}
	}

	length, err := io.Copy(io.MultiWriter(out, hasher), src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(partial)
		return nil, fmt.Errorf("failed to write downloaded data: %w", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	if err := postCheck(length, digest, opts); err != nil {
		_ = os.Remove(partial)
		return nil, retry.NonRetryable(err)
	}

	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return nil, fmt.Errorf("failed to move the retrieved file in place: %w", err)
	}

	logging.Info("Download completed", "file", dest, "length", length, "hash", digest)
	return &Result{
		Filename:  dest,
		Length:    length,
		HashAlgo:  algo,
		HashValue: digest,
		MIMEType:  mimeType,
	}, nil
}

func preCheckLength(resp *http.Response, expected int64) error {
	if expected <= 0 {
		return nil
	}
	if resp.ContentLength < 0 {
		logging.Warn("Content-Length header does not exist, length pre-check skipped")
		return nil
	}
	if resp.ContentLength != expected {
		return fmt.Errorf("unexpected content length: %d received vs. %d expected",
			resp.ContentLength, expected)
	}
	return nil
}

func preCheckType(resp *http.Response, expected string) (string, error) {
	mimeType := resp.Header.Get("Content-Type")
	if expected == "" {
		return mimeType, nil
	}
	if mimeType == "" {
		logging.Warn("Content-Type header does not exist, type pre-check skipped")
		return mimeType, nil
	}
	got, _, err := mime.ParseMediaType(mimeType)
	if err != nil || got != expected {
		return mimeType, fmt.Errorf("unexpected content type: %q received vs. %q expected",
			mimeType, expected)
	}
	return mimeType, nil
}

func postCheck(length int64, digest string, opts Options) error {
	if opts.ExpectedLength > 0 && length != opts.ExpectedLength {
		return fmt.Errorf("unexpected content length: %d received vs. %d expected",
			length, opts.ExpectedLength)
	}
	if opts.ExpectedHash != "" && !strings.EqualFold(digest, opts.ExpectedHash) {
		return fmt.Errorf("unexpected content: %s received vs. %s expected",
			digest, opts.ExpectedHash)
	}
	return nil
}

// progressReader notifies the progress callback as the response body is
// consumed.
type progressReader struct {
	r        io.Reader
	received int64
	expected int64
	notify   func(received, expected int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.received += int64(n)
		p.notify(p.received, p.expected)
	}
	return n, err
}

// filenameFromHeaders extracts the attachment file name from the
// Content-Disposition header (RFC 2183). Any path component is stripped to
// keep the file inside the destination directory.
func filenameFromHeaders(resp *http.Response) string {
	header := resp.Header.Get("Content-Disposition")
	if header == "" {
		return ""
	}
	disposition, params, err := mime.ParseMediaType(header)
	if err != nil || !strings.EqualFold(disposition, "attachment") {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	return filepath.Base(filepath.FromSlash(name))
}

// filenameFromURL derives the file name from the final URL path, after any
// redirects.
func filenameFromURL(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// newHasher returns the canonical algorithm name and a fresh hash state.
func newHasher(algo string) (string, hash.Hash, error) {
	switch strings.ToLower(algo) {
	case "", "sha256":
		return "sha256", sha256.New(), nil
	case "sha1":
		return "sha1", sha1.New(), nil
	case "md5":
		return "md5", md5.New(), nil
	default:
		return "", nil, fmt.Errorf("unsupported hash algorithm: %q", algo)
	}
}

// FileHash returns the hex digest of a file using the given algorithm.
func FileHash(path, algo string) (string, error) {
	_, hasher, err := newHasher(algo)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify reports whether the file content matches the expected hex digest.
func Verify(path, algo, expected string) bool {
	digest, err := FileHash(path, algo)
	if err != nil {
		logging.Error("Failed to hash file", "path", path, "error", err)
		return false
	}
	return strings.EqualFold(digest, expected)
}
