// Package docservice relays Word documents to an external conversion service
// and checks that what comes back is a readable PDF.
package docservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
)

func init() {
	// pdfcpu would otherwise create a user config dir on first use.
	api.DisableConfigDir()
}

// maxResponseSize bounds the PDF read back from the service.
const maxResponseSize = 64 << 20

type Options struct {
	URL string
	// Timeout applies to each attempt, Deadline to the whole call including
	// retries. Zero disables either.
	Timeout        time.Duration
	Deadline       time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	// RequestsPerSecond limits outbound calls; 0 means unlimited.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type Client struct {
	url         string
	httpClient  *http.Client
	timeout     time.Duration
	deadline    time.Duration
	maxAttempts int
	baseDelay   time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Client {
	c := &Client{
		url:         opts.URL,
		httpClient:  opts.HTTPClient,
		timeout:     opts.Timeout,
		deadline:    opts.Deadline,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.RetryBaseDelay,
		logger:      logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Configured reports whether a service address was supplied.
func (c *Client) Configured() bool { return c.url != "" }

// Convert posts doc to the service and returns the PDF it produced together
// with its page count.
func (c *Client) Convert(ctx context.Context, doc []byte) ([]byte, int, error) {
	if !c.Configured() {
		return nil, 0, entities.ErrServiceNotConfigured
	}
	if c.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}

	var (
		body []byte
		err  error
	)
	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, 0, entities.NewError(entities.KindUpstreamFailure, "Conversion service request aborted", err)
			}
		}

		var retry bool
		body, retry, err = c.do(ctx, doc)
		if err == nil {
			break
		}

		c.logger.Warn("conversion service attempt failed",
			zap.Int("attempt", attempt),
			zap.Bool("retryable", retry),
			zap.Error(err),
		)
		if !retry || attempt >= c.maxAttempts || ctx.Err() != nil {
			return nil, 0, err
		}

		timer := time.NewTimer(c.backoffDelay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, 0, entities.NewError(entities.KindUpstreamFailure, "Conversion service request aborted", ctx.Err())
		}
	}

	pages, err := PageCount(body)
	if err != nil {
		return nil, 0, entities.NewError(entities.KindUpstreamFailure, "Conversion service returned an invalid PDF", err)
	}
	return body, pages, nil
}

// do runs a single attempt. The bool reports whether a failure is worth
// another attempt.
func (c *Client) do(ctx context.Context, doc []byte) ([]byte, bool, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(doc))
	if err != nil {
		return nil, false, entities.NewError(entities.KindUpstreamFailure, "Invalid conversion service address", err)
	}
	req.Header.Set("Content-Type", entities.MimeDOCX)
	req.Header.Set("Accept", entities.MimePDF)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A cancelled caller is final; a timed out attempt is not.
		retry := !errors.Is(err, context.Canceled)
		return nil, retry, entities.NewError(entities.KindUpstreamFailure, "Conversion service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, true, entities.NewError(entities.KindUpstreamFailure, "Failed to read conversion service response", err)
	}

	c.logger.Debug("conversion service responded",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode >= 500, entities.Errorf(entities.KindUpstreamFailure,
			"Conversion service responded with status %d", resp.StatusCode)
	}

	if mt := mimetype.Detect(body); !mt.Is(entities.MimePDF) {
		return nil, false, entities.Errorf(entities.KindUpstreamFailure,
			"Conversion service returned %s instead of a PDF", mt.String())
	}
	return body, false, nil
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.baseDelay << (attempt - 1)
	jitter := delay / 10
	if jitter <= 0 {
		return delay
	}
	return delay - jitter/2 + time.Duration(rand.Int63n(int64(jitter)))
}

// PageCount parses b as a PDF and returns its number of pages.
func PageCount(b []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(b), conf)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}
