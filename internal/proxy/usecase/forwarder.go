package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	auditDomain "github.com/allisson/keyguard/internal/audit/domain"
	auditUseCase "github.com/allisson/keyguard/internal/audit/usecase"
	proxyDomain "github.com/allisson/keyguard/internal/proxy/domain"
)

const streamBufferSize = 32 * 1024

// Config holds forwarder configuration.
type Config struct {
	// BaseURL is the upstream provider root, e.g. https://api.openai.com.
	BaseURL string
	// Timeout bounds buffered calls. Streamed calls end when either side closes.
	Timeout time.Duration
}

type forwarder struct {
	config       Config
	client       *http.Client
	auditUseCase auditUseCase.AuditLogUseCase
	logger       *slog.Logger
}

// NewForwarder creates a new Forwarder.
func NewForwarder(
	config Config,
	client *http.Client,
	auditUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) Forwarder {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &forwarder{
		config:       config,
		client:       client,
		auditUseCase: auditUseCase,
		logger:       logger,
	}
}

// attempt accumulates the audit fields of one Forward call.
type attempt struct {
	statusCode   int
	errorSummary string
}

// Forward relays req upstream and records one audit log when it returns.
func (f *forwarder) Forward(ctx context.Context, w http.ResponseWriter, req *proxyDomain.ForwardRequest) error {
	start := time.Now()
	result := &attempt{}
	defer func() { f.audit(ctx, req, start, result) }()

	if req.IsStream() {
		return f.stream(ctx, w, req, result)
	}
	return f.buffered(ctx, w, req, result)
}

func (f *forwarder) newUpstreamRequest(ctx context.Context, req *proxyDomain.ForwardRequest) (*http.Request, error) {
	upstream, err := http.NewRequestWithContext(
		ctx,
		req.Method,
		f.config.BaseURL+req.Endpoint,
		bytes.NewReader(req.Body),
	)
	if err != nil {
		return nil, err
	}
	upstream.Header = req.UpstreamHeader()
	return upstream, nil
}

func (f *forwarder) do(
	ctx context.Context,
	req *proxyDomain.ForwardRequest,
	result *attempt,
) (*http.Response, error) {
	upstream, err := f.newUpstreamRequest(ctx, req)
	if err != nil {
		result.statusCode = http.StatusBadGateway
		result.errorSummary = "invalid upstream request: " + err.Error()
		return nil, proxyDomain.ErrUpstreamUnavailable
	}

	resp, err := f.client.Do(upstream)
	if err != nil {
		result.statusCode = http.StatusBadGateway
		result.errorSummary = "upstream unreachable: " + err.Error()
		f.logger.Warn("upstream request failed",
			slog.String("endpoint", req.Endpoint),
			slog.Any("error", err),
		)
		return nil, proxyDomain.ErrUpstreamUnavailable
	}
	return resp, nil
}

// buffered performs one bounded upstream call and relays status, content type and body.
func (f *forwarder) buffered(
	ctx context.Context,
	w http.ResponseWriter,
	req *proxyDomain.ForwardRequest,
	result *attempt,
) error {
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	resp, err := f.do(ctx, req, result)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.statusCode = http.StatusBadGateway
		result.errorSummary = "failed to read upstream response: " + err.Error()
		return proxyDomain.ErrUpstreamUnavailable
	}

	result.statusCode = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		result.errorSummary = fmt.Sprintf("upstream returned %d", resp.StatusCode)
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		result.errorSummary = "client write failed: " + err.Error()
	}
	return nil
}

// stream pipes the upstream event stream to w, flushing after every chunk. Error statuses
// are relayed like a buffered response since they carry no event stream.
func (f *forwarder) stream(
	ctx context.Context,
	w http.ResponseWriter,
	req *proxyDomain.ForwardRequest,
	result *attempt,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := f.do(ctx, req, result)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	result.statusCode = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		result.errorSummary = fmt.Sprintf("upstream returned %d", resp.StatusCode)
		if contentType := resp.Header.Get("Content-Type"); contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
		return nil
	}

	controller := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(resp.StatusCode)
	if err := controller.Flush(); err != nil {
		result.errorSummary = "client flush failed: " + err.Error()
		return nil
	}

	buf := make([]byte, streamBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				result.errorSummary = "client disconnected: " + err.Error()
				return nil
			}
			if err := controller.Flush(); err != nil {
				result.errorSummary = "client disconnected: " + err.Error()
				return nil
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				result.errorSummary = "upstream stream interrupted: " + readErr.Error()
			}
			return nil
		}
	}
}

func (f *forwarder) audit(ctx context.Context, req *proxyDomain.ForwardRequest, start time.Time, result *attempt) {
	outcome := auditDomain.OutcomeSuccess
	if result.errorSummary != "" {
		outcome = auditDomain.OutcomeFailure
	}

	deviceID := req.DeviceID
	f.auditUseCase.Record(ctx, &auditDomain.AuditLog{
		RequestID:    req.RequestID,
		ProjectID:    req.ProjectID,
		DeviceID:     &deviceID,
		Endpoint:     req.Endpoint,
		Method:       req.Method,
		StatusCode:   result.statusCode,
		LatencyMs:    time.Since(start).Milliseconds(),
		Outcome:      outcome,
		ErrorSummary: truncate(result.errorSummary, 512),
	})
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
