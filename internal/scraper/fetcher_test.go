package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/michaelzhang78901-alt/freight-tracker/internal/model"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestFetchRouteSuccess(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `<html><body><p>Freightos Baltic Index (FBX01): $2,668.40</p></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(Options{BaseURL: srv.URL, UserAgent: "test-agent", Timeout: time.Second}, noopLogger())

	reading, err := f.FetchRoute(context.Background(), Routes[0])
	if err != nil {
		t.Fatalf("抓取应成功: %v", err)
	}
	if gotPath != "/FBX01" {
		t.Fatalf("应请求路线 slug 页面, 实际 %s", gotPath)
	}
	if gotUA != "test-agent" {
		t.Fatalf("应携带配置的 User-Agent, 实际 %q", gotUA)
	}
	if reading.RouteCode != model.RouteFBX01 {
		t.Fatalf("routeCode 不正确: %s", reading.RouteCode)
	}
	if !reading.Rate.Equal(decimal.RequireFromString("2668.40")) {
		t.Fatalf("期望 2668.40, 实际 %s", reading.Rate)
	}
	if reading.Currency != model.Currency || reading.Unit != model.Unit {
		t.Fatalf("货币与单位应为固定值: %#v", reading)
	}
}

func TestFetchRouteDefaultUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `<p>Freightos Baltic Index: $1,500</p>`)
	}))
	defer srv.Close()

	f := NewFetcher(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := f.FetchRoute(context.Background(), Routes[0]); err != nil {
		t.Fatalf("抓取应成功: %v", err)
	}
	if gotUA != defaultUserAgent {
		t.Fatalf("未配置 UA 时应使用默认浏览器 UA, 实际 %q", gotUA)
	}
}

func TestFetchRouteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := f.FetchRoute(context.Background(), Routes[0]); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("HTTP 503 应映射为 ErrRateNotFound, 实际 %v", err)
	}
}

func TestFetchRouteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	f := NewFetcher(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := f.FetchRoute(context.Background(), Routes[0]); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("网络错误应映射为 ErrRateNotFound, 实际 %v", err)
	}
}

func TestFetchRouteExtractionMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>maintenance page</p></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := f.FetchRoute(context.Background(), Routes[1]); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("提取失败应映射为 ErrRateNotFound, 实际 %v", err)
	}
}

func TestPaceZeroDelayReturnsImmediately(t *testing.T) {
	f := NewFetcher(Options{PacingDelay: 0}, noopLogger())

	start := time.Now()
	f.Pace(context.Background())
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("零延迟不应等待, 实际耗时 %s", elapsed)
	}
}

func TestPaceHonoursContextCancellation(t *testing.T) {
	f := NewFetcher(Options{PacingDelay: time.Minute}, noopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	f.Pace(ctx)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("上下文取消后应立即返回, 实际耗时 %s", elapsed)
	}
}

func TestRoutesAreTheFixedPair(t *testing.T) {
	if len(Routes) != 2 {
		t.Fatalf("应只跟踪两条固定路线, 实际 %d", len(Routes))
	}
	if Routes[0].Code != model.RouteFBX01 || Routes[1].Code != model.RouteFBX11 {
		t.Fatalf("路线顺序应为 FBX01, FBX11: %#v", Routes)
	}
}
