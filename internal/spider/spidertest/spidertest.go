// Package spidertest provides fakes for exercising spiders without a network.
package spidertest

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

// Route is a canned response for requests whose URL contains Match.
// An empty Match matches every request.
type Route struct {
	Match  string
	Body   string
	Status int
	Err    error
}

// Fetcher is a fake fetch.Fetcher that serves routes in declaration order
// and records every request it sees.
type Fetcher struct {
	mu       sync.Mutex
	routes   []Route
	requests []fetch.Request
}

// NewFetcher creates a Fetcher serving routes.
func NewFetcher(routes ...Route) *Fetcher {
	return &Fetcher{routes: routes}
}

// Fetch implements fetch.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fetch.ClassifyNetworkError(err, req.URL)
	}

	target, _ := fetch.BuildURL(req.URL, req.Query)

	for _, r := range f.routes {
		if r.Match != "" && !strings.Contains(target, r.Match) {
			continue
		}
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Status >= 300 {
			return nil, fetch.ClassifyHTTPStatus(r.Status, target)
		}
		return &fetch.Response{StatusCode: 200, Body: []byte(r.Body), URL: target}, nil
	}

	return nil, fetch.ClassifyHTTPStatus(404, target)
}

// Calls returns the number of requests made.
func (f *Fetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of the recorded requests.
func (f *Fetcher) Requests() []fetch.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fetch.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Now is the fixed clock used across spider tests.
var Now = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

// Logger returns a logger whose entries are captured for assertions.
func Logger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewFromZap(zap.New(core)), logs
}

// Deps builds spider dependencies around f with a pinned clock.
func Deps(f fetch.Fetcher) (spider.Deps, *observer.ObservedLogs) {
	log, logs := Logger()
	return spider.Deps{
		Fetcher: f,
		Config:  spider.StaticConfig(nil),
		Logger:  log,
		Now:     func() time.Time { return Now },
	}, logs
}
