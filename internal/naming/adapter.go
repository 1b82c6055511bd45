package naming

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	defaultCallTimeout = 20 * time.Second
	defaultRetries     = 1
	cacheSize          = 512
)

// Adapter resolves candidate names through an optional external namer
// with bounded retries, falling back to the deterministic namer on any
// failure. Names are unique within one adapter's lifetime; reuse one
// adapter per run.
type Adapter struct {
	external    Namer
	fallback    *FallbackNamer
	cache       *lru.Cache[string, Result]
	assigned    map[string]bool
	callTimeout time.Duration
	retries     int
	log         *zap.Logger
}

type AdapterOption func(*Adapter)

func WithCallTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.callTimeout = d
		}
	}
}

func WithRetries(n int) AdapterOption {
	return func(a *Adapter) {
		if n >= 0 {
			a.retries = n
		}
	}
}

// NewAdapter builds an adapter around external, which may be nil to
// force fallback naming.
func NewAdapter(external Namer, log *zap.Logger, opts ...AdapterOption) *Adapter {
	cache, _ := lru.New[string, Result](cacheSize)
	a := &Adapter{
		external:    external,
		fallback:    NewFallbackNamer(),
		cache:       cache,
		assigned:    make(map[string]bool),
		callTimeout: defaultCallTimeout,
		retries:     defaultRetries,
		log:         log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reserve marks names as taken before any candidate is resolved.
// Callers pass the model's existing class names so a generated name can
// never shadow a concrete class.
func (a *Adapter) Reserve(names ...string) {
	for _, name := range names {
		a.assigned[name] = true
	}
}

// Resolve names one candidate. It never returns an error: external
// failures degrade to the fallback namer, and collisions with already
// assigned names get a numeric suffix.
func (a *Adapter) Resolve(ctx context.Context, req Request) Result {
	key := cacheKey(req)
	if cached, ok := a.cache.Get(key); ok {
		return a.claim(cached)
	}

	res := a.resolveFresh(ctx, req)
	a.cache.Add(key, res)
	return a.claim(res)
}

func (a *Adapter) resolveFresh(ctx context.Context, req Request) Result {
	if a.external != nil {
		for attempt := 0; attempt <= a.retries; attempt++ {
			name, err := a.callExternal(ctx, req)
			if err == nil {
				return Result{Name: name, Confidence: externalConfidence, Source: SourceExternal}
			}
			a.log.Warn("external naming failed",
				zap.Int("attempt", attempt+1),
				zap.Strings("extent", req.Extent),
				zap.Error(err),
			)
		}
	}

	name, _ := a.fallback.Name(ctx, req)
	return Result{Name: name, Confidence: fallbackConfidence, Source: SourceFallback}
}

func (a *Adapter) callExternal(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	return a.external.Name(callCtx, req)
}

// claim reserves the name within the run, suffixing on collision.
func (a *Adapter) claim(res Result) Result {
	name := res.Name
	for suffix := 2; a.assigned[name]; suffix++ {
		name = fmt.Sprintf("%s%d", res.Name, suffix)
	}
	a.assigned[name] = true
	res.Name = name
	return res
}

func cacheKey(req Request) string {
	extent := append([]string(nil), req.Extent...)
	intent := append([]string(nil), req.Intent...)
	sort.Strings(extent)
	sort.Strings(intent)
	return strings.Join(extent, ",") + "|" + strings.Join(intent, ",")
}
