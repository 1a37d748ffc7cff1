package grpc

import (
	"context"
	"net"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/grpc/peer"
)

// maxTrackedPeers bounds the limiter table; it is reset when full.
const maxTrackedPeers = 10000

// peerLimiter keeps one token bucket per remote host.
type peerLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newPeerLimiter(limit rate.Limit, burst int) *peerLimiter {
	if burst < 1 {
		burst = 1
	}
	return &peerLimiter{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (p *peerLimiter) Allow(ctx context.Context) bool {
	if p == nil || p.limit <= 0 {
		return true
	}

	key := peerHost(ctx)

	p.mu.Lock()
	l, ok := p.limiters[key]
	if !ok {
		if len(p.limiters) >= maxTrackedPeers {
			p.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = l
	}
	p.mu.Unlock()

	return l.Allow()
}

func peerHost(ctx context.Context) string {
	pr, ok := peer.FromContext(ctx)
	if !ok || pr.Addr == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(pr.Addr.String())
	if err != nil {
		return pr.Addr.String()
	}
	return host
}
