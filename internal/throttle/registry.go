package throttle

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// staleCooldownTTL is how long an idle per-client gate is kept before eviction
const staleCooldownTTL = 10 * time.Minute

// Registry hands out one Cooldown per client key so that one client's
// in-flight verification never throttles another client.
type Registry struct {
	mu        sync.Mutex
	period    time.Duration
	gates     map[string]*Cooldown
	nowFunc   func() time.Time
	lastSweep time.Time
}

func NewRegistry(period time.Duration) *Registry {
	return NewRegistryWithClock(period, time.Now)
}

func NewRegistryWithClock(period time.Duration, now func() time.Time) *Registry {
	return &Registry{
		period:    period,
		gates:     make(map[string]*Cooldown),
		nowFunc:   now,
		lastSweep: now(),
	}
}

// For returns the gate owned by clientKey, creating it on first use
func (r *Registry) For(clientKey string) *Cooldown {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gateLocked(clientKey)
}

// Acquire looks up clientKey's gate and tries to acquire it under the
// registry lock, so a sweep can never evict the gate in between. The gate
// is returned either way for Release or RetryAfter.
func (r *Registry) Acquire(clientKey string) (*Cooldown, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := r.gateLocked(clientKey)
	return gate, gate.TryAcquire()
}

func (r *Registry) gateLocked(clientKey string) *Cooldown {
	now := r.nowFunc()
	if now.Sub(r.lastSweep) > time.Minute {
		r.evictStaleLocked(now)
		r.lastSweep = now
	}

	if gate, ok := r.gates[clientKey]; ok {
		return gate
	}
	gate := NewCooldownWithClock(r.period, r.nowFunc)
	r.gates[clientKey] = gate
	return gate
}

// Len returns the number of tracked clients
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gates)
}

func (r *Registry) evictStaleLocked(now time.Time) {
	for key, gate := range r.gates {
		since, idle := gate.idleSince()
		if idle && now.Sub(since) > staleCooldownTTL {
			delete(r.gates, key)
		}
	}
}

// ClientResolver derives the cooldown key for a request. Forwarding
// headers are honoured only when the direct peer is a trusted proxy.
type ClientResolver struct {
	trusted []*net.IPNet
}

// NewClientResolver parses trustedProxies as IPs or CIDR ranges. With no
// entries every request is keyed by its RemoteAddr.
func NewClientResolver(trustedProxies []string) (*ClientResolver, error) {
	c := &ClientResolver{}
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			c.trusted = append(c.trusted, ipNet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		bits := 8 * net.IPv6len
		if ip4 := ip.To4(); ip4 != nil {
			ip, bits = ip4, 8*net.IPv4len
		}
		c.trusted = append(c.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return c, nil
}

// ClientKey returns the caller's IP. Behind a trusted proxy it is the
// right-most X-Forwarded-For hop that is not itself a trusted proxy, then
// X-Real-IP; otherwise the peer address.
func (c *ClientResolver) ClientKey(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !c.trusts(peer) {
		return peer
	}

	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !c.trusts(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func (c *ClientResolver) trusts(addr string) bool {
	if c == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range c.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
