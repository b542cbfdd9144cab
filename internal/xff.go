package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/yl2chen/cidranger"
)

var (
	ErrCantSplitHostParse = errors.New("xff: can't split host and port of remote address")
	ErrCantParseRemoteIP  = errors.New("xff: can't parse remote IP")
)

// XFFComputePreferences selects which hops are dropped from X-Forwarded-For
// before the request is passed on.
type XFFComputePreferences struct {
	StripPrivate  bool
	StripLoopback bool
	StripCGNAT    bool
	StripLLU      bool
	Flatten       bool
}

var (
	privateRanger  = mustRanger("10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7")
	loopbackRanger = mustRanger("127.0.0.0/8", "::1/128")
	cgnatRanger    = mustRanger("100.64.0.0/10")
	lluRanger      = mustRanger("169.254.0.0/16", "fe80::/10")
)

func mustRanger(cidrs ...string) cidranger.Ranger {
	ranger := cidranger.NewPCTrieRanger()

	for _, cidr := range cidrs {
		_, rng, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("[unexpected] can't parse %s: %v", cidr, err))
		}

		if err := ranger.Insert(cidranger.NewBasicRangerEntry(*rng)); err != nil {
			panic(fmt.Sprintf("[unexpected] can't insert %s: %v", cidr, err))
		}
	}

	return ranger
}

func in(ranger cidranger.Ranger, ip net.IP) bool {
	ok, err := ranger.Contains(ip)
	return err == nil && ok
}

// XForwardedForUpdate appends the remote address to X-Forwarded-For and
// strips every hop inside the local network. Requests over unix sockets are
// passed on as they are.
func XForwardedForUpdate(next http.Handler) http.Handler {
	pref := XFFComputePreferences{
		StripPrivate:  true,
		StripLoopback: true,
		StripCGNAT:    true,
		StripLLU:      true,
		Flatten:       true,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := computeXFFHeader(r.RemoteAddr, r.Header.Get("X-Forwarded-For"), pref)
		if err != nil {
			slog.Debug("not updating X-Forwarded-For", "remote_addr", r.RemoteAddr, "err", err)
			next.ServeHTTP(w, r)
			return
		}

		if result == "" {
			r.Header.Del("X-Forwarded-For")
		} else {
			r.Header.Set("X-Forwarded-For", result)
		}

		next.ServeHTTP(w, r)
	})
}

func computeXFFHeader(remoteAddr string, origXFFHeader string, pref XFFComputePreferences) (string, error) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCantSplitHostParse, err)
	}

	remoteIP := net.ParseIP(host)
	if remoteIP == nil {
		return "", fmt.Errorf("%w: %q", ErrCantParseRemoteIP, host)
	}

	var hops []string
	for _, hop := range strings.Split(origXFFHeader, ",") {
		if hop = strings.TrimSpace(hop); hop != "" {
			hops = append(hops, hop)
		}
	}
	hops = append(hops, remoteIP.String())

	var kept []string
	for _, hop := range hops {
		ip := net.ParseIP(hop)
		if ip != nil {
			switch {
			case pref.StripPrivate && in(privateRanger, ip),
				pref.StripLoopback && in(loopbackRanger, ip),
				pref.StripCGNAT && in(cgnatRanger, ip),
				pref.StripLLU && in(lluRanger, ip):
				continue
			}
		}

		kept = append(kept, hop)
	}

	if pref.Flatten && len(kept) > 1 {
		kept = kept[len(kept)-1:]
	}

	return strings.Join(kept, ","), nil
}
