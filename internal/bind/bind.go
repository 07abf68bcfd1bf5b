// Package bind resolves the gateway listen address from the configured bind
// mode and the host's tailnet presence.
package bind

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Mode selects how the gateway listen address is chosen.
type Mode string

const (
	ModeLoopback Mode = "loopback"
	ModeLAN      Mode = "lan"
	ModeTailnet  Mode = "tailnet"
	ModeAuto     Mode = "auto"
)

// LoopbackAddr is the address every non-tailnet mode resolves to.
const LoopbackAddr = "127.0.0.1"

// ParseMode normalizes a raw mode string. Empty input defaults to auto.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return ModeAuto, nil
	case "loopback":
		return ModeLoopback, nil
	case "lan":
		return ModeLAN, nil
	case "tailnet":
		return ModeTailnet, nil
	default:
		return "", fmt.Errorf("unknown bind mode: %s", raw)
	}
}

// ResolveAddress maps a bind mode and a detected tailnet IP to the listen
// host. Loopback and lan always resolve to loopback regardless of tailnet
// presence; tailnet and auto use the tailnet IP when there is one and fall
// back to loopback otherwise.
func ResolveAddress(mode Mode, tailnetIP string) string {
	switch mode {
	case ModeTailnet, ModeAuto:
		if ip := strings.TrimSpace(tailnetIP); ip != "" {
			return ip
		}
		return LoopbackAddr
	default:
		return LoopbackAddr
	}
}

// ListenAddr joins the resolved host with the port.
func ListenAddr(mode Mode, tailnetIP string, port int) string {
	return net.JoinHostPort(ResolveAddress(mode, tailnetIP), strconv.Itoa(port))
}

// tailnetCIDR is the CGNAT range tailnets assign addresses from.
var tailnetCIDR = func() *net.IPNet {
	_, block, _ := net.ParseCIDR("100.64.0.0/10")
	return block
}()

// DetectTailnetIP returns the host's tailnet IPv4 address, or "" when the
// host is not on a tailnet.
func DetectTailnetIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}
		if tailnetCIDR.Contains(ip) {
			return ip.String()
		}
	}
	return ""
}
