package platform

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

// DefaultWifiInterface is the usual Wi-Fi interface name on Android.
const DefaultWifiInterface = "wlan0"

// unknownSSID is what Android reports when location permission hides the
// network name.
const unknownSSID = "<unknown ssid>"

// interfaceState is the part of net.Interface WifiInfo needs.
type interfaceState struct {
	up    bool
	addrs []net.Addr
}

// interfaceLookup is injectable for tests; the default reads the kernel's
// interface table.
type interfaceLookup func(name string) (interfaceState, error)

// WifiInfo resolves connectivity for a single Wi-Fi interface: the IPv4
// address comes from the interface table, the network name from iw.
type WifiInfo struct {
	iface  string
	runner Runner
	lookup interfaceLookup
}

// NewWifiInfo creates a provider for iface.
func NewWifiInfo(iface string, runner Runner) *WifiInfo {
	return &WifiInfo{iface: iface, runner: runner, lookup: lookupInterface}
}

func lookupInterface(name string) (interfaceState, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return interfaceState{}, err
	}

	addrs, err := ifi.Addrs()
	if err != nil {
		return interfaceState{}, err
	}

	return interfaceState{up: ifi.Flags&net.FlagUp != 0, addrs: addrs}, nil
}

// Connectivity reports Connected{address, SSID} when the interface is up,
// has an IPv4 address, and is associated. A missing interface is treated as
// not connected rather than as an error.
func (w *WifiInfo) Connectivity(ctx context.Context) (monitor.ConnectivityInfo, error) {
	state, err := w.lookup(w.iface)
	if err != nil {
		return monitor.NotConnected(), nil //nolint:nilerr // absent interface means no Wi-Fi
	}

	if !state.up {
		return monitor.NotConnected(), nil
	}

	addr := firstIPv4(state.addrs)
	if addr == "" {
		return monitor.NotConnected(), nil
	}

	label, associated, err := w.ssid(ctx)
	if err != nil {
		// iw missing or failing: the address is still useful on its own.
		return monitor.Connected(addr, w.iface), nil //nolint:nilerr // degrade to interface name
	}

	if !associated {
		return monitor.NotConnected(), nil
	}

	return monitor.Connected(addr, label), nil
}

// ssid asks iw for the current link. It returns the normalized network name
// and whether the interface is associated at all.
func (w *WifiInfo) ssid(ctx context.Context) (string, bool, error) {
	out, err := w.runner.Run(ctx, "iw", "dev", w.iface, "link")
	if err != nil {
		return "", false, fmt.Errorf("platform: reading link for %s: %w", w.iface, err)
	}

	return parseIwLink(string(out), w.iface)
}

// parseIwLink extracts the SSID from `iw dev <if> link` output.
func parseIwLink(out, fallback string) (string, bool, error) {
	if strings.HasPrefix(strings.TrimSpace(out), "Not connected") {
		return "", false, nil
	}

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)

		raw, ok := strings.CutPrefix(trimmed, "SSID:")
		if !ok {
			continue
		}

		label := NormalizeLabel(unescapeIw(strings.TrimSpace(raw)))
		if label == "" {
			label = fallback
		}

		return label, true, nil
	}

	// Associated but no SSID line (hidden network).
	return fallback, true, nil
}

// NormalizeLabel strips the quotes Android puts around SSIDs, maps the
// unknown-SSID placeholder to empty, and converts to NFC so that visually
// identical names compare and render the same.
func NormalizeLabel(s string) string {
	s = strings.TrimSpace(s)

	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}

	if s == unknownSSID {
		return ""
	}

	return norm.NFC.String(s)
}

// unescapeIw decodes the \xNN escapes iw uses for non-printable and
// non-ASCII SSID bytes.
func unescapeIw(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3

				continue
			}
		}

		b.WriteByte(s[i])
	}

	return b.String()
}

// firstIPv4 returns the first non-loopback IPv4 address in addrs.
func firstIPv4(addrs []net.Addr) string {
	for _, a := range addrs {
		var ip net.IP

		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}

		if ip == nil || ip.IsLoopback() {
			continue
		}

		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}

	return ""
}
