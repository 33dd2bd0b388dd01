package link

import (
	"net/url"
	"strconv"
	"strings"
	"xray-setup/internal/domain"
)

const Scheme = "vless://"

// Parse decodes a vless:// share-link. The #fragment is a display label and is
// dropped before anything else is looked at.
func Parse(link string) (domain.ParsedLink, error) {
	rest, ok := strings.CutPrefix(link, Scheme)
	if !ok {
		return domain.ParsedLink{}, newFormatError("scheme", "link must start with "+Scheme, nil)
	}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}

	identity, rest, ok := strings.Cut(rest, "@")
	if !ok {
		return domain.ParsedLink{}, newFormatError("identity", "missing '@' separator", nil)
	}
	if identity == "" {
		return domain.ParsedLink{}, newFormatError("identity", "user id is empty", nil)
	}
	if rest == "" {
		return domain.ParsedLink{}, newFormatError("address", "host and port are empty", nil)
	}

	hostPort, rawQuery, _ := strings.Cut(rest, "?")

	address, port, err := splitHostPort(hostPort)
	if err != nil {
		return domain.ParsedLink{}, err
	}

	params := parseQuery(rawQuery)

	return domain.ParsedLink{
		Identity:   identity,
		Address:    address,
		Port:       port,
		Transport:  domain.Transport(lookup(params, "type", string(domain.DefaultTransport))),
		Security:   lookup(params, "security", domain.DefaultSecurity),
		Encryption: lookup(params, "encryption", domain.DefaultEncryption),
		Host:       lookup(params, "host", domain.DefaultHost),
		Path:       lookup(params, "path", domain.DefaultPath),
		HeaderType: lookup(params, "headerType", domain.DefaultHeaderType),
	}, nil
}

func splitHostPort(hostPort string) (string, int, error) {
	i := strings.LastIndexByte(hostPort, ':')
	if i < 0 {
		return "", 0, newFormatError("port", "missing ':' between host and port", nil)
	}

	address := hostPort[:i]
	// IPv6 literals come bracketed: [2001:db8::1]:443
	if strings.HasPrefix(address, "[") && strings.HasSuffix(address, "]") {
		address = address[1 : len(address)-1]
	}
	if address == "" {
		return "", 0, newFormatError("address", "host is empty", nil)
	}

	rawPort := hostPort[i+1:]
	port, err := strconv.ParseUint(rawPort, 10, 16)
	if err != nil {
		return "", 0, newFormatError("port", "not a number in range 1-65535: "+strconv.Quote(rawPort), err)
	}
	if port == 0 {
		return "", 0, newFormatError("port", "port 0 is not allowed", nil)
	}

	return address, int(port), nil
}

// parseQuery splits key=value pairs on '&'. Later duplicates override earlier
// ones; pairs without a value are skipped so that the field keeps its default.
func parseQuery(rawQuery string) map[string]string {
	params := make(map[string]string)
	if rawQuery == "" {
		return params
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || value == "" {
			continue
		}
		params[unescape(key)] = unescape(value)
	}

	return params
}

func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err == nil {
		return decoded
	}

	// Malformed escapes stay as written, the rest still decodes
	s = strings.ReplaceAll(s, "+", " ")
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func lookup(params map[string]string, key, fallback string) string {
	if v, ok := params[key]; ok {
		return v
	}
	return fallback
}
