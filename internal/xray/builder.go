package xray

import (
	"bytes"
	"encoding/json"
	"fmt"
	"xray-setup/internal/domain"
)

const (
	LogLevel           = "warning"
	SocksListenAddress = "127.0.0.1"
	SocksListenPort    = 10808
)

// Fixed values of the HTTP request disguise.
const (
	disguiseMethod         = "GET"
	disguisePath           = "/"
	disguiseUserAgent      = "Mozilla/5.0"
	disguiseAcceptEncoding = "gzip, deflate"
	disguiseConnection     = "keep-alive"
)

// SocksProxyURL returns the URL of the local SOCKS inbound, e.g.
// socks5h://127.0.0.1:10808.
func SocksProxyURL(scheme string) string {
	return fmt.Sprintf("%s://%s:%d", scheme, SocksListenAddress, SocksListenPort)
}

// BuildStreamSettings returns the transport part of the outbound.
func BuildStreamSettings(l domain.ParsedLink) (StreamSettings, error) {
	stream := StreamSettings{
		Network:  string(l.Transport),
		Security: l.Security,
	}

	switch l.Transport {
	case domain.TransportTCP:
		// Any header type other than http means plain TCP
		if l.HeaderType == domain.HeaderTypeHTTP {
			stream.TCPSettings = &TCPSettings{
				Header: TCPHeader{
					Type: domain.HeaderTypeHTTP,
					Request: &HTTPRequest{
						Method: disguiseMethod,
						Path:   []string{disguisePath},
						Headers: HTTPHeaders{
							Host:           []string{l.Host},
							UserAgent:      []string{disguiseUserAgent},
							AcceptEncoding: []string{disguiseAcceptEncoding},
							Connection:     []string{disguiseConnection},
						},
					},
				},
			}
		}

	case domain.TransportWebSocket:
		stream.WSSettings = &WebSocketSettings{
			Path: l.Path,
			Headers: WebSocketHeaders{
				Host: l.Host,
			},
		}

	default:
		return StreamSettings{}, &UnsupportedTransportError{Transport: l.Transport}
	}

	return stream, nil
}

// BuildConfig assembles the whole daemon document: a local SOCKS inbound and a
// single vless outbound.
func BuildConfig(l domain.ParsedLink) (*Config, error) {
	streamSettings, err := BuildStreamSettings(l)
	if err != nil {
		return nil, err
	}

	return &Config{
		Log: LogConfig{
			LogLevel: LogLevel,
		},
		Inbounds: []InboundConfig{
			{
				Listen:   SocksListenAddress,
				Port:     SocksListenPort,
				Protocol: "socks",
				Settings: SocksSettings{UDP: true},
			},
		},
		Outbounds: []OutboundConfig{
			{
				Protocol: "vless",
				Settings: VLessSettings{
					Vnext: []ServerConfig{
						{
							Address: l.Address,
							Port:    l.Port,
							Users: []UserConfig{
								{
									ID:         l.Identity,
									Encryption: l.Encryption,
								},
							},
						},
					},
				},
				StreamSettings: streamSettings,
			},
		},
	}, nil
}

// Marshal renders cfg as 2-space indented JSON followed by a newline.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateConfig builds and renders the document for l. On error nothing is
// returned.
func GenerateConfig(l domain.ParsedLink) ([]byte, error) {
	cfg, err := BuildConfig(l)
	if err != nil {
		return nil, err
	}
	return Marshal(cfg)
}
