package link

import (
	"errors"
	"testing"
	"xray-setup/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expectError bool
		errField    string
		validate    func(*testing.T, domain.ParsedLink)
	}{
		{
			name: "Websocket link with host and encoded path",
			url:  "vless://abc-123@example.com:443?type=ws&host=cdn.example.com&path=%2Fws",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "abc-123", p.Identity)
				assert.Equal(t, "example.com", p.Address)
				assert.Equal(t, 443, p.Port)
				assert.Equal(t, domain.TransportWebSocket, p.Transport)
				assert.Equal(t, "cdn.example.com", p.Host)
				assert.Equal(t, "/ws", p.Path)
			},
		},
		{
			name: "No query uses defaults",
			url:  "vless://abc-123@1.2.3.4:80",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, domain.ParsedLink{
					Identity:   "abc-123",
					Address:    "1.2.3.4",
					Port:       80,
					Transport:  domain.TransportTCP,
					Security:   "none",
					Encryption: "none",
					Host:       "",
					Path:       "/",
					HeaderType: "none",
				}, p)
			},
		},
		{
			name: "HTTP header disguise on default transport",
			url:  "vless://abc-123@1.2.3.4:80?headerType=http&host=x.com",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, domain.TransportTCP, p.Transport)
				assert.Equal(t, "http", p.HeaderType)
				assert.Equal(t, "x.com", p.Host)
			},
		},
		{
			name: "Security and encryption are passed through",
			url:  "vless://id@example.com:443?security=tls&encryption=mlkem768x25519plus",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "tls", p.Security)
				assert.Equal(t, "mlkem768x25519plus", p.Encryption)
			},
		},
		{
			name: "Unsupported transport is still parsed",
			url:  "vless://abc-123@example.com:443?type=grpc",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, domain.Transport("grpc"), p.Transport)
			},
		},
		{
			name: "Fragment is ignored",
			url:  "vless://abc-123@example.com:443?type=ws&path=%2Fa#My%20Server?type=tcp&path=/b",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, domain.TransportWebSocket, p.Transport)
				assert.Equal(t, "/a", p.Path)
			},
		},
		{
			name: "Fragment containing separators is ignored",
			url:  "vless://abc-123@example.com:443#label@with:colons",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "example.com", p.Address)
				assert.Equal(t, 443, p.Port)
			},
		},
		{
			name: "Duplicate keys keep the last value",
			url:  "vless://abc-123@example.com:443?host=a.com&host=b.com",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "b.com", p.Host)
			},
		},
		{
			name: "Empty values fall back to defaults",
			url:  "vless://abc-123@example.com:443?path=&type=&flag",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "/", p.Path)
				assert.Equal(t, domain.TransportTCP, p.Transport)
			},
		},
		{
			name: "Plus decodes to space",
			url:  "vless://abc-123@example.com:443?path=/a+b",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "/a b", p.Path)
			},
		},
		{
			name: "Malformed escape still decodes plus",
			url:  "vless://id@h:1?path=a+b%zz&type=ws",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "a b%zz", p.Path)
				assert.Equal(t, domain.TransportWebSocket, p.Transport)
			},
		},
		{
			name: "Valid escapes decode next to malformed ones",
			url:  "vless://id@h:1?path=%2Fws%zz%41%4",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "/ws%zzA%4", p.Path)
			},
		},
		{
			name: "Split on first at sign",
			url:  "vless://abc-123@example.com:443?path=/user@host",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "abc-123", p.Identity)
				assert.Equal(t, "/user@host", p.Path)
			},
		},
		{
			name: "Bracketed IPv6 address",
			url:  "vless://abc-123@[2001:db8::1]:8443",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, "2001:db8::1", p.Address)
				assert.Equal(t, 8443, p.Port)
			},
		},
		{
			name: "Upper port bound",
			url:  "vless://abc-123@example.com:65535",
			validate: func(t *testing.T, p domain.ParsedLink) {
				assert.Equal(t, 65535, p.Port)
			},
		},
		{
			name:        "Missing scheme prefix",
			url:         "vless//bad",
			expectError: true,
			errField:    "scheme",
		},
		{
			name:        "Other scheme",
			url:         "trojan://password@example.com:443",
			expectError: true,
			errField:    "scheme",
		},
		{
			name:        "Missing at separator",
			url:         "vless://example.com:443",
			expectError: true,
			errField:    "identity",
		},
		{
			name:        "Empty identity",
			url:         "vless://@example.com:443",
			expectError: true,
			errField:    "identity",
		},
		{
			name:        "Empty host part",
			url:         "vless://abc-123@",
			expectError: true,
			errField:    "address",
		},
		{
			name:        "Missing port",
			url:         "vless://abc-123@example.com?type=ws",
			expectError: true,
			errField:    "port",
		},
		{
			name:        "Empty address",
			url:         "vless://abc-123@:443",
			expectError: true,
			errField:    "address",
		},
		{
			name:        "Non numeric port",
			url:         "vless://abc-123@example.com:https",
			expectError: true,
			errField:    "port",
		},
		{
			name:        "Port zero",
			url:         "vless://abc-123@example.com:0",
			expectError: true,
			errField:    "port",
		},
		{
			name:        "Port above range",
			url:         "vless://abc-123@example.com:65536",
			expectError: true,
			errField:    "port",
		},
		{
			name:        "Negative port",
			url:         "vless://abc-123@example.com:-1",
			expectError: true,
			errField:    "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.url)
			if tt.expectError {
				require.Error(t, err)
				var formatErr *FormatError
				require.True(t, errors.As(err, &formatErr), "expected FormatError, got %T", err)
				assert.Equal(t, tt.errField, formatErr.Field)
				assert.Equal(t, domain.ParsedLink{}, parsed)
				return
			}

			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, parsed)
			}
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	const link = "vless://abc-123@example.com:443?type=ws&security=tls&host=cdn.example.com&path=%2Fws#label"

	first, err := Parse(link)
	require.NoError(t, err)
	second, err := Parse(link)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseFragmentNeverAffectsFields(t *testing.T) {
	const base = "vless://abc-123@example.com:443?type=ws&host=h.example.com"

	want, err := Parse(base)
	require.NoError(t, err)

	for _, label := range []string{"", "x", "%F0%9F%87%A9%F0%9F%87%AA", "a#b", "?type=tcp", "@evil:1"} {
		got, err := Parse(base + "#" + label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}
}

func TestFormatErrorMessage(t *testing.T) {
	_, err := Parse("vless//bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid vless link")
	assert.Contains(t, err.Error(), "vless://")
}
