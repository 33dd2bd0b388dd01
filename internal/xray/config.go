package xray

// Config structures for XRay. Field order follows the layout the daemon
// documents, encoding/json keeps struct order when marshaling.
type (
	Config struct {
		Log       LogConfig        `json:"log"`
		Inbounds  []InboundConfig  `json:"inbounds"`
		Outbounds []OutboundConfig `json:"outbounds"`
	}

	LogConfig struct {
		LogLevel string `json:"loglevel"`
	}

	InboundConfig struct {
		Listen   string        `json:"listen"`
		Port     int           `json:"port"`
		Protocol string        `json:"protocol"`
		Settings SocksSettings `json:"settings"`
	}

	SocksSettings struct {
		UDP bool `json:"udp"`
	}

	OutboundConfig struct {
		Protocol       string         `json:"protocol"`
		Settings       VLessSettings  `json:"settings"`
		StreamSettings StreamSettings `json:"streamSettings"`
	}

	VLessSettings struct {
		Vnext []ServerConfig `json:"vnext"`
	}

	ServerConfig struct {
		Address string       `json:"address"`
		Port    int          `json:"port"`
		Users   []UserConfig `json:"users"`
	}

	UserConfig struct {
		ID         string `json:"id"`
		Encryption string `json:"encryption"`
	}

	StreamSettings struct {
		Network     string             `json:"network"`
		Security    string             `json:"security"`
		TCPSettings *TCPSettings       `json:"tcpSettings,omitempty"`
		WSSettings  *WebSocketSettings `json:"wsSettings,omitempty"`
	}

	TCPSettings struct {
		Header TCPHeader `json:"header"`
	}

	TCPHeader struct {
		Type    string       `json:"type"`
		Request *HTTPRequest `json:"request,omitempty"`
	}

	HTTPRequest struct {
		Method  string      `json:"method"`
		Path    []string    `json:"path"`
		Headers HTTPHeaders `json:"headers"`
	}

	// HTTPHeaders is a struct rather than a map so the header order is stable.
	HTTPHeaders struct {
		Host           []string `json:"Host"`
		UserAgent      []string `json:"User-Agent"`
		AcceptEncoding []string `json:"Accept-Encoding"`
		Connection     []string `json:"Connection"`
	}

	WebSocketSettings struct {
		Path    string           `json:"path"`
		Headers WebSocketHeaders `json:"headers"`
	}

	WebSocketHeaders struct {
		Host string `json:"Host"`
	}
)
