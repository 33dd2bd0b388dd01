package domain

// Transport is the stream framing requested by a share-link (the "type" parameter).
type Transport string

const (
	TransportTCP       Transport = "tcp"
	TransportWebSocket Transport = "ws"
)

// Defaults applied by the link parser when a parameter is absent.
const (
	DefaultTransport  = TransportTCP
	DefaultSecurity   = "none"
	DefaultEncryption = "none"
	DefaultHost       = ""
	DefaultPath       = "/"
	DefaultHeaderType = "none"
)

// HeaderTypeHTTP enables the HTTP request disguise for tcp transport.
const HeaderTypeHTTP = "http"

// ParsedLink is the typed form of a vless:// share-link.
type ParsedLink struct {
	Identity   string
	Address    string
	Port       int
	Transport  Transport
	Security   string
	Encryption string
	Host       string
	Path       string
	HeaderType string
}
