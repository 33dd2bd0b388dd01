package xray

import (
	"fmt"
	"xray-setup/internal/domain"
)

// UnsupportedTransportError is returned for a transport without a stream
// settings builder.
type UnsupportedTransportError struct {
	Transport domain.Transport
}

func (e *UnsupportedTransportError) Error() string {
	return fmt.Sprintf("unsupported transport: %q (supported: %s, %s)",
		string(e.Transport), domain.TransportTCP, domain.TransportWebSocket)
}
