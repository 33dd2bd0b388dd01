package xray

import (
	"bytes"
	"fmt"

	"github.com/xtls/xray-core/infra/conf/serial"
)

// Validate runs a rendered document through the daemon's own JSON loader, which
// decodes it and builds the protobuf config the daemon would start with.
func Validate(data []byte) error {
	if _, err := serial.LoadJSONConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("xray rejected the generated config: %w", err)
	}
	return nil
}
