package system

import (
	"go.uber.org/fx"
)

// Module provides the service manager. The CommandRunner is supplied by the
// application so tests can swap it.
var Module = fx.Options(
	fx.Provide(NewSystemd),
	fx.Provide(func(s *Systemd) ServiceManager { return s }),
)
