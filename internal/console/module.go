package console

import "go.uber.org/fx"

// Module provides the Controller. Streams and PrivilegeCheck come from the
// application.
var Module = fx.Options(
	fx.Provide(NewController),
)
