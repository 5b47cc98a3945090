package stats

import "go.uber.org/fx"

// Module provides the stats repository to Fx.
var Module = fx.Provide(NewRepository)
