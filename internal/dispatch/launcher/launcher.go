package launcher

import (
	"context"

	"github.com/apollosoftdev/mm-processor/internal/model"
)

// Launcher starts one asynchronous scorer task against the destination's
// execution target, fire-and-forget: it returns as soon as the platform
// acknowledges the launch with an opaque task handle. Task completion is
// observed later through the lifecycle event stream.
type Launcher interface {
	Launch(ctx context.Context, cfg model.DestinationConfig, env map[string]string) (string, error)
}
