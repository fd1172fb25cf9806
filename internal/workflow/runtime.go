package workflow

import (
	"log/slog"

	"github.com/plantline/reckon/pkg/storage"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure systems.
type Runtime struct {
	Agent   gaconfig.AgentConfig
	Storage storage.System
	Logger  *slog.Logger
}
