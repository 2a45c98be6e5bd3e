package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

var def *slog.Logger

// Init builds the process logger for cfg and installs it as slog's default.
func Init(cfg Config) *slog.Logger {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "app"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = newInstanceID()
	}

	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(cfg)
	default:
		h = newStdHandler(cfg)
	}

	h = traceHandler{h.WithAttrs([]slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
		slog.Time("started_at", time.Now()),
	})}

	base := slog.New(h)
	slog.SetDefault(base)
	def = base
	return base
}

func L() *slog.Logger {
	if def != nil {
		return def
	}

	return Init(Config{})
}

// newInstanceID tells relay replicas apart in aggregated logs:
// <hostname>-<8 hex chars>.
func newInstanceID() string {
	hn, err := os.Hostname()
	if err != nil || hn == "" {
		hn = "relay"
	}
	return hn + "-" + uuid.NewString()[:8]
}
