package deps

import (
	"time"

	"github.com/dlemaire/pulse/internal/keepalive"
	"github.com/dlemaire/pulse/internal/logger"
	redisstore "github.com/dlemaire/pulse/internal/store/redis"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	APIKey       string   // static shared secret for the keepalive endpoints
	AllowedHosts []string // Host headers allowed to access the server
	AllowedCIDRS []string // IPs allowed to access maintenance/health endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	PingBurst        int // rate limit burst for /ping
	PingRefillPerMin int // rate limit refill per IP per minute for /ping

	Store       *redisstore.Store
	Recorder    *keepalive.Recorder
	Aggregator  *keepalive.Aggregator
	Maintenance *keepalive.Maintenance
}
