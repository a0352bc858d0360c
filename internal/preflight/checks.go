package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"teko/internal/config"
	"teko/internal/services"
	"teko/internal/services/discogs"
)

// discogsProbeQuery is a cheap search used to validate the token.
const discogsProbeQuery = "Kind of Blue"

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase pings the collection database.
func CheckDatabase(ctx context.Context, path string, store Pinger) Result {
	const name = "Collection database"
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDiscogs runs one search to confirm the API is reachable and the token
// is accepted.
func CheckDiscogs(ctx context.Context, cfg *config.Config, catalog discogs.Catalog) Result {
	const name = "Discogs"
	if err := cfg.RequireDiscogs(); err != nil || catalog == nil {
		return Result{Name: name, Detail: "token missing (set DISCOGS_TOKEN)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := catalog.SearchMasters(checkCtx, discogsProbeQuery, 1); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckVision only confirms a key is configured; probing the model would
// spend tokens.
func CheckVision(cfg *config.Config) Result {
	const name = "Vision model"
	if err := cfg.RequireVision(); err != nil {
		return Result{Name: name, Detail: "API key missing (set TEKO_VISION_API_KEY)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s via %s", cfg.Vision.Model, cfg.Vision.BaseURL)}
}

type healthBody struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	OpenRuns int    `json:"openRuns"`
}

// CheckDaemon queries the health endpoint of a daemon listening on bind.
func CheckDaemon(ctx context.Context, bind string) Result {
	const name = "Daemon"
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return Result{Name: name, Detail: "api_bind not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, "http://"+bind+"/api/health", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not running on %s", bind)}
	}
	defer resp.Body.Close()

	var body healthBody
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("%s on %s (%d)", firstNonEmpty(body.Status, "unhealthy"), bind, resp.StatusCode)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("running on %s (version %s, %d open runs)", bind, firstNonEmpty(body.Version, "unknown"), body.OpenRuns),
	}
}

func summarizeError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "health check timed out (API unresponsive)"
	case errors.Is(err, services.ErrUnauthorized):
		return "token rejected"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
