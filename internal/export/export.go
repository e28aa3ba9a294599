package export

import (
	"context"

	"comforty/internal/services"
)

// ReportWriter publishes a dashboard report somewhere outside the app and
// returns a human-readable reference to where it landed.
type ReportWriter interface {
	Export(ctx context.Context, data services.DashboardData) (string, error)
}
