package overlay

import (
	"fmt"
	"log/slog"
)

// EnumerateOutputs returns the regions to place overlays on. Multi-output
// information is used in the order reported, minus regions with no area;
// when none remain the whole root window is treated as a single output.
// The result is never empty.
func EnumerateOutputs(d Display, logger *slog.Logger) ([]Region, error) {
	regions, err := d.QueryOutputs()
	if err != nil {
		logger.Debug("multi-output query failed, using root geometry", "error", err)
	}

	var usable []Region
	for _, r := range regions {
		if r.Width > 0 && r.Height > 0 {
			usable = append(usable, r)
		} else {
			logger.Debug("skipping output with no area", "region", r.String())
		}
	}
	if len(usable) > 0 {
		return usable, nil
	}

	root, err := d.RootGeometry()
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return []Region{{X: 0, Y: 0, Width: root.Width, Height: root.Height}}, nil
}
