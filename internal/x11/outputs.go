package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/flashnote/internal/overlay"
)

var errXineramaInactive = errors.New("xinerama is not active")

// QueryOutputs returns the Xinerama screens in server order.
func (c *Connection) QueryOutputs() ([]overlay.Region, error) {
	if !c.xinerama {
		return nil, errXineramaInactive
	}

	active, err := xinerama.IsActive(c.xu.Conn()).Reply()
	if err != nil {
		return nil, fmt.Errorf("xinerama is-active query failed: %w", err)
	}
	if active.State == 0 {
		return nil, errXineramaInactive
	}

	screens, err := xinerama.QueryScreens(c.xu.Conn()).Reply()
	if err != nil {
		return nil, fmt.Errorf("xinerama screen query failed: %w", err)
	}
	return regionsFromScreens(screens.ScreenInfo), nil
}

// RootGeometry returns the size of the root window.
func (c *Connection) RootGeometry() (overlay.Region, error) {
	geom, err := xproto.GetGeometry(c.xu.Conn(), xproto.Drawable(c.root)).Reply()
	if err != nil {
		return overlay.Region{}, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return overlay.Region{Width: int(geom.Width), Height: int(geom.Height)}, nil
}

func regionsFromScreens(screens []xinerama.ScreenInfo) []overlay.Region {
	regions := make([]overlay.Region, 0, len(screens))
	for _, s := range screens {
		regions = append(regions, overlay.Region{
			X:      int(s.XOrg),
			Y:      int(s.YOrg),
			Width:  int(s.Width),
			Height: int(s.Height),
		})
	}
	return regions
}
