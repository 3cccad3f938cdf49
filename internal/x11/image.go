package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/flashnote/internal/overlay"
	"github.com/1broseidon/flashnote/internal/raster"
)

// PutImage request header size in bytes.
const putImageHeader = 28

type serverImage struct {
	pixmap xproto.Pixmap
	width  int
	height int
}

// CreateImage uploads buf into a server-side pixmap of root depth. The
// upload is split into as many PutImage requests as the server's maximum
// request length requires.
func (c *Connection) CreateImage(buf *raster.Buffer) (overlay.ImageID, error) {
	if buf.Width > raster.MaxDimension || buf.Height > raster.MaxDimension {
		return 0, fmt.Errorf("%w: %dx%d image exceeds X11 coordinate range", raster.ErrTooLarge, buf.Width, buf.Height)
	}
	rows := rowsPerRequest(c.maxReqLen, buf.Stride)
	if rows < 1 {
		return 0, fmt.Errorf("image row of %d bytes exceeds the maximum request length", buf.Stride)
	}

	pix, err := xproto.NewPixmapId(c.xu.Conn())
	if err != nil {
		return 0, fmt.Errorf("failed to allocate pixmap id: %w", err)
	}
	err = xproto.CreatePixmapChecked(c.xu.Conn(), c.screen.RootDepth, pix,
		xproto.Drawable(c.root), uint16(buf.Width), uint16(buf.Height)).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create pixmap: %w", err)
	}

	if c.msbFirst {
		buf = buf.SwapToMSBFirst()
	}

	gc, err := xproto.NewGcontextId(c.xu.Conn())
	if err != nil {
		xproto.FreePixmap(c.xu.Conn(), pix)
		return 0, fmt.Errorf("failed to allocate graphics context id: %w", err)
	}
	if err := xproto.CreateGCChecked(c.xu.Conn(), gc, xproto.Drawable(pix), 0, nil).Check(); err != nil {
		xproto.FreePixmap(c.xu.Conn(), pix)
		return 0, fmt.Errorf("failed to create upload graphics context: %w", err)
	}
	defer xproto.FreeGC(c.xu.Conn(), gc)

	for _, chunk := range chunkRows(buf.Height, rows) {
		err := xproto.PutImageChecked(c.xu.Conn(), xproto.ImageFormatZPixmap,
			xproto.Drawable(pix), gc,
			uint16(buf.Width), uint16(chunk.count),
			0, int16(chunk.start),
			0, c.screen.RootDepth,
			buf.Rows(chunk.start, chunk.start+chunk.count)).Check()
		if err != nil {
			xproto.FreePixmap(c.xu.Conn(), pix)
			return 0, fmt.Errorf("failed to upload image rows %d-%d: %w", chunk.start, chunk.start+chunk.count, err)
		}
	}

	if c.images == nil {
		c.images = make(map[overlay.ImageID]serverImage)
	}
	id := overlay.ImageID(pix)
	c.images[id] = serverImage{pixmap: pix, width: buf.Width, height: buf.Height}
	return id, nil
}

// DestroyImage frees the pixmap behind img.
func (c *Connection) DestroyImage(img overlay.ImageID) {
	si, ok := c.images[img]
	if !ok {
		return
	}
	delete(c.images, img)
	xproto.FreePixmap(c.xu.Conn(), si.pixmap)
}

// PutImage copies img to the top-left corner of win.
func (c *Connection) PutImage(win overlay.WindowID, gc overlay.GCID, img overlay.ImageID) error {
	si, ok := c.images[img]
	if !ok {
		return fmt.Errorf("unknown image %d", img)
	}
	err := xproto.CopyAreaChecked(c.xu.Conn(),
		xproto.Drawable(si.pixmap), xproto.Drawable(win), xproto.Gcontext(gc),
		0, 0, 0, 0, uint16(si.width), uint16(si.height)).Check()
	if err != nil {
		return fmt.Errorf("failed to copy image to window: %w", err)
	}
	return nil
}

// rowsPerRequest returns how many rows of stride bytes fit in one PutImage
// request of at most maxReqLen bytes.
func rowsPerRequest(maxReqLen, stride int) int {
	if stride <= 0 {
		return 0
	}
	return (maxReqLen - putImageHeader) / stride
}

type rowChunk struct {
	start int
	count int
}

func chunkRows(height, perChunk int) []rowChunk {
	var chunks []rowChunk
	for start := 0; start < height; start += perChunk {
		count := perChunk
		if start+count > height {
			count = height - start
		}
		chunks = append(chunks, rowChunk{start: start, count: count})
	}
	return chunks
}
