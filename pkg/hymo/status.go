package hymo

import (
	"context"
	"strings"

	"github.com/kairos-io/hymoctl/pkg/schema"
)

// statusTable is checked top to bottom, the first row with a matching needle wins.
// Anything else is NotPresent: without a confirmed capability nothing gated on it is offered.
var statusTable = []struct {
	status  schema.OverlayStatus
	needles []string
}{
	{schema.StatusAvailable, []string{"Available"}},
	{schema.StatusNotPresent, []string{"Not Present", "NotPresent"}},
	{schema.StatusKernelTooOld, []string{"Kernel Too Old", "KernelTooOld"}},
	{schema.StatusModuleTooOld, []string{"Module Too Old", "ModuleTooOld"}},
}

// ClassifyStatus maps the daemon's status text to a status.
func ClassifyStatus(text string) schema.OverlayStatus {
	for _, row := range statusTable {
		for _, n := range row.needles {
			if strings.Contains(text, n) {
				return row.status
			}
		}
	}
	return schema.StatusNotPresent
}

// Status probes the overlay capability with one gateway call.
func (c *Client) Status(ctx context.Context) schema.OverlayStatus {
	res, ok := c.run(ctx, "Getting hymofs status", c.hymo("status"))
	if !ok {
		return schema.StatusNotPresent
	}
	return ClassifyStatus(res.Output())
}
