package pick

// Options configures a Picker. The zero value is DefaultOptions: NewPicker
// fills every zero field from it.
type Options struct {
	// Backend draws the pick buffer. Defaults to BackendCPU.
	Backend BackendName
	// LineWidthPx is the width of thin curves in the pick buffer.
	LineWidthPx float32
	// MinPickRadiusPx widens small points for the ray path so they stay
	// clickable when far away. Negative disables widening.
	MinPickRadiusPx float32
	// DragThresholdPx is how far the cursor may move between press and
	// release for Click to still count it as a click.
	DragThresholdPx float32
	// SkipRayRefine trusts buffer depth for hit distance and position
	// instead of recomputing them analytically for the decoded element.
	SkipRayRefine bool
	Debug         bool
}

func DefaultOptions() Options {
	return Options{
		Backend:         BackendCPU,
		LineWidthPx:     3,
		MinPickRadiusPx: 4,
		DragThresholdPx: 5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Backend == "" {
		o.Backend = d.Backend
	}
	if o.LineWidthPx <= 0 {
		o.LineWidthPx = d.LineWidthPx
	}
	switch {
	case o.MinPickRadiusPx == 0:
		o.MinPickRadiusPx = d.MinPickRadiusPx
	case o.MinPickRadiusPx < 0:
		o.MinPickRadiusPx = 0
	}
	if o.DragThresholdPx <= 0 {
		o.DragThresholdPx = d.DragThresholdPx
	}
	return o
}
