package viewport

// MarginConfig holds scroll margin configuration.
type MarginConfig struct {
	Top    int // Lines to keep above cursor
	Bottom int // Lines to keep below cursor
	Left   int // Columns to keep left of cursor
	Right  int // Columns to keep right of cursor
}

// DefaultMargins returns the default margins.
func DefaultMargins() MarginConfig {
	return MarginConfig{
		Top:    3,
		Bottom: 3,
		Left:   8,
		Right:  8,
	}
}

// NoMargins returns zero margins (cursor can go to edge).
func NoMargins() MarginConfig {
	return MarginConfig{}
}

// SetMarginsFromConfig sets margins from a MarginConfig.
func (v *Viewport) SetMarginsFromConfig(config MarginConfig) {
	v.SetMargins(config.Top, config.Bottom, config.Left, config.Right)
}

// maxMarginRatio limits margins to 1/3 of viewport dimension to ensure
// there's always usable space in the center.
const maxMarginRatio = 3

// EffectiveMargins returns margins adjusted for viewport size.
func (v *Viewport) EffectiveMargins() MarginConfig {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.effectiveMargins()
}

func (v *Viewport) effectiveMargins() MarginConfig {
	maxVertical := v.height / maxMarginRatio
	maxHorizontal := v.width / maxMarginRatio
	return MarginConfig{
		Top:    clampMargin(v.marginTop, maxVertical),
		Bottom: clampMargin(v.marginBottom, maxVertical),
		Left:   clampMargin(v.marginLeft, maxHorizontal),
		Right:  clampMargin(v.marginRight, maxHorizontal),
	}
}

func clampMargin(m, limit int) int {
	return max(min(m, limit), 0)
}
