// internal/params/derived.go
package params

// PressureModeVolMax is the volume ceiling reported in pressure mode.
const PressureModeVolMax = 800.0

// OffTimeMillis is the exhale duration: breath period minus inhale time.
// Not clamped. inhTime beyond the breath period yields a negative value;
// callers must validate.
func (p Parameters) OffTimeMillis() int64 {
	period := (1.0 / float64(p.RespRate)) * 60.0
	return int64((period - float64(p.InhTime)) * 1000.0)
}

// OnTimeMillis is the inhale duration.
func (p Parameters) OnTimeMillis() int64 {
	return int64(float64(p.InhTime) * 1000.0)
}

// AdjVolMax returns the adaptive volume ceiling.
// Pressure mode does not volume-limit through this path.
func (p Parameters) AdjVolMax() float64 {
	if p.RunMode == ModePressure {
		return PressureModeVolMax
	}
	return float64(p.VolMaxAdj)
}

// AdjPipMax is the trimmed pressure ceiling.
func (p Parameters) AdjPipMax() float64 {
	return float64(p.PipMax) + float64(p.PipOffset)
}

// withAdjVolMaxStep applies one proportional feedback step in volume mode.
func (p Parameters) withAdjVolMaxStep(measuredMaxVol float64) Parameters {
	if p.RunMode != ModeVolume {
		return p
	}
	adj := float64(p.VolMaxAdj) - float64(p.VolFactor)*(measuredMaxVol-float64(p.VolMax))
	p.VolMaxAdj = float32(adj)
	return p
}

// withAdjVolMaxReset zeroes the adjustment in volume mode.
func (p Parameters) withAdjVolMaxReset() Parameters {
	if p.RunMode != ModeVolume {
		return p
	}
	p.VolMaxAdj = 0
	return p
}
