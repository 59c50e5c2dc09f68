// internal/params/derived_test.go
package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivedTiming(t *testing.T) {
	tests := []struct {
		name     string
		respRate float32
		inhTime  float32
		wantOn   int64
		wantOff  int64
	}{
		{name: "defaults", respRate: 20, inhTime: 1, wantOn: 1000, wantOff: 2000},
		{name: "slow", respRate: 10, inhTime: 2, wantOn: 2000, wantOff: 4000},
		{name: "inhale longer than period", respRate: 30, inhTime: 3, wantOn: 3000, wantOff: -1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Defaults()
			p.RespRate = tt.respRate
			p.InhTime = tt.inhTime

			assert.Equal(t, tt.wantOn, p.OnTimeMillis())
			assert.Equal(t, tt.wantOff, p.OffTimeMillis())
		})
	}
}

func TestAdjPipMax(t *testing.T) {
	p := Defaults()
	p.PipMax = 40
	p.PipOffset = -2.5

	assert.InDelta(t, 37.5, p.AdjPipMax(), 1e-6)
}

func TestAdaptiveVolume_VolumeMode(t *testing.T) {
	s := NewStore(&MemoryMedium{}, quietLogger())
	s.Load()

	writes := s.medium.(*MemoryMedium).Writes()

	s.UpdateAdjVolMax(220.0)
	assert.InDelta(t, -10.0, s.AdjVolMax(), 1e-6)

	s.UpdateAdjVolMax(190.0)
	assert.InDelta(t, -5.0, s.AdjVolMax(), 1e-6)

	s.InitAdjVolMax()
	assert.InDelta(t, 0.0, s.AdjVolMax(), 1e-6)

	assert.Equal(t, writes, s.medium.(*MemoryMedium).Writes(), "adaptive updates must not persist")
}

func TestAdaptiveVolume_PressureMode(t *testing.T) {
	s := NewStore(&MemoryMedium{}, quietLogger())
	s.Load()
	p := s.Snapshot()
	p.VolMaxAdj = -7
	p.RunMode = ModePressure
	_ = s.Save(p)

	assert.Equal(t, PressureModeVolMax, s.AdjVolMax())

	s.UpdateAdjVolMax(500)
	s.InitAdjVolMax()
	assert.Equal(t, float32(-7), s.Snapshot().VolMaxAdj, "pressure mode leaves the adjustment untouched")
}
