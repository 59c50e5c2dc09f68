// internal/params/store.go
package params

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Store owns the live Parameters record and its persistent copy.
//
// Every setter mutates and persists under one lock: callers never observe a
// record that was changed but not yet handed to the medium.
// Persistence failures are returned and logged; the in-memory record keeps
// the new value and timing is unaffected.
type Store struct {
	mu     sync.Mutex
	medium Medium
	p      Parameters

	log     logrus.FieldLogger
	warn    *rate.Limiter
	onSave  func(err error)
	dropped int
}

// Option configures a Store.
type Option func(*Store)

// WithSaveHook registers fn to observe the outcome of every save.
func WithSaveHook(fn func(err error)) Option {
	return func(s *Store) { s.onSave = fn }
}

// WithWarnInterval sets the minimum spacing of repeated save-failure warnings.
func WithWarnInterval(d time.Duration) Option {
	return func(s *Store) { s.warn = rate.NewLimiter(rate.Every(d), 1) }
}

// NewStore binds a store to medium. Call Load before use.
func NewStore(medium Medium, log logrus.FieldLogger, opts ...Option) *Store {
	s := &Store{
		medium: medium,
		p:      Defaults(),
		log:    log,
		warn:   rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and validates the persisted record.
// A missing, short, foreign-version or checksum-mismatched record is replaced
// with Defaults() and the defaults are persisted before Load returns.
func (s *Store) Load() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.medium.Read()
	if err == nil {
		if p, ok := Decode(raw); ok && Valid(p) {
			s.p = p
			s.log.WithField("checksum", fmt.Sprintf("0x%04x", p.Checksum)).
				Info("valid checksum, loaded parameters from storage")
			return s.p
		}
	}

	fields := logrus.Fields{"size": len(raw)}
	if err != nil {
		fields["error"] = err
	}
	s.log.WithFields(fields).Warn("invalid parameter record, initializing with defaults")

	s.p = Defaults()
	_ = s.saveLocked()
	return s.p
}

// Save seals p and writes it as the live record.
func (s *Store) Save(p Parameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.p = p
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	s.p = Seal(s.p)
	err := s.medium.Write(Encode(s.p))
	if err != nil {
		err = fmt.Errorf("params: persist: %w", err)
		if s.warn.Allow() {
			s.log.WithFields(logrus.Fields{
				"error":      err,
				"suppressed": s.dropped,
			}).Error("parameter write failed")
			s.dropped = 0
		} else {
			s.dropped++
		}
	}
	if s.onSave != nil {
		s.onSave(err)
	}
	return err
}

// Snapshot returns a copy of the live record.
func (s *Store) Snapshot() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

// update applies fn to the live record and persists the result.
func (s *Store) update(fn func(p *Parameters)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.p)
	return s.saveLocked()
}

// modify applies fn to the live record without persisting.
func (s *Store) modify(fn func(p Parameters) Parameters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = fn(s.p)
}

// ---- setters (persist) ----

func (s *Store) SetRespRate(v float32) error {
	return s.update(func(p *Parameters) { p.RespRate = v })
}

func (s *Store) SetInhTime(v float32) error {
	return s.update(func(p *Parameters) { p.InhTime = v })
}

func (s *Store) SetPipMax(v float32) error {
	return s.update(func(p *Parameters) { p.PipMax = v })
}

func (s *Store) SetPipOffset(v float32) error {
	return s.update(func(p *Parameters) { p.PipOffset = v })
}

func (s *Store) SetVolMax(v float32) error {
	return s.update(func(p *Parameters) { p.VolMax = v })
}

func (s *Store) SetVolFactor(v float32) error {
	return s.update(func(p *Parameters) { p.VolFactor = v })
}

func (s *Store) SetVolInThold(v float32) error {
	return s.update(func(p *Parameters) { p.VolInThold = v })
}

func (s *Store) SetPeepMin(v float32) error {
	return s.update(func(p *Parameters) { p.PeepMin = v })
}

func (s *Store) SetRunState(v RunState) error {
	return s.update(func(p *Parameters) { p.RunState = v })
}

func (s *Store) SetRunMode(v RunMode) error {
	return s.update(func(p *Parameters) { p.RunMode = v })
}

// ---- getters ----

func (s *Store) RespRate() float32   { return s.Snapshot().RespRate }
func (s *Store) InhTime() float32    { return s.Snapshot().InhTime }
func (s *Store) PipMax() float32     { return s.Snapshot().PipMax }
func (s *Store) VolMax() float32     { return s.Snapshot().VolMax }
func (s *Store) VolInThold() float32 { return s.Snapshot().VolInThold }
func (s *Store) PeepMin() float32    { return s.Snapshot().PeepMin }
func (s *Store) RunState() RunState  { return s.Snapshot().RunState }
func (s *Store) RunMode() RunMode    { return s.Snapshot().RunMode }

// ---- derived / adaptive (no persistence) ----

func (s *Store) OffTimeMillis() int64 { return s.Snapshot().OffTimeMillis() }
func (s *Store) OnTimeMillis() int64  { return s.Snapshot().OnTimeMillis() }
func (s *Store) AdjVolMax() float64   { return s.Snapshot().AdjVolMax() }
func (s *Store) AdjPipMax() float64   { return s.Snapshot().AdjPipMax() }

// UpdateAdjVolMax applies one proportional step toward volMax using the
// measured peak volume of the last breath. Volume mode only.
func (s *Store) UpdateAdjVolMax(measuredMaxVol float64) {
	s.modify(func(p Parameters) Parameters { return p.withAdjVolMaxStep(measuredMaxVol) })
}

// InitAdjVolMax resets the adaptive adjustment. Volume mode only.
func (s *Store) InitAdjVolMax() {
	s.modify(Parameters.withAdjVolMaxReset)
}

// Check re-reads the medium and reports whether it holds the live record.
// Only meaningful right after a save: the adaptive adjustment is not persisted.
func (s *Store) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.medium.Read()
	if err != nil {
		return fmt.Errorf("params: check: %w", err)
	}
	p, ok := Decode(raw)
	if !ok || !Valid(p) {
		return errors.New("params: check: stored record invalid")
	}
	if p != s.p {
		return errors.New("params: check: stored record differs from live record")
	}
	return nil
}
