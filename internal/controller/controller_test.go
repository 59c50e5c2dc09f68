// internal/controller/controller_test.go
package controller

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tubbz-alt/pabv-control/internal/identity"
	"github.com/Tubbz-alt/pabv-control/internal/message"
	"github.com/Tubbz-alt/pabv-control/internal/params"
	"github.com/Tubbz-alt/pabv-control/internal/protocol"
)

// ---- fakes ----

type fakeChannel struct {
	in      []message.Message
	sent    []message.Message
	sendErr error
}

func (f *fakeChannel) Read() (message.Message, bool) {
	if len(f.in) == 0 {
		return message.Message{}, false
	}
	m := f.in[0]
	f.in = f.in[1:]
	return m, true
}

func (f *fakeChannel) Send(m message.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeChannel) take() []message.Message {
	out := f.sent
	f.sent = nil
	return out
}

type recordingObserver struct {
	NopObserver
	changes    []Change
	reasons    []Reason
	sendFailed int
}

func (r *recordingObserver) Changed(c Change)                 { r.changes = append(r.changes, c) }
func (r *recordingObserver) Broadcasted(_ uint32, why Reason) { r.reasons = append(r.reasons, why) }
func (r *recordingObserver) SendFailed(string, error)         { r.sendFailed++ }

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	store   *params.Store
	primary *fakeChannel
	display *fakeChannel
	obs     *recordingObserver
	ctl     *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := quietLogger()
	store := params.NewStore(&params.MemoryMedium{}, log)
	f := &fixture{
		store:   store,
		primary: &fakeChannel{},
		display: &fakeChannel{},
		obs:     &recordingObserver{},
	}
	f.ctl = New(
		store,
		protocol.NewDispatcher(store, nil, log),
		f.primary, f.display,
		"test-build",
		identity.ID{0xA, 0xB, 0xC, 0xD},
		Config{ConfigMillis: 1000},
		log,
		WithObserver(f.obs),
	)
	f.ctl.Setup(0)
	return f
}

func floatMsg(sel uint32, v float32) message.Message {
	return message.NewData(message.TagParamFloat, 0, []float32{v}, []uint32{sel})
}

// ---- tests ----

func TestUpdate_SerialStartsAtOne(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, uint32(1), f.ctl.SerialNumber())

	f.ctl.Update(10)
	assert.Equal(t, uint32(1), f.ctl.SerialNumber())
	assert.Empty(t, f.primary.take())
}

func TestUpdate_ChangeBroadcastsImmediately(t *testing.T) {
	f := newFixture(t)
	f.primary.in = []message.Message{floatMsg(protocol.SelPipMax, 30)}

	f.ctl.Update(5)

	sent := f.primary.take()
	require.Len(t, sent, 3)
	assert.Equal(t, message.TagConfig, sent[0].Tag)
	assert.Equal(t, message.TagVersion, sent[1].Tag)
	assert.Equal(t, message.TagCPUID, sent[2].Tag)

	assert.Equal(t, float32(30), sent[0].Floats[2])
	assert.Equal(t, uint32(2), sent[0].Ints[1])
	assert.Equal(t, "test-build", sent[1].String)
	assert.Equal(t, []uint32{0xA, 0xB, 0xC, 0xD}, sent[2].Ints)

	assert.Empty(t, f.display.take(), "broadcasts go to the primary channel only")
	assert.Equal(t, []Reason{ReasonChange}, f.obs.reasons)
}

func TestUpdate_SerialOncePerTick(t *testing.T) {
	f := newFixture(t)
	f.primary.in = []message.Message{floatMsg(protocol.SelPipMax, 30)}
	f.display.in = []message.Message{floatMsg(protocol.SelRespRate, 15)}

	f.ctl.Update(5)

	assert.Equal(t, uint32(2), f.ctl.SerialNumber())
	p := f.store.Snapshot()
	assert.Equal(t, float32(30), p.PipMax)
	assert.Equal(t, float32(15), p.RespRate, "display message is processed in the same tick")

	require.Len(t, f.obs.changes, 1)
	assert.Equal(t, []string{SourcePrimary, SourceDisplay}, f.obs.changes[0].Sources)
	assert.Len(t, f.primary.take(), 3)
}

func TestUpdate_DisplayOnlyChange(t *testing.T) {
	f := newFixture(t)
	f.display.in = []message.Message{floatMsg(protocol.SelPeepMin, 4)}

	f.ctl.Update(5)

	assert.Equal(t, uint32(2), f.ctl.SerialNumber())
	assert.Len(t, f.primary.take(), 3)
}

func TestUpdate_RepeatedMessageIncrementsEachTime(t *testing.T) {
	f := newFixture(t)
	m := floatMsg(protocol.SelInhTime, 1.2)

	f.primary.in = []message.Message{m}
	f.ctl.Update(1)
	f.primary.in = []message.Message{m}
	f.ctl.Update(2)

	assert.Equal(t, uint32(3), f.ctl.SerialNumber())
}

func TestUpdate_MuteDoesNotBumpSerial(t *testing.T) {
	f := newFixture(t)
	f.primary.in = []message.Message{
		message.NewData(message.TagParamSet, 0, nil, []uint32{protocol.SelMuteAlarm}),
	}

	f.ctl.Update(5)

	assert.Equal(t, uint32(1), f.ctl.SerialNumber())
	assert.Empty(t, f.primary.take())
}

func TestUpdate_IntervalIsStrictlyGreater(t *testing.T) {
	f := newFixture(t)

	f.ctl.Update(1000)
	assert.Empty(t, f.primary.take(), "exactly one period elapsed")

	f.ctl.Update(1001)
	assert.Len(t, f.primary.take(), 3)
	assert.Equal(t, uint32(1001), f.ctl.LastBroadcast())

	f.ctl.Update(2001)
	assert.Empty(t, f.primary.take())
	f.ctl.Update(2002)
	assert.Len(t, f.primary.take(), 3)

	assert.Equal(t, []Reason{ReasonInterval, ReasonInterval}, f.obs.reasons)
	assert.Equal(t, uint32(1), f.ctl.SerialNumber())
}

func TestUpdate_IntervalAcrossWrap(t *testing.T) {
	f := newFixture(t)
	start := uint32(0xFFFFFF00)
	f.ctl.Setup(start)

	f.ctl.Update(start + 1000)
	assert.Empty(t, f.primary.take())

	f.ctl.Update(start + 1001) // wraps past zero
	assert.Len(t, f.primary.take(), 3)
}

func TestUpdate_ChangeResetsInterval(t *testing.T) {
	f := newFixture(t)
	f.primary.in = []message.Message{floatMsg(protocol.SelVolMax, 300)}

	f.ctl.Update(600)
	assert.Len(t, f.primary.take(), 3)

	f.ctl.Update(1200)
	assert.Empty(t, f.primary.take())
}

func TestUpdate_SendFailureStillAdvances(t *testing.T) {
	f := newFixture(t)
	f.primary.sendErr = errors.New("port closed")

	f.ctl.Update(1500)

	assert.Equal(t, 3, f.obs.sendFailed)
	assert.Equal(t, uint32(1500), f.ctl.LastBroadcast())
}

func TestNew_DefaultPeriod(t *testing.T) {
	log := quietLogger()
	store := params.NewStore(&params.MemoryMedium{}, log)
	ch := &fakeChannel{}
	c := New(store, protocol.NewDispatcher(store, nil, log), ch, nil, "v", identity.ID{}, Config{}, log)
	c.Setup(0)

	c.Update(DefaultConfigMillis)
	assert.Empty(t, ch.take())
	c.Update(DefaultConfigMillis + 1)
	assert.Len(t, ch.take(), 3)
}

func TestNew_NilChannelsAreDisabled(t *testing.T) {
	log := quietLogger()
	store := params.NewStore(&params.MemoryMedium{}, log)
	obs := &recordingObserver{}
	c := New(store, protocol.NewDispatcher(store, nil, log), nil, nil, "v", identity.ID{}, Config{ConfigMillis: 100}, log, WithObserver(obs))
	c.Setup(0)

	require.NotPanics(t, func() { c.Update(101) })
	assert.Equal(t, []Reason{ReasonInterval}, obs.reasons)
	assert.Zero(t, obs.sendFailed)
}
