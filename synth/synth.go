// SPDX-License-Identifier: EPL-2.0

package synth

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/viterin/vek/vek32"

	"github.com/ik5/almidi/midi"
	"github.com/ik5/almidi/soundfont"
)

// DefaultSampleRate is used when Options.SampleRate is not set.
const DefaultSampleRate = 44100

// blockSize is the largest span a backend renders in one call.
const blockSize = 1024

// FontResolver maps soundfont handles to soundfonts. Handle 0 names the
// default soundfont.
type FontResolver interface {
	Resolve(id uint32) (*soundfont.SoundFont, error)
}

// Options configures a Synth.
type Options struct {
	// SampleRate of the device in Hz.
	SampleRate int
	// QueueLimit caps the number of queued events. 0 means no limit.
	QueueLimit int
	Logger     *slog.Logger
}

// Synth schedules MIDI events against a device sample clock and drives a
// Backend. Control methods may be called from any goroutine while Process
// runs on the audio goroutine.
type Synth struct {
	logger *slog.Logger

	// mu serializes transport changes, gain and soundfont binding.
	mu    sync.RWMutex
	state atomic.Int32
	gain  float32

	fonts atomic.Pointer[[]*soundfont.SoundFont]

	// dev guards everything the render path touches.
	dev     sync.Mutex
	backend Backend
	queue   *midi.Queue
	clk     clock
	rate    int

	scratchL, scratchR []float32
}

// New returns a Synth in the Initial state rendering through b.
func New(b Backend, opts Options) *Synth {
	if b == nil {
		b = Null{}
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Synth{
		logger:   opts.Logger,
		gain:     1,
		backend:  b,
		queue:    midi.NewQueue(opts.QueueLimit),
		clk:      newClock(opts.SampleRate),
		rate:     opts.SampleRate,
		scratchL: make([]float32, blockSize),
		scratchR: make([]float32, blockSize),
	}
	s.state.Store(int32(Initial))
	b.SetSampleRate(opts.SampleRate)
	b.SetGain(1)
	return s
}

// Backend returns the backend the Synth renders through.
func (s *Synth) Backend() Backend { return s.backend }

// State returns the transport state.
func (s *Synth) State() State { return State(s.state.Load()) }

// SampleRate returns the device sample rate in Hz.
func (s *Synth) SampleRate() int {
	s.dev.Lock()
	defer s.dev.Unlock()

	return s.rate
}

// Time returns the current position of the event clock in ticks.
func (s *Synth) Time() uint64 {
	s.dev.Lock()
	defer s.dev.Unlock()

	return s.clk.now()
}

// Pending returns the number of queued events not yet dispatched.
func (s *Synth) Pending() int {
	s.dev.Lock()
	defer s.dev.Unlock()

	return s.queue.Len()
}

// Insert queues ev. Events must be valid; SysEx data becomes owned by the
// queue.
func (s *Synth) Insert(ev midi.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	s.dev.Lock()
	defer s.dev.Unlock()

	if err := s.queue.Insert(ev); err != nil {
		return err
	}
	s.clk.schedule(ev.Time)
	return nil
}

// InsertEvent validates and queues a channel message.
func (s *Synth) InsertEvent(time uint64, kind midi.Kind, channel, param1, param2 int) error {
	ev, err := midi.NewEvent(time, kind, channel, param1, param2)
	if err != nil {
		return err
	}
	return s.Insert(ev)
}

// InsertSysEx copies data into a queued SysEx event.
func (s *Synth) InsertSysEx(time uint64, data []byte) error {
	ev, err := midi.NewSysExEvent(time, data)
	if err != nil {
		return err
	}
	return s.Insert(ev)
}

func (s *Synth) setState(st State) {
	old := State(s.state.Swap(int32(st)))
	if old != st {
		s.logger.Debug("synth state", slog.String("from", old.String()), slog.String("to", st.String()))
	}
}

// Play starts or resumes dispatching events.
func (s *Synth) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setState(Playing)
}

// Pause holds the event clock. Sounding voices keep rendering.
func (s *Synth) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setState(Paused)
}

// Stop dispatches events that are already due, silences every note and
// discards the rest of the queue.
func (s *Synth) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setState(Stopped)

	s.dev.Lock()
	defer s.dev.Unlock()

	s.queue.Drain(s.clk.now(), s.backend.Dispatch)
	s.backend.Stop()
	s.queue.Reset()
	s.clk.reset()
}

// Reset returns to the Initial state, clearing the queue and the backend.
func (s *Synth) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setState(Initial)

	s.dev.Lock()
	defer s.dev.Unlock()

	s.backend.Reset()
	s.queue.Reset()
	s.clk.reset()
}

// Gain returns the output gain.
func (s *Synth) Gain() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.gain
}

// SetGain sets the output gain. It must be finite and not negative.
func (s *Synth) SetGain(gain float32) error {
	if gain < 0 || math.IsInf(float64(gain), 0) || math.IsNaN(float64(gain)) {
		return fmt.Errorf("SetGain(%v): %w", gain, ErrGain)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gain = gain

	s.dev.Lock()
	s.backend.SetGain(gain)
	s.dev.Unlock()
	return nil
}

// SetSampleRate changes the device rate, keeping the event clock position.
func (s *Synth) SetSampleRate(rate int) error {
	if rate <= 0 {
		return fmt.Errorf("SetSampleRate(%d): %w", rate, ErrSampleRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dev.Lock()
	defer s.dev.Unlock()

	s.clk.setRate(rate)
	s.rate = rate
	s.backend.SetSampleRate(rate)
	return nil
}

// Soundfonts returns the bound soundfonts.
func (s *Synth) Soundfonts() []*soundfont.SoundFont {
	p := s.fonts.Load()
	if p == nil {
		return nil
	}
	return *p
}

// SelectSoundfonts binds the soundfonts named by ids, resolved through r.
// It is only allowed in the Initial and Stopped states. A reference is
// held on every bound soundfont until it is replaced.
func (s *Synth) SelectSoundfonts(r FontResolver, ids []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st != Initial && st != Stopped {
		return fmt.Errorf("SelectSoundfonts(): state %s: %w", st, ErrBusy)
	}

	fonts := make([]*soundfont.SoundFont, len(ids))
	for i, id := range ids {
		sf, err := r.Resolve(id)
		if err != nil {
			return fmt.Errorf("SelectSoundfonts(): %w: %d: %w", ErrNoSoundfont, id, err)
		}
		if sf == nil {
			return fmt.Errorf("SelectSoundfonts(): %w: %d", ErrNoSoundfont, id)
		}
		fonts[i] = sf
	}

	for _, sf := range fonts {
		sf.Acquire()
	}

	commit, err := s.backend.PrepareSoundfonts(fonts)
	if err != nil {
		for _, sf := range fonts {
			sf.Release()
		}
		return fmt.Errorf("SelectSoundfonts(): %s: %w", s.backend.Name(), err)
	}

	s.dev.Lock()
	commit()
	old := s.fonts.Swap(&fonts)
	s.dev.Unlock()

	if old != nil {
		for _, sf := range *old {
			sf.Release()
		}
	}
	return nil
}

// Process renders len(left) frames and adds them into left and right,
// dispatching queued events at their sample positions. Nothing is rendered
// in the Initial state. While not playing the backend still renders but no
// events are dispatched and the clock does not move.
func (s *Synth) Process(left, right []float32) {
	n := min(len(left), len(right))
	left, right = left[:n], right[:n]

	st := s.State()
	if st == Initial || n == 0 {
		return
	}

	s.dev.Lock()
	defer s.dev.Unlock()

	if st != Playing {
		s.render(left, right)
		return
	}

	total := 0
	for total < n {
		switch due := s.clk.due(); {
		case due < 0:
			s.render(left[total:], right[total:])
			s.clk.advance(n - total)
			total = n
		case due > 0:
			todo := min(due, n-total)
			s.render(left[total:total+todo], right[total:total+todo])
			s.clk.advance(todo)
			total += todo
		default:
			now := s.clk.arrive()
			s.queue.Drain(now, s.backend.Dispatch)
			s.clk.retarget(s.queue.NextTime())
		}
	}
}

// render mixes backend output into left and right in blocks.
func (s *Synth) render(left, right []float32) {
	for off := 0; off < len(left); off += blockSize {
		m := min(blockSize, len(left)-off)
		bl, br := s.scratchL[:m], s.scratchR[:m]

		s.backend.Render(bl, br)
		vek32.Add_Inplace(left[off:off+m], bl)
		vek32.Add_Inplace(right[off:off+m], br)
	}
}

// Close stops rendering and releases the bound soundfonts.
func (s *Synth) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setState(Stopped)
	if old := s.fonts.Swap(nil); old != nil {
		for _, sf := range *old {
			sf.Release()
		}
	}

	s.dev.Lock()
	s.backend.Stop()
	s.queue.Reset()
	s.dev.Unlock()
}
