// SPDX-License-Identifier: EPL-2.0

package soundfont

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Loader decodes a soundfont file into a Bank. The Bank's presets and
// fontsounds must be unregistered.
type Loader interface {
	Load(r io.Reader) (*Bank, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(r io.Reader) (*Bank, error)

// Load calls f(r).
func (f LoaderFunc) Load(r io.Reader) (*Bank, error) { return f(r) }

// Repository is the per-device table of soundfonts, presets and fontsounds.
// It is safe for concurrent use.
type Repository struct {
	mu sync.Mutex

	logger *slog.Logger

	fonts   map[uint32]*SoundFont
	presets map[uint32]*Preset
	sounds  map[uint32]*Fontsound

	nextFont   uint32
	nextPreset uint32
	nextSound  uint32

	def     *SoundFont
	retired []*SoundFont
}

// NewRepository returns an empty Repository. A nil logger uses
// slog.Default().
func NewRepository(logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}

	return &Repository{
		logger:  logger,
		fonts:   make(map[uint32]*SoundFont),
		presets: make(map[uint32]*Preset),
		sounds:  make(map[uint32]*Fontsound),
	}
}

// GenSoundfonts creates n empty soundfonts and returns their handles.
func (r *Repository) GenSoundfonts(n int) ([]uint32, error) {
	if n < 0 {
		return nil, fmt.Errorf("GenSoundfonts(%d): %w", n, ErrNegativeCount)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint32, n)
	for i := range ids {
		r.nextFont++
		sf := &SoundFont{id: r.nextFont}
		r.fonts[sf.id] = sf
		ids[i] = sf.id
	}
	return ids, nil
}

// DeleteSoundfonts deletes the named soundfonts. Nothing is deleted unless
// every id is valid, unreferenced and unmapped. Handle 0 is skipped.
// Presets released this way are deleted once unreferenced, along with any
// fontsound left unreferenced.
func (r *Repository) DeleteSoundfonts(ids []uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if id == 0 {
			continue
		}
		sf, ok := r.fonts[id]
		if !ok {
			return fmt.Errorf("DeleteSoundfonts(%d): %w", id, ErrUnknownSoundfont)
		}
		if sf.RefCount() != 0 {
			return fmt.Errorf("DeleteSoundfonts(%d): %w", id, ErrInUse)
		}
		if sf.Mapped() {
			return fmt.Errorf("DeleteSoundfonts(%d): %w", id, ErrMapped)
		}
	}

	for _, id := range ids {
		sf, ok := r.fonts[id]
		if !ok {
			continue
		}
		delete(r.fonts, id)
		r.destroyLocked(sf)
	}
	return nil
}

// destroyLocked drops sf's preset references and deletes what became
// unreferenced.
func (r *Repository) destroyLocked(sf *SoundFont) {
	old := sf.swapPresets(nil)
	for _, p := range old {
		p.ref.Add(-1)
	}

	for _, p := range old {
		if p.RefCount() != 0 || p.id == 0 {
			continue
		}
		if _, ok := r.presets[p.id]; !ok {
			continue
		}
		delete(r.presets, p.id)
		sounds := p.sounds
		p.release()
		for _, s := range sounds {
			if s.RefCount() == 0 {
				delete(r.sounds, s.id)
			}
		}
	}

	sf.mu.Lock()
	sf.samples = nil
	sf.mu.Unlock()
}

// IsSoundfont reports whether id names a soundfont. Handle 0 always does.
func (r *Repository) IsSoundfont(id uint32) bool {
	if id == 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.fonts[id]
	return ok
}

// Soundfont returns the soundfont named by id. Handle 0 returns the default
// soundfont only if it was already created.
func (r *Repository) Soundfont(id uint32) (*SoundFont, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lookupLocked(id)
}

func (r *Repository) lookupLocked(id uint32) (*SoundFont, error) {
	if id == 0 {
		if r.def == nil {
			return nil, fmt.Errorf("soundfont 0: %w", ErrUnknownSoundfont)
		}
		return r.def, nil
	}

	sf, ok := r.fonts[id]
	if !ok {
		return nil, fmt.Errorf("soundfont %d: %w", id, ErrUnknownSoundfont)
	}
	return sf, nil
}

// DefaultSoundfont returns the default soundfont, creating it on first use.
// On creation open is called for the file to load into it. A nil open, or an
// open returning a nil reader, leaves the font empty.
//
// The returned soundfont is never nil. A non-nil error reports that opening
// or loading failed and the font was left empty.
func (r *Repository) DefaultSoundfont(open func() (io.ReadCloser, error), loader Loader) (*SoundFont, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.def != nil {
		return r.def, nil
	}

	sf := &SoundFont{}
	r.def = sf

	if open == nil {
		return sf, nil
	}

	rc, err := open()
	if err != nil {
		return sf, fmt.Errorf("default soundfont: %w", err)
	}
	if rc == nil {
		return sf, nil
	}
	defer rc.Close()

	if err := r.loadLocked(sf, rc, loader); err != nil {
		return sf, fmt.Errorf("default soundfont: %w", err)
	}
	return sf, nil
}

// ReloadDefault replaces the default soundfont with one decoded from rd.
// Holders of the previous default keep it until they release it. On error
// the default is unchanged.
func (r *Repository) ReloadDefault(rd io.Reader, loader Loader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bank, err := decode(rd, loader)
	if err != nil {
		return fmt.Errorf("ReloadDefault(): %w", err)
	}

	fresh := &SoundFont{}
	r.installLocked(fresh, bank)

	if old := r.def; old != nil {
		r.retireLocked(old)
	}
	r.def = fresh
	return nil
}

// retireLocked destroys sf now if it is unreferenced, or when its last
// holder releases it.
func (r *Repository) retireLocked(sf *SoundFont) {
	hook := r.reap
	sf.idle.Store(&hook)
	if sf.RefCount() == 0 {
		r.destroyLocked(sf)
		return
	}
	r.retired = append(r.retired, sf)
}

func (r *Repository) reap(sf *SoundFont) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.retired, sf)
	if i < 0 || sf.RefCount() != 0 {
		return
	}
	r.retired = slices.Delete(r.retired, i, i+1)
	r.destroyLocked(sf)
	r.logger.Debug("superseded default soundfont destroyed")
}

// SetSamples replaces a soundfont's sample data with a copy of samples.
func (r *Repository) SetSamples(id uint32, samples []int16) error {
	if id == 0 {
		return fmt.Errorf("SetSamples(0): %w", ErrDefaultSoundfont)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sf, err := r.lookupLocked(id)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("SetSamples(%d): %w", id, ErrSampleRange)
	}
	if sf.RefCount() != 0 {
		return fmt.Errorf("SetSamples(%d): %w", id, ErrInUse)
	}

	sf.mu.Lock()
	defer sf.mu.Unlock()

	if sf.mapped {
		return fmt.Errorf("SetSamples(%d): %w", id, ErrMapped)
	}
	sf.samples = slices.Clone(samples)
	return nil
}

// Samples returns a copy of count samples starting at offset.
func (r *Repository) Samples(id uint32, offset, count int) ([]int16, error) {
	sf, err := r.resolve(id)
	if err != nil {
		return nil, err
	}

	sf.mu.RLock()
	defer sf.mu.RUnlock()

	if err := checkRange(len(sf.samples), offset, count); err != nil {
		return nil, fmt.Errorf("Samples(%d): %w", id, err)
	}
	if sf.mapped {
		return nil, fmt.Errorf("Samples(%d): %w", id, ErrMapped)
	}
	return slices.Clone(sf.samples[offset : offset+count]), nil
}

// MapSamples marks the soundfont mapped and returns a writable view of
// length samples starting at offset. The view stays valid until
// UnmapSamples.
func (r *Repository) MapSamples(id uint32, offset, length int) ([]int16, error) {
	if id == 0 {
		return nil, fmt.Errorf("MapSamples(0): %w", ErrDefaultSoundfont)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sf, err := r.lookupLocked(id)
	if err != nil {
		return nil, err
	}

	sf.mu.Lock()
	defer sf.mu.Unlock()

	if err := checkRange(len(sf.samples), offset, length); err != nil {
		return nil, fmt.Errorf("MapSamples(%d): %w", id, err)
	}
	if sf.RefCount() != 0 {
		return nil, fmt.Errorf("MapSamples(%d): %w", id, ErrInUse)
	}
	if sf.mapped {
		return nil, fmt.Errorf("MapSamples(%d): %w", id, ErrMapped)
	}

	sf.mapped = true
	return sf.samples[offset : offset+length : offset+length], nil
}

// UnmapSamples ends a mapping started by MapSamples.
func (r *Repository) UnmapSamples(id uint32) error {
	if id == 0 {
		return fmt.Errorf("UnmapSamples(0): %w", ErrDefaultSoundfont)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sf, err := r.lookupLocked(id)
	if err != nil {
		return err
	}

	sf.mu.Lock()
	defer sf.mu.Unlock()

	if !sf.mapped {
		return fmt.Errorf("UnmapSamples(%d): %w", id, ErrNotMapped)
	}
	sf.mapped = false
	return nil
}

// PresetIDs returns the handles of a soundfont's presets.
func (r *Repository) PresetIDs(id uint32) ([]uint32, error) {
	sf, err := r.resolve(id)
	if err != nil {
		return nil, err
	}

	presets := sf.Presets()
	ids := make([]uint32, len(presets))
	for i, p := range presets {
		ids[i] = p.id
	}
	return ids, nil
}

// SampleLength returns the number of samples held by a soundfont.
func (r *Repository) SampleLength(id uint32) (int, error) {
	sf, err := r.resolve(id)
	if err != nil {
		return 0, err
	}
	return len(sf.Samples()), nil
}

// SetPresets replaces a soundfont's preset list with the named presets.
func (r *Repository) SetPresets(id uint32, presetIDs []uint32) error {
	if id == 0 {
		return fmt.Errorf("SetPresets(0): %w", ErrDefaultSoundfont)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sf, err := r.lookupLocked(id)
	if err != nil {
		return err
	}
	if sf.RefCount() != 0 {
		return fmt.Errorf("SetPresets(%d): %w", id, ErrInUse)
	}

	presets := make([]*Preset, len(presetIDs))
	for i, pid := range presetIDs {
		p, ok := r.presets[pid]
		if !ok {
			return fmt.Errorf("SetPresets(%d): preset %d: %w", id, pid, ErrUnknownPreset)
		}
		presets[i] = p
	}

	for _, p := range presets {
		p.ref.Add(1)
	}
	for _, p := range sf.swapPresets(presets) {
		p.ref.Add(-1)
	}
	return nil
}

// LoadSoundfont decodes rd with loader into an empty soundfont.
func (r *Repository) LoadSoundfont(id uint32, rd io.Reader, loader Loader) error {
	if id == 0 {
		return fmt.Errorf("LoadSoundfont(0): %w", ErrDefaultSoundfont)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sf, err := r.lookupLocked(id)
	if err != nil {
		return err
	}
	if sf.RefCount() != 0 {
		return fmt.Errorf("LoadSoundfont(%d): %w", id, ErrInUse)
	}
	if sf.Mapped() {
		return fmt.Errorf("LoadSoundfont(%d): %w", id, ErrMapped)
	}
	if len(sf.Presets()) > 0 {
		return fmt.Errorf("LoadSoundfont(%d): %w", id, ErrHasPresets)
	}

	if err := r.loadLocked(sf, rd, loader); err != nil {
		return fmt.Errorf("LoadSoundfont(%d): %w", id, err)
	}
	return nil
}

func decode(rd io.Reader, loader Loader) (*Bank, error) {
	if loader == nil {
		return nil, ErrNoLoader
	}
	return loader.Load(rd)
}

func (r *Repository) loadLocked(sf *SoundFont, rd io.Reader, loader Loader) error {
	bank, err := decode(rd, loader)
	if err != nil {
		return err
	}
	r.installLocked(sf, bank)

	r.logger.Debug("soundfont loaded",
		slog.Uint64("id", uint64(sf.id)),
		slog.Int("presets", len(bank.Presets)),
		slog.Int("samples", len(bank.Samples)),
	)
	return nil
}

// installLocked registers bank's objects and publishes them into sf. New
// presets are appended to the existing list.
func (r *Repository) installLocked(sf *SoundFont, bank *Bank) {
	for _, p := range bank.Presets {
		for _, s := range p.sounds {
			if s.id == 0 {
				r.nextSound++
				s.id = r.nextSound
				r.sounds[s.id] = s
			}
		}
		r.nextPreset++
		p.id = r.nextPreset
		r.presets[p.id] = p
		p.ref.Add(1)
	}

	presets := append(slices.Clone(sf.Presets()), bank.Presets...)
	sf.swapPresets(presets)

	sf.mu.Lock()
	sf.samples = bank.Samples
	sf.mu.Unlock()
}

// resolve returns the soundfont named by id, or the default soundfont when
// id is 0.
func (r *Repository) resolve(id uint32) (*SoundFont, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == 0 && r.def == nil {
		r.def = &SoundFont{}
	}
	return r.lookupLocked(id)
}

// AddFontsound registers f and returns its handle.
func (r *Repository) AddFontsound(f *Fontsound) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.id == 0 {
		r.nextSound++
		f.id = r.nextSound
		r.sounds[f.id] = f
	}
	return f.id
}

// Fontsound returns the fontsound named by id.
func (r *Repository) Fontsound(id uint32) (*Fontsound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.sounds[id]
	if !ok {
		return nil, fmt.Errorf("fontsound %d: %w", id, ErrUnknownFontsound)
	}
	return f, nil
}

// DeleteFontsounds deletes unreferenced fontsounds. Nothing is deleted if
// any id is unknown or referenced.
func (r *Repository) DeleteFontsounds(ids []uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		f, ok := r.sounds[id]
		if !ok {
			return fmt.Errorf("DeleteFontsounds(%d): %w", id, ErrUnknownFontsound)
		}
		if f.RefCount() != 0 {
			return fmt.Errorf("DeleteFontsounds(%d): %w", id, ErrInUse)
		}
	}
	for _, id := range ids {
		delete(r.sounds, id)
	}
	return nil
}

// NewPreset builds and registers a preset from registered fontsounds.
func (r *Repository) NewPreset(program, bank int, soundIDs []uint32) (uint32, error) {
	if program < 0 || program > 127 || bank < 0 || bank > PercussionBank {
		return 0, fmt.Errorf("NewPreset(%d, %d): %w", program, bank, ErrProgramRange)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sounds := make([]*Fontsound, len(soundIDs))
	for i, id := range soundIDs {
		f, ok := r.sounds[id]
		if !ok {
			return 0, fmt.Errorf("NewPreset(): fontsound %d: %w", id, ErrUnknownFontsound)
		}
		sounds[i] = f
	}

	p := NewPreset(program, bank, sounds)
	r.nextPreset++
	p.id = r.nextPreset
	r.presets[p.id] = p
	return p.id, nil
}

// Preset returns the preset named by id.
func (r *Repository) Preset(id uint32) (*Preset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.presets[id]
	if !ok {
		return nil, fmt.Errorf("preset %d: %w", id, ErrUnknownPreset)
	}
	return p, nil
}

// DeletePresets deletes unreferenced presets and drops their fontsound
// references. Nothing is deleted if any id is unknown or referenced.
func (r *Repository) DeletePresets(ids []uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		p, ok := r.presets[id]
		if !ok {
			return fmt.Errorf("DeletePresets(%d): %w", id, ErrUnknownPreset)
		}
		if p.RefCount() != 0 {
			return fmt.Errorf("DeletePresets(%d): %w", id, ErrInUse)
		}
	}
	for _, id := range ids {
		p, ok := r.presets[id]
		if !ok {
			continue
		}
		delete(r.presets, id)
		p.release()
	}
	return nil
}

// Counts returns the number of registered soundfonts, presets and
// fontsounds. The default soundfont is not counted.
func (r *Repository) Counts() (fonts, presets, sounds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.fonts), len(r.presets), len(r.sounds)
}

// ReleaseAll destroys every object regardless of reference counts.
func (r *Repository) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sf := range r.fonts {
		sf.swapPresets(nil)
		delete(r.fonts, id)
	}
	if r.def != nil {
		r.def.swapPresets(nil)
		r.def = nil
	}
	for _, sf := range r.retired {
		sf.swapPresets(nil)
	}
	r.retired = nil
	for id, p := range r.presets {
		p.sounds = nil
		delete(r.presets, id)
	}
	clear(r.sounds)
}

func checkRange(n, offset, count int) error {
	if offset < 0 || count <= 0 || offset >= n || count > n-offset {
		return ErrSampleRange
	}
	return nil
}
