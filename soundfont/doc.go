// SPDX-License-Identifier: EPL-2.0

// Package soundfont holds the renderable form of SF2 data and the handle
// tables that own it.
//
// A SoundFont references Presets, and a Preset references Fontsounds. Every
// object is reference counted with atomic counters and registered in a
// Repository under a uint32 handle. An object can be deleted only once its
// reference count is zero. Handle 0 names the default soundfont, which the
// Repository creates on first use.
//
//	repo := soundfont.NewRepository(nil)
//	ids, _ := repo.GenSoundfonts(1)
//	f, _ := os.Open("piano.sf2")
//	err := repo.LoadSoundfont(ids[0], f, sf2.NewLoader(nil))
package soundfont
