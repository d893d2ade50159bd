// SPDX-License-Identifier: EPL-2.0

// Package sf2 reads and writes SoundFont 2 files.
//
// Load walks the RIFF structure (INFO, sdta and pdta lists), validates the
// index chains that tie presets, instruments and samples together, and runs
// zone resolution to produce one soundfont.Fontsound per playable instrument
// zone. A structural problem aborts the whole load with an error wrapping
// ErrMalformed. Problems local to one zone are logged and the zone is
// skipped.
//
// Encode writes presets and their sample data back out as an SF2 file.
package sf2
