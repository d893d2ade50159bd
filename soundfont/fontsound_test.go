// SPDX-License-Identifier: EPL-2.0

package soundfont

import "testing"

func TestParamForGenerator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		gen  int
		want Param
		ok   bool
	}{
		{48, ParamAttenuation, true},
		{38, ParamVolEnvRelease, true},
		{GenInstrument, -1, false},
		{53, -1, false},
		{-1, -1, false},
		{NumGenerators, -1, false},
	}
	for _, tt := range tests {
		got, ok := ParamForGenerator(tt.gen)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParamForGenerator(%d) = %v, %v, want %v, %v", tt.gen, got, ok, tt.want, tt.ok)
		}
		if ok && got.Generator() != tt.gen {
			t.Errorf("Param(%v).Generator() = %d, want %d", got, got.Generator(), tt.gen)
		}
	}
}

func TestDefaultParams(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	if got := p[ParamVolEnvRelease]; got != -12000 {
		t.Errorf("release default = %d, want -12000", got)
	}
	if got := p[ParamScaleTuning]; got != 100 {
		t.Errorf("scale tuning default = %d, want 100", got)
	}
	if got := p[ParamAttenuation]; got != 0 {
		t.Errorf("attenuation default = %d, want 0", got)
	}
}

func TestFontsound_Matches(t *testing.T) {
	t.Parallel()

	f := NewFontsound()
	f.MinKey, f.MaxKey = 40, 60
	f.MinVelocity, f.MaxVelocity = 1, 100

	tests := []struct {
		key, vel int
		want     bool
	}{
		{40, 1, true},
		{60, 100, true},
		{39, 50, false},
		{61, 50, false},
		{50, 0, false},
		{50, 101, false},
	}
	for _, tt := range tests {
		if got := f.Matches(tt.key, tt.vel); got != tt.want {
			t.Errorf("Matches(%d, %d) = %v, want %v", tt.key, tt.vel, got, tt.want)
		}
	}

	if got := f.Param(NumParams); got != 0 {
		t.Errorf("Param(NumParams) = %d, want 0", got)
	}
}

func TestPreset_Lookup(t *testing.T) {
	t.Parallel()

	low, high := NewFontsound(), NewFontsound()
	low.MaxKey = 59
	high.MinKey = 60
	p := NewPreset(0, 0, []*Fontsound{low, high})

	got := p.Lookup(nil, 72, 100)
	if len(got) != 1 || got[0] != high {
		t.Fatalf("Lookup(72) = %v, want the upper split", got)
	}
	if got := p.Lookup(nil, 30, 100); len(got) != 1 || got[0] != low {
		t.Fatalf("Lookup(30) = %v, want the lower split", got)
	}
}
