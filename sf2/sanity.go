// SPDX-License-Identifier: EPL-2.0

package sf2

import "fmt"

// checkIndexChain verifies that idx(i) is below limit for every record and
// never decreases from one record to the next.
func checkIndexChain(table string, n, limit int, idx func(int) int, kind error) error {
	for i := range n {
		if idx(i) >= limit {
			return fmt.Errorf("%w: %s %d points at %d of %d", kind, table, i, idx(i), limit)
		}
		if i+1 < n && idx(i+1) < idx(i) {
			return fmt.Errorf("%w: %s %d index %d does not follow %d", kind, table, i+1, idx(i+1), idx(i))
		}
	}
	return nil
}

// checkSanity validates the index chains tying the pdta tables together,
// so zone resolution can slice them without bounds checks failing.
func (f *rawFile) checkSanity() error {
	checks := []struct {
		table string
		n     int
		limit int
		idx   func(int) int
		kind  error
	}{
		{"preset", len(f.phdr), len(f.pbag), func(i int) int { return int(f.phdr[i].ZoneIdx) }, ErrZoneIndex},
		{"preset zone", len(f.pbag), len(f.pgen), func(i int) int { return int(f.pbag[i].GenIdx) }, ErrGenIndex},
		{"preset zone", len(f.pbag), len(f.pmod), func(i int) int { return int(f.pbag[i].ModIdx) }, ErrModIndex},
		{"instrument", len(f.inst), len(f.ibag), func(i int) int { return int(f.inst[i].ZoneIdx) }, ErrZoneIndex},
		{"instrument zone", len(f.ibag), len(f.igen), func(i int) int { return int(f.ibag[i].GenIdx) }, ErrGenIndex},
		{"instrument zone", len(f.ibag), len(f.imod), func(i int) int { return int(f.ibag[i].ModIdx) }, ErrModIndex},
	}
	for _, c := range checks {
		if err := checkIndexChain(c.table, c.n, c.limit, c.idx, c.kind); err != nil {
			return err
		}
	}

	if !f.hasROM {
		for i := 0; i < len(f.shdr)-1; i++ {
			if f.shdr[i].SampleType&sampleROM != 0 {
				return fmt.Errorf("%w: sample header %d", ErrMissingROM, i)
			}
		}
	}
	return nil
}
