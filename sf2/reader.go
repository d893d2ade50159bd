// SPDX-License-Identifier: EPL-2.0

package sf2

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-audio/riff"
)

type fourCC = [4]byte

var (
	idRiff = fourCC{'R', 'I', 'F', 'F'}
	idList = fourCC{'L', 'I', 'S', 'T'}
	idSfbk = fourCC{'s', 'f', 'b', 'k'}
	idInfo = fourCC{'I', 'N', 'F', 'O'}
	idSdta = fourCC{'s', 'd', 't', 'a'}
	idPdta = fourCC{'p', 'd', 't', 'a'}
	idIfil = fourCC{'i', 'f', 'i', 'l'}
	idIrom = fourCC{'i', 'r', 'o', 'm'}
	idSmpl = fourCC{'s', 'm', 'p', 'l'}
)

// INFO sub-chunks holding text, with the label used when logging them.
var infoStrings = map[fourCC]string{
	{'i', 's', 'n', 'g'}: "sound engine",
	{'I', 'N', 'A', 'M'}: "bank name",
	{'I', 'C', 'R', 'D'}: "creation date",
	{'I', 'E', 'N', 'G'}: "engineers",
	{'I', 'P', 'R', 'D'}: "product",
	{'I', 'C', 'O', 'P'}: "copyright",
	{'I', 'C', 'M', 'T'}: "comments",
	{'I', 'S', 'F', 'T'}: "software",
}

// rawFile is the undecoded content of an SF2 file: its tables as stored.
type rawFile struct {
	version uint32
	romID   string
	hasROM  bool
	samples []int16

	phdr []presetHeader
	pbag []bag
	pmod []modulator
	pgen []generator
	inst []instHeader
	ibag []bag
	imod []modulator
	igen []generator
	shdr []sampleHeader
}

// list is an open LIST chunk. body yields the bytes after the list type.
type list struct {
	body *io.LimitedReader
}

func (l list) remaining() int64 { return l.body.N }

// discard skips whatever is left of the list.
func (l list) discard() error {
	if _, err := io.Copy(io.Discard, l.body); err != nil {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return nil
}

func openList(p *riff.Parser, want fourCC) (list, error) {
	ch, err := p.NextChunk()
	if err != nil {
		return list{}, fmt.Errorf("%w: LIST %s: %w", ErrTruncated, want[:], err)
	}
	if ch.ID != idList {
		return list{}, fmt.Errorf("%w: expected LIST (%s), got %q", ErrChunkOrder, want[:], ch.ID[:])
	}
	if ch.Size < 4 {
		return list{}, fmt.Errorf("%w: LIST (%s) is %d bytes", ErrChunkSize, want[:], ch.Size)
	}

	var typ fourCC
	if _, err := io.ReadFull(ch, typ[:]); err != nil {
		return list{}, fmt.Errorf("%w: LIST (%s): %w", ErrTruncated, want[:], err)
	}
	if typ != want {
		return list{}, fmt.Errorf("%w: expected %s, got %q", ErrChunkOrder, want[:], typ[:])
	}

	return list{body: &io.LimitedReader{R: ch, N: int64(ch.Size) - 4}}, nil
}

// readChunk reads the whole body of the next sub-chunk, which must be want.
func readChunk(sub *riff.Parser, want fourCC) ([]byte, error) {
	ch, err := sub.NextChunk()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTruncated, want[:], err)
	}
	if ch.ID != want {
		return nil, fmt.Errorf("%w: expected %s, got %q", ErrChunkOrder, want[:], ch.ID[:])
	}

	data := make([]byte, ch.Size)
	if _, err := io.ReadFull(ch, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTruncated, want[:], err)
	}
	return data, nil
}

// readFile parses the RIFF structure of an SF2 file into its raw tables.
func readFile(r io.Reader, logger *slog.Logger) (*rawFile, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotRIFF, err)
	}
	if p.ID != idRiff {
		return nil, fmt.Errorf("%w: got %q", ErrNotRIFF, p.ID[:])
	}
	if p.Format != idSfbk {
		return nil, fmt.Errorf("%w: got %q", ErrNotSoundfont, p.Format[:])
	}

	f := &rawFile{}
	if err := f.readInfo(p, logger); err != nil {
		return nil, err
	}
	if err := f.readSdta(p); err != nil {
		return nil, err
	}
	if err := f.readPdta(p); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *rawFile) readInfo(p *riff.Parser, logger *slog.Logger) error {
	info, err := openList(p, idInfo)
	if err != nil {
		return err
	}

	sub := riff.New(info.body)
	for info.remaining() > 0 {
		if info.remaining() < 8 {
			logger.Warn("unexpected end of INFO list", slog.Int64("extra", info.remaining()))
			break
		}

		ch, err := sub.NextChunk()
		if err != nil {
			return fmt.Errorf("%w: INFO: %w", ErrTruncated, err)
		}
		if int64(ch.Size) > info.remaining() {
			logger.Warn("INFO sub-chunk larger than its list",
				slog.String("chunk", string(ch.ID[:])),
				slog.Int("size", ch.Size),
				slog.Int64("remaining", info.remaining()),
			)
			break
		}

		data := make([]byte, ch.Size)
		if _, err := io.ReadFull(ch, data); err != nil {
			return fmt.Errorf("%w: INFO %s: %w", ErrTruncated, ch.ID[:], err)
		}

		switch ch.ID {
		case idIfil:
			if len(data) != 4 {
				return fmt.Errorf("%w: ifil is %d bytes", ErrChunkSize, len(data))
			}
			major, minor := le.Uint16(data), le.Uint16(data[2:])
			if major != 2 {
				return fmt.Errorf("%w: %d.%d", ErrVersion, major, minor)
			}
			f.version = uint32(major)<<16 | uint32(minor)
			logger.Debug("SF2 format version", slog.Int("major", int(major)), slog.Int("minor", int(minor)))
		case idIrom:
			if len(data) == 0 || len(data)%2 != 0 {
				return fmt.Errorf("%w: irom is %d bytes", ErrChunkSize, len(data))
			}
			f.romID = decodeName(data)
			f.hasROM = true
			logger.Debug("SF2 ROM id", slog.String("rom", f.romID))
		default:
			if label, ok := infoStrings[ch.ID]; ok {
				logger.Debug("SF2 "+label, slog.String("value", decodeName(data)))
				continue
			}
			logger.Debug("skipping INFO sub-chunk", slog.String("chunk", string(ch.ID[:])), slog.Int("size", ch.Size))
		}
	}

	if err := info.discard(); err != nil {
		return err
	}
	if f.version == 0 {
		return ErrMissingIfil
	}
	return nil
}

func (f *rawFile) readSdta(p *riff.Parser) error {
	sdta, err := openList(p, idSdta)
	if err != nil {
		return err
	}

	sub := riff.New(sdta.body)
	ch, err := sub.NextChunk()
	if err != nil {
		return fmt.Errorf("%w: smpl: %w", ErrTruncated, err)
	}
	if ch.ID != idSmpl {
		return fmt.Errorf("%w: expected smpl, got %q", ErrChunkOrder, ch.ID[:])
	}
	if int64(ch.Size) > sdta.remaining() {
		return fmt.Errorf("%w: smpl is %d bytes but sdta holds %d", ErrChunkSize, ch.Size, sdta.remaining())
	}

	data := make([]byte, ch.Size)
	if _, err := io.ReadFull(ch, data); err != nil {
		return fmt.Errorf("%w: smpl: %w", ErrTruncated, err)
	}
	f.samples = decodeSamples(data)

	return sdta.discard()
}

func readTable[T any](sub *riff.Parser, id string, size int, decode func([]byte) T) ([]T, error) {
	data, err := readChunk(sub, fourCC([]byte(id)))
	if err != nil {
		return nil, err
	}
	return decodeTable(id, data, size, decode)
}

func (f *rawFile) readPdta(p *riff.Parser) error {
	pdta, err := openList(p, idPdta)
	if err != nil {
		return err
	}
	sub := riff.New(pdta.body)

	if f.phdr, err = readTable(sub, "phdr", presetHeaderSize, decodePresetHeader); err != nil {
		return err
	}
	if f.pbag, err = readTable(sub, "pbag", bagSize, decodeBag); err != nil {
		return err
	}
	if f.pmod, err = readTable(sub, "pmod", modSize, decodeModulator); err != nil {
		return err
	}
	if f.pgen, err = readTable(sub, "pgen", genSize, decodeGenerator); err != nil {
		return err
	}
	if f.inst, err = readTable(sub, "inst", instHeaderSize, decodeInstHeader); err != nil {
		return err
	}
	if f.ibag, err = readTable(sub, "ibag", bagSize, decodeBag); err != nil {
		return err
	}
	if f.imod, err = readTable(sub, "imod", modSize, decodeModulator); err != nil {
		return err
	}
	if f.igen, err = readTable(sub, "igen", genSize, decodeGenerator); err != nil {
		return err
	}
	if f.shdr, err = readTable(sub, "shdr", sampleHeaderSize, decodeSampleHeader); err != nil {
		return err
	}

	return pdta.discard()
}
