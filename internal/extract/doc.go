package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Word 97-2003 binary layout. Offsets are into the FIB at the start of the
// WordDocument stream.
const (
	wordIdent        = 0xA5EC
	fibFlagsOffset   = 0x0A
	fibCcpTextOffset = 0x4C
	fibFcClxOffset   = 0x1A2
	fibLcbClxOffset  = 0x1A6
	fibMinSize       = 0x1AA

	flagEncrypted   = 0x0100
	flagWhichTblStm = 0x0200

	clxPrc  = 0x01
	clxPcdt = 0x02

	pcdSize        = 8
	fcCompressed   = 0x40000000
	fcOffsetMask   = 0x3FFFFFFF
	maxPieceLength = 64 << 20
)

var errNotWordBinary = errors.New("not a Word 97-2003 document")

// extractDOC reads the WordDocument and table streams out of the compound file
// and rebuilds the main document text from the piece table.
func extractDOC(data []byte) (string, error) {
	reader, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open compound file: %w", err)
	}

	streams := make(map[string][]byte, 3)
	for entry, err := reader.Next(); err == nil; entry, err = reader.Next() {
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
		default:
			continue
		}
		buf := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, buf); err != nil {
			return "", fmt.Errorf("read %s stream: %w", entry.Name, err)
		}
		streams[entry.Name] = buf
	}

	word, ok := streams["WordDocument"]
	if !ok {
		return "", errNotWordBinary
	}
	if len(word) < fibMinSize {
		return "", errors.New("WordDocument stream too short")
	}
	tableName := "0Table"
	if binary.LittleEndian.Uint16(word[fibFlagsOffset:])&flagWhichTblStm != 0 {
		tableName = "1Table"
	}
	table, ok := streams[tableName]
	if !ok {
		return "", fmt.Errorf("%s stream missing", tableName)
	}
	return pieceText(word, table)
}

// pieceText walks the Clx in the table stream and decodes each text piece from
// the WordDocument stream, cp1252 for compressed pieces and UTF-16LE otherwise.
func pieceText(word, table []byte) (string, error) {
	if len(word) < fibMinSize || binary.LittleEndian.Uint16(word) != wordIdent {
		return "", errNotWordBinary
	}
	if binary.LittleEndian.Uint16(word[fibFlagsOffset:])&flagEncrypted != 0 {
		return "", errors.New("document is encrypted")
	}

	fcClx := int(binary.LittleEndian.Uint32(word[fibFcClxOffset:]))
	lcbClx := int(binary.LittleEndian.Uint32(word[fibLcbClxOffset:]))
	if lcbClx <= 0 || fcClx < 0 || fcClx+lcbClx > len(table) {
		return "", errors.New("piece table out of range")
	}
	plc, err := findPlcPcd(table[fcClx : fcClx+lcbClx])
	if err != nil {
		return "", err
	}

	n := (len(plc) - 4) / (4 + pcdSize)
	if n <= 0 {
		return "", errors.New("piece table is empty")
	}
	cps := make([]uint32, n+1)
	for i := range cps {
		cps[i] = binary.LittleEndian.Uint32(plc[i*4:])
	}
	pcds := plc[(n+1)*4:]

	cp1252 := charmap.Windows1252.NewDecoder()
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

	var b strings.Builder
	for i := 0; i < n; i++ {
		if cps[i+1] < cps[i] {
			return "", fmt.Errorf("piece %d has negative length", i)
		}
		count := int(cps[i+1] - cps[i])
		if count > maxPieceLength {
			return "", fmt.Errorf("piece %d too large", i)
		}
		fc := binary.LittleEndian.Uint32(pcds[i*pcdSize+2:])

		var (
			start, end int
			decoded    []byte
		)
		if fc&fcCompressed != 0 {
			start = int(fc&fcOffsetMask) / 2
			end = start + count
			if end > len(word) {
				return "", fmt.Errorf("piece %d out of range", i)
			}
			decoded, err = cp1252.Bytes(word[start:end])
		} else {
			start = int(fc & fcOffsetMask)
			end = start + 2*count
			if end > len(word) {
				return "", fmt.Errorf("piece %d out of range", i)
			}
			decoded, err = utf16.Bytes(word[start:end])
		}
		if err != nil {
			return "", fmt.Errorf("decode piece %d: %w", i, err)
		}
		b.Write(decoded)
	}

	text := []rune(b.String())
	if ccp := int(int32(binary.LittleEndian.Uint32(word[fibCcpTextOffset:]))); ccp > 0 && ccp < len(text) {
		text = text[:ccp]
	}
	return cleanWordText(text), nil
}

// findPlcPcd skips any Prc entries and returns the PlcPcd of the Pcdt.
func findPlcPcd(clx []byte) ([]byte, error) {
	pos := 0
	for pos < len(clx) {
		switch clx[pos] {
		case clxPrc:
			if pos+3 > len(clx) {
				return nil, errors.New("truncated Prc")
			}
			cb := int(int16(binary.LittleEndian.Uint16(clx[pos+1:])))
			if cb < 0 {
				return nil, errors.New("invalid Prc size")
			}
			pos += 3 + cb
		case clxPcdt:
			if pos+5 > len(clx) {
				return nil, errors.New("truncated Pcdt")
			}
			lcb := int(binary.LittleEndian.Uint32(clx[pos+1:]))
			if lcb < 4 || pos+5+lcb > len(clx) {
				return nil, errors.New("invalid Pcdt size")
			}
			return clx[pos+5 : pos+5+lcb], nil
		default:
			return nil, fmt.Errorf("unexpected Clx entry 0x%02x", clx[pos])
		}
	}
	return nil, errors.New("Pcdt not found")
}

// cleanWordText maps Word control characters to plain text. Field instructions
// between 0x13 and 0x14 are dropped and field results are kept.
func cleanWordText(text []rune) string {
	var b strings.Builder
	depth := 0
	inInstruction := make([]bool, 0, 4)
	for _, r := range text {
		switch r {
		case 0x13:
			depth++
			inInstruction = append(inInstruction, true)
			continue
		case 0x14:
			if depth > 0 {
				inInstruction[depth-1] = false
			}
			continue
		case 0x15:
			if depth > 0 {
				depth--
				inInstruction = inInstruction[:depth]
			}
			continue
		}
		if depth > 0 && inInstruction[depth-1] {
			continue
		}
		switch r {
		case '\r', 0x0B, 0x0C, 0x0E:
			b.WriteRune('\n')
		case 0x07:
			b.WriteRune('\t')
		case '\t', '\n':
			b.WriteRune(r)
		case 0x1E:
			b.WriteRune('-')
		case 0x1F:
		default:
			if r >= 0x20 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
