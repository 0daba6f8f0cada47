package extract

import (
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"
)

type piece struct {
	text       string
	compressed bool
}

// buildWordStreams lays out a WordDocument stream holding the pieces and a table
// stream whose Clx points at them.
func buildWordStreams(pieces []piece, ccpText int) (word, table []byte) {
	word = make([]byte, 0x400)
	binary.LittleEndian.PutUint16(word, wordIdent)
	binary.LittleEndian.PutUint16(word[fibFlagsOffset:], flagWhichTblStm)
	binary.LittleEndian.PutUint32(word[fibCcpTextOffset:], uint32(ccpText))

	cps := []uint32{0}
	fcs := make([]uint32, 0, len(pieces))
	for _, p := range pieces {
		offset := len(word)
		if p.compressed {
			word = append(word, []byte(p.text)...)
			fcs = append(fcs, uint32(offset*2)|fcCompressed)
		} else {
			for _, u := range utf16.Encode([]rune(p.text)) {
				word = binary.LittleEndian.AppendUint16(word, u)
			}
			fcs = append(fcs, uint32(offset))
		}
		cps = append(cps, cps[len(cps)-1]+uint32(len([]rune(p.text))))
	}

	var plc []byte
	for _, cp := range cps {
		plc = binary.LittleEndian.AppendUint32(plc, cp)
	}
	for _, fc := range fcs {
		pcd := make([]byte, pcdSize)
		binary.LittleEndian.PutUint32(pcd[2:], fc)
		plc = append(plc, pcd...)
	}

	// A Prc entry ahead of the Pcdt must be skipped.
	table = []byte{0xFF, 0xFF}
	fcClx := len(table)
	table = append(table, clxPrc, 0x02, 0x00, 0xAA, 0xBB)
	table = append(table, clxPcdt)
	table = binary.LittleEndian.AppendUint32(table, uint32(len(plc)))
	table = append(table, plc...)

	binary.LittleEndian.PutUint32(word[fibFcClxOffset:], uint32(fcClx))
	binary.LittleEndian.PutUint32(word[fibLcbClxOffset:], uint32(len(table)-fcClx))
	return word, table
}

func TestPieceTextMixedEncodings(t *testing.T) {
	word, table := buildWordStreams([]piece{
		{text: "Jane Doe\rSenior Engineer\r", compressed: true},
		{text: "Résumé: Go ✓ Kubernetes\r", compressed: false},
	}, 0)

	got, err := pieceText(word, table)
	if err != nil {
		t.Fatalf("pieceText failed: %v", err)
	}
	want := "Jane Doe\nSenior Engineer\nRésumé: Go ✓ Kubernetes\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPieceTextTruncatesToMainDocument(t *testing.T) {
	main := "Body text here\r"
	word, table := buildWordStreams([]piece{
		{text: main + "footnote text\r", compressed: true},
	}, len(main))

	got, err := pieceText(word, table)
	if err != nil {
		t.Fatalf("pieceText failed: %v", err)
	}
	if got != "Body text here\n" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestPieceTextRejectsEncryptedAndForeignStreams(t *testing.T) {
	word, table := buildWordStreams([]piece{{text: "secret resume\r", compressed: true}}, 0)
	flags := binary.LittleEndian.Uint16(word[fibFlagsOffset:])
	binary.LittleEndian.PutUint16(word[fibFlagsOffset:], flags|flagEncrypted)
	if _, err := pieceText(word, table); err == nil || !strings.Contains(err.Error(), "encrypted") {
		t.Fatalf("expected encrypted error, got %v", err)
	}

	if _, err := pieceText(make([]byte, fibMinSize), table); err != errNotWordBinary {
		t.Fatalf("expected not-a-word-document error, got %v", err)
	}
}

func TestPieceTextClxOutOfRange(t *testing.T) {
	word, table := buildWordStreams([]piece{{text: "some resume text\r", compressed: true}}, 0)
	if _, err := pieceText(word, table[:3]); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestCleanWordTextFields(t *testing.T) {
	raw := []rune("Email: \x13 HYPERLINK \"mailto:jane@example.com\" \x14jane@example.com\x15\rA\x07B\x0bC\x1eD")
	got := cleanWordText(raw)
	want := "Email: jane@example.com\nA\tB\nC-D"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractDOCRejectsNonCompoundFile(t *testing.T) {
	if _, err := extractDOC([]byte("plain bytes, not OLE")); err == nil {
		t.Fatal("expected compound file error")
	}
}
