package testsupport

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// ExifOptions describes the tags written into a fixture JPEG.
type ExifOptions struct {
	// DateTimeOriginal in EXIF form ("2025:03:14 10:00:00"); empty omits the tag.
	DateTimeOriginal string
	// GPS adds a GPS IFD carrying a GPSVersionID entry.
	GPS bool
}

const (
	tagExifIFDPointer   = 0x8769
	tagGPSIFDPointer    = 0x8825
	tagDateTimeOriginal = 0x9003
	tagGPSVersionID     = 0x0000

	typeByte  = 1
	typeASCII = 2
	typeLong  = 4
)

// JPEG returns a minimal JPEG stream: SOI, an APP1 Exif segment built from
// opts, the payload bytes, and EOI. The payload lets tests vary content.
func JPEG(t testing.TB, opts ExifOptions, payload []byte) []byte {
	t.Helper()

	tiff := buildTIFF(opts)

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})
	buf.Write([]byte{0xFF, 0xE1})
	segment := append([]byte("Exif\x00\x00"), tiff...)
	if len(segment)+2 > 0xFFFF {
		t.Fatalf("exif segment too large: %d", len(segment))
	}
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(segment)+2))
	buf.Write(segment)
	buf.Write([]byte{0xFF, 0xFE})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
}

func buildTIFF(opts ExifOptions) []byte {
	le := binary.LittleEndian

	const headerSize = 8
	ifdSize := func(n int) uint32 { return uint32(2 + 12*n + 4) }

	ifd0Count := 1
	if opts.GPS {
		ifd0Count++
	}
	exifCount := 0
	if opts.DateTimeOriginal != "" {
		exifCount = 1
	}

	exifOffset := headerSize + ifdSize(ifd0Count)
	dateOffset := exifOffset + ifdSize(exifCount)
	dateValue := []byte(opts.DateTimeOriginal + "\x00")
	gpsOffset := dateOffset
	if exifCount > 0 {
		gpsOffset += uint32(len(dateValue))
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, le, uint16(42))
	_ = binary.Write(&buf, le, uint32(headerSize))

	ifd0 := []ifdEntry{{tag: tagExifIFDPointer, typ: typeLong, count: 1, value: exifOffset}}
	if opts.GPS {
		ifd0 = append(ifd0, ifdEntry{tag: tagGPSIFDPointer, typ: typeLong, count: 1, value: gpsOffset})
	}
	writeIFD(&buf, ifd0)

	var exifEntries []ifdEntry
	if exifCount > 0 {
		exifEntries = append(exifEntries, ifdEntry{tag: tagDateTimeOriginal, typ: typeASCII, count: uint32(len(dateValue)), value: dateOffset})
	}
	writeIFD(&buf, exifEntries)
	if exifCount > 0 {
		buf.Write(dateValue)
	}

	if opts.GPS {
		// Version 2.2.0.0 packed inline, first byte in the lowest address.
		writeIFD(&buf, []ifdEntry{{tag: tagGPSVersionID, typ: typeByte, count: 4, value: 0x00000202}})
	}
	return buf.Bytes()
}

func writeIFD(buf *bytes.Buffer, entries []ifdEntry) {
	le := binary.LittleEndian
	_ = binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, le, e.tag)
		_ = binary.Write(buf, le, e.typ)
		_ = binary.Write(buf, le, e.count)
		_ = binary.Write(buf, le, e.value)
	}
	_ = binary.Write(buf, le, uint32(0))
}
