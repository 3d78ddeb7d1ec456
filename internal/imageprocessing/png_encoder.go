package imageprocessing

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
)

// EncodeMonoPNG encodes a black-and-white image as a bit-depth-1
// grayscale PNG (color type 0). The standard library encoder cannot
// emit sub-byte grayscale, and 1-bit files are an eighth of the size,
// which matters when renders are stored and re-served.
func EncodeMonoPNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}
	paletted, ok := img.(*image.Paletted)
	if !ok {
		paletted = ToPaletted(img)
	}

	bounds := paletted.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var buf bytes.Buffer

	// PNG signature
	buf.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})

	writeChunk(&buf, "IHDR", func(data *bytes.Buffer) {
		binary.Write(data, binary.BigEndian, uint32(width))
		binary.Write(data, binary.BigEndian, uint32(height))
		data.WriteByte(1) // bit depth
		data.WriteByte(0) // color type: grayscale
		data.WriteByte(0) // compression method
		data.WriteByte(0) // filter method
		data.WriteByte(0) // interlace method
	})

	compressed, err := zlibCompress(packMonoRows(paletted))
	if err != nil {
		return nil, fmt.Errorf("failed to compress image data: %w", err)
	}
	writeChunk(&buf, "IDAT", func(data *bytes.Buffer) {
		data.Write(compressed)
	})

	writeChunk(&buf, "IEND", func(data *bytes.Buffer) {})

	return buf.Bytes(), nil
}

// packMonoRows packs palette indices into PNG scanlines, eight pixels
// per byte MSB-first, each row prefixed with the None filter byte.
// Index 1 (white) becomes a set bit, which is the grayscale value 1 at
// bit depth 1.
func packMonoRows(paletted *image.Paletted) []byte {
	bounds := paletted.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bytesPerRow := (width + 7) / 8
	data := make([]byte, height*(bytesPerRow+1))

	for y := 0; y < height; y++ {
		rowStart := y * (bytesPerRow + 1)
		data[rowStart] = 0 // filter type: None
		for x := 0; x < width; x++ {
			if paletted.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y) == 0 {
				continue
			}
			data[rowStart+1+x/8] |= 1 << (7 - x%8)
		}
	}
	return data
}

// writeChunk writes one PNG chunk with its length and CRC.
func writeChunk(buf *bytes.Buffer, chunkType string, dataWriter func(*bytes.Buffer)) {
	var chunkData bytes.Buffer
	dataWriter(&chunkData)

	data := chunkData.Bytes()

	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(chunkType)
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(data)
	binary.Write(buf, binary.BigEndian, crc.Sum32())
}

func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}
	return buf.Bytes(), nil
}
