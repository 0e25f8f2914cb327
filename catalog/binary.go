package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"time"

	"github.com/pierrec/lz4/v4"
)

// Manifest binary format, modeled on the teacher's self-describing
// MANIFEST blob (magic/version/checksum header over an lz4-compressed
// payload):
//
//	Magic (4 bytes)
//	Version (4 bytes)
//	Checksum (4 bytes) - CRC32 of the *compressed* payload
//	CompressedLen (4 bytes)
//	UncompressedLen (4 bytes)
//	Payload (lz4 block, CompressedLen bytes)
const (
	binaryMagic   = 0x4d545243 // "MTRC"
	binaryVersion = 1
)

func encodeManifest(m *Manifest) ([]byte, error) {
	var pb payloadBuffer

	pb.writeUint64(m.ID)
	pb.writeUint64(uint64(m.CreatedAt.UnixNano()))
	pb.writeUint64(m.NextPartSeq)
	pb.writeUint32(uint32(len(m.Parts)))

	for _, p := range m.Parts {
		pb.writeString(p.Name)
		pb.writeUint64(p.MinDate)
		pb.writeUint64(p.MaxDate)
		pb.writeUint32(uint32(p.MarksCount))
		pb.writeUint32(uint32(p.IndexGranularity))
		pb.writeUint32(uint32(p.RowsCount))
		pb.writeString(p.Path)
		pb.writeUint64(uint64(p.Size))
		writeStats(&pb, p.Stats)
	}

	if pb.err != nil {
		return nil, pb.err
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(pb.buf)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(pb.buf, compressed)
	if err != nil {
		return nil, fmt.Errorf("catalog: lz4 compress: %w", err)
	}
	compressed = compressed[:n]

	checksum := crc32.ChecksumIEEE(compressed)

	header := make([]byte, 20)
	binary.LittleEndian.PutUint32(header[0:4], binaryMagic)
	binary.LittleEndian.PutUint32(header[4:8], binaryVersion)
	binary.LittleEndian.PutUint32(header[8:12], checksum)
	binary.LittleEndian.PutUint32(header[12:16], uint32(n))
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(pb.buf)))

	out := bytes.NewBuffer(header)
	out.Write(compressed)
	return out.Bytes(), nil
}

func decodeManifest(data []byte) (*Manifest, error) {
	if len(data) < 20 {
		return nil, io.ErrUnexpectedEOF
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != binaryMagic {
		return nil, fmt.Errorf("catalog: invalid manifest magic %x", magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != binaryVersion {
		return nil, fmt.Errorf("catalog: unsupported manifest version %d", version)
	}
	checksum := binary.LittleEndian.Uint32(data[8:12])
	compressedLen := binary.LittleEndian.Uint32(data[12:16])
	uncompressedLen := binary.LittleEndian.Uint32(data[16:20])

	compressed := data[20:]
	if uint32(len(compressed)) != compressedLen {
		return nil, io.ErrUnexpectedEOF
	}
	if crc32.ChecksumIEEE(compressed) != checksum {
		return nil, fmt.Errorf("catalog: manifest checksum mismatch")
	}

	payload := make([]byte, uncompressedLen)
	n, err := lz4.UncompressBlock(compressed, payload)
	if err != nil {
		return nil, fmt.Errorf("catalog: lz4 decompress: %w", err)
	}
	payload = payload[:n]

	pb := &payloadBuffer{buf: payload}
	m := &Manifest{Version: int(version)}
	m.ID = pb.readUint64()
	m.CreatedAt = time.Unix(0, int64(pb.readUint64()))
	m.NextPartSeq = pb.readUint64()

	numParts := pb.readUint32()
	m.Parts = make([]PartInfo, numParts)
	for i := range m.Parts {
		m.Parts[i].Name = pb.readString()
		m.Parts[i].MinDate = pb.readUint64()
		m.Parts[i].MaxDate = pb.readUint64()
		m.Parts[i].MarksCount = int(pb.readUint32())
		m.Parts[i].IndexGranularity = int(pb.readUint32())
		m.Parts[i].RowsCount = int(pb.readUint32())
		m.Parts[i].Path = pb.readString()
		m.Parts[i].Size = int64(pb.readUint64())
		m.Parts[i].Stats = readStats(pb)
	}

	if pb.err != nil {
		return nil, pb.err
	}
	return m, nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func (p *payloadBuffer) writeUint64(v uint64) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeFloat64(v float64) {
	p.writeUint64(math.Float64bits(v))
}

func (p *payloadBuffer) writeBool(v bool) {
	if v {
		p.buf = append(p.buf, 1)
	} else {
		p.buf = append(p.buf, 0)
	}
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > 65535 {
		p.err = fmt.Errorf("catalog: string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) readUint64() uint64 {
	if p.err != nil || p.pos+8 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if p.err != nil || p.pos+4 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *payloadBuffer) readFloat64() float64 {
	return math.Float64frombits(p.readUint64())
}

func (p *payloadBuffer) readBool() bool {
	if p.err != nil || p.pos+1 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return false
	}
	v := p.buf[p.pos] != 0
	p.pos++
	return v
}

func (p *payloadBuffer) readString() string {
	if p.err != nil || p.pos+2 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	l := binary.LittleEndian.Uint16(p.buf[p.pos:])
	p.pos += 2
	if p.pos+int(l) > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(p.buf[p.pos : p.pos+int(l)])
	p.pos += int(l)
	return s
}
