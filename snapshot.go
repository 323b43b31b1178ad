package annex

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/annexsearch/annex/codec"
)

// Compression selects the snapshot stream compression.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionLZ4  Compression = "lz4"
	CompressionZstd Compression = "zstd"
)

// snapshotMagic identifies an annex snapshot stream.
var snapshotMagic = [4]byte{'A', 'N', 'X', 'S'}

const snapshotVersion = 1

// Snapshot is a full, portable copy of a store's contents.
//
// It carries plain arrays only: restoring re-derives slots and LSH buckets
// from scratch through the normal insert path, so a restored store's
// invariants hold even if the snapshot was produced by a corrupted one.
type Snapshot struct {
	Dimension int             `json:"dimension"`
	Tables    int             `json:"tables"`
	Bits      int             `json:"bits"`
	Entries   []SnapshotEntry `json:"entries"`
}

// SnapshotEntry is one document with its (already normalized) vector.
// Vector is nil for metadata-only documents.
type SnapshotEntry struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"vector,omitempty"`
	Document Document  `json:"document"`
}

// Snapshot captures the current contents.
//
// Vector entries appear in ascending slot order and metadata-only documents
// follow in id order, so restoring into a fresh store reproduces slot
// assignment and with it the deterministic tie-break ordering of queries.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Dimension: s.vectors.Dimension(),
		Tables:    s.index.Tables(),
		Bits:      s.index.Bits(),
		Entries:   make([]SnapshotEntry, 0, len(s.docs)),
	}

	s.vectors.Iterate(func(slot uint32, vec []float32) bool {
		id, _ := s.vectors.ID(slot)
		entry := SnapshotEntry{
			ID:       id,
			Vector:   append([]float32(nil), vec...),
			Document: s.docs[id],
		}
		snap.Entries = append(snap.Entries, entry)
		return true
	})

	var docOnly []string
	for id := range s.docs {
		if !s.vectors.Has(id) {
			docOnly = append(docOnly, id)
		}
	}
	sort.Strings(docOnly)
	for _, id := range docOnly {
		snap.Entries = append(snap.Entries, SnapshotEntry{ID: id, Document: s.docs[id]})
	}

	return snap
}

// FromSnapshot builds a new store from a snapshot by replaying its entries
// through the normal insert path. Tables and bits recorded in the snapshot
// take precedence over options so hash assignments line up with the original
// configuration.
func FromSnapshot(snap *Snapshot, optFns ...Option) (*Store, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}
	if snap.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrMalformedSnapshot, snap.Dimension)
	}

	if snap.Tables > 0 {
		optFns = append(optFns, WithTables(snap.Tables))
	}
	if snap.Bits > 0 {
		optFns = append(optFns, WithBits(snap.Bits))
	}

	s, err := New(snap.Dimension, optFns...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	ctx := context.Background()

	var (
		vectors [][]float32
		docs    []Document
		ids     []string
		docOnly []Document
	)
	for _, entry := range snap.Entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("%w: entry with empty id", ErrMalformedSnapshot)
		}
		doc := entry.Document
		doc.ID = entry.ID
		if entry.Vector == nil {
			docOnly = append(docOnly, doc)
			continue
		}
		vectors = append(vectors, entry.Vector)
		docs = append(docs, doc)
		ids = append(ids, entry.ID)
	}

	if len(vectors) > 0 {
		if _, err := s.AddVectors(ctx, vectors, WithIDs(ids), WithDocuments(docs)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
		}
	}
	if len(docOnly) > 0 {
		if _, err := s.AddDocuments(ctx, docOnly, nil); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
		}
	}
	return s, nil
}

// ToJSON returns the snapshot serialized with the configured codec.
func (s *Store) ToJSON() ([]byte, error) {
	return s.opts.Codec.Marshal(s.Snapshot())
}

// FromJSON builds a new store from data produced by ToJSON.
func FromJSON(data []byte, optFns ...Option) (*Store, error) {
	opts := applyOptions(optFns)

	var snap Snapshot
	if err := opts.Codec.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return FromSnapshot(&snap, optFns...)
}

// SaveToWriter writes a self-describing snapshot stream to w.
// The header records the codec and compression by name; loading never
// depends on the loader's configuration.
func (s *Store) SaveToWriter(w io.Writer) error {
	snap := s.Snapshot()

	payload, err := s.opts.Codec.Marshal(snap)
	if err != nil {
		s.opts.Logger.LogSnapshot(context.Background(), len(snap.Entries), err)
		return err
	}

	if err := writeSnapshotHeader(w, s.opts.Codec.Name(), s.opts.Compression); err != nil {
		return err
	}

	cw, err := newCompressionWriter(w, s.opts.Compression)
	if err != nil {
		return err
	}
	if _, err := cw.Write(payload); err != nil {
		_ = cw.Close()
		return err
	}
	err = cw.Close()
	s.opts.Logger.LogSnapshot(context.Background(), len(snap.Entries), err)
	return err
}

// LoadFromReader restores a store from a stream written by SaveToWriter.
func LoadFromReader(r io.Reader, optFns ...Option) (*Store, error) {
	codecName, compression, err := readSnapshotHeader(r)
	if err != nil {
		return nil, err
	}

	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrMalformedSnapshot, codecName)
	}

	cr, err := newCompressionReader(r, compression)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	payload, err := io.ReadAll(cr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	var snap Snapshot
	if err := c.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	return FromSnapshot(&snap, optFns...)
}

func writeSnapshotHeader(w io.Writer, codecName string, compression Compression) error {
	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(snapshotVersion)); err != nil {
		return err
	}
	if err := writeString(w, codecName); err != nil {
		return err
	}
	return writeString(w, string(compression))
}

func readSnapshotHeader(r io.Reader) (codecName string, compression Compression, err error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	if magic != snapshotMagic {
		return "", "", fmt.Errorf("%w: bad magic", ErrMalformedSnapshot)
	}

	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	if version != snapshotVersion {
		return "", "", fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, version)
	}

	codecName, err = readString(r)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	comp, err := readString(r)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return codecName, Compression(comp), nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > 255 {
		return fmt.Errorf("header string too long: %d", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint8
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newCompressionWriter(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone, "":
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported compression: %q", compression)
	}
}

func newCompressionReader(r io.Reader, compression Compression) (io.ReadCloser, error) {
	switch compression {
	case CompressionNone, "":
		return io.NopCloser(r), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression %q", ErrMalformedSnapshot, compression)
	}
}
