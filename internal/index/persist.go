package index

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	dxerrors "github.com/docdex/docdex/internal/errors"
)

// Vector artifact layout: magic, format version, dims, count, then
// count*dims little-endian float32 values.
const (
	indexMagic   = uint32(0x44584958) // "DXIX"
	indexVersion = uint32(1)
)

// indexMetadata is the gob-encoded metadata artifact. Dims and the entry
// count are recorded so a reload can cross-check the pair eagerly.
type indexMetadata struct {
	Dims  int
	Metas []DocMeta
}

// Save persists the vector store and the ordinal-to-metadata mapping as two
// artifacts. Both are written via temp file + rename so a crash mid-persist
// leaves prior valid artifacts untouched. After Save, a Load from the same
// two paths reconstructs an index returning identical search results.
func (x *Flat) Save(indexPath, metaPath string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := x.saveVectors(indexPath); err != nil {
		return fmt.Errorf("save index artifact: %w", err)
	}
	if err := x.saveMetadata(metaPath); err != nil {
		return fmt.Errorf("save metadata artifact: %w", err)
	}
	return nil
}

func (x *Flat) saveVectors(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	header := []uint32{indexMagic, indexVersion, uint32(x.dims), uint32(len(x.vectors))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
			return err
		}
	}
	buf := make([]byte, 4)
	for _, vec := range x.vectors {
		for _, val := range vec {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(val))
			if _, err := w.Write(buf); err != nil {
				_ = f.Close()
				_ = os.Remove(tmpPath)
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func (x *Flat) saveMetadata(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	meta := indexMetadata{Dims: x.dims, Metas: x.metas}
	if err := gob.NewEncoder(f).Encode(meta); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reloads a persisted index. It fails with CorruptIndex if either
// artifact is missing or unreadable, or if the vector count in the index
// artifact does not equal the metadata entry count. Cross-artifact
// consistency is checked here, never discovered lazily during search.
func Load(indexPath, metaPath string) (*Flat, error) {
	dims, vectors, err := loadVectors(indexPath)
	if err != nil {
		return nil, dxerrors.CorruptIndex(fmt.Sprintf("index artifact %s", indexPath), err)
	}

	meta, err := loadMetadata(metaPath)
	if err != nil {
		return nil, dxerrors.CorruptIndex(fmt.Sprintf("metadata artifact %s", metaPath), err)
	}

	if len(vectors) != len(meta.Metas) {
		return nil, dxerrors.CorruptIndex(fmt.Sprintf(
			"artifact pair inconsistent: %d vectors but %d metadata entries",
			len(vectors), len(meta.Metas)), nil)
	}
	if len(vectors) > 0 && dims != meta.Dims {
		return nil, dxerrors.CorruptIndex(fmt.Sprintf(
			"artifact pair inconsistent: index dims %d but metadata dims %d",
			dims, meta.Dims), nil)
	}

	return &Flat{dims: dims, vectors: vectors, metas: meta.Metas}, nil
}

func loadVectors(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)
	var magic, version, dims, count uint32
	for _, dst := range []*uint32{&magic, &version, &dims, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return 0, nil, fmt.Errorf("read header: %w", err)
		}
	}
	if magic != indexMagic {
		return 0, nil, fmt.Errorf("bad magic %#x", magic)
	}
	if version != indexVersion {
		return 0, nil, fmt.Errorf("unsupported format version %d", version)
	}

	// Cross-check the header against the file size before trusting count and
	// dims for allocation. A corrupt header must fail here, not OOM.
	fi, err := f.Stat()
	if err != nil {
		return 0, nil, err
	}
	payload := fi.Size() - 16
	vecBytes := int64(dims) * 4
	headerConsistent := payload >= 0 &&
		((vecBytes == 0 && count == 0 && payload == 0) ||
			(vecBytes > 0 && payload%vecBytes == 0 && payload/vecBytes == int64(count)))
	if !headerConsistent {
		return 0, nil, fmt.Errorf(
			"artifact is %d bytes but header declares %d vectors of %d dims",
			fi.Size(), count, dims)
	}

	vectors := make([][]float32, count)
	buf := make([]byte, int(dims)*4)
	for i := range vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		vec := make([]float32, dims)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		vectors[i] = vec
	}
	return int(dims), vectors, nil
}

func loadMetadata(path string) (*indexMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var meta indexMetadata
	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}
