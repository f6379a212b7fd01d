package pack

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/pkg/encoding"
	"github.com/zeusync/assetpack/pkg/fsutil"
)

const (
	// magic(3) pad(1) version(4) buildTime(8)
	headerSize = 16
	// totalSize(8) sceneCount(8)
	indexSize = 16
)

// Load opens the pack file at path, validates its header and reads the scene
// index. Record buffers stay unpopulated until first access, so the file
// stays open until Close.
func (p *Pack) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return asset.IOError("open pack "+path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return asset.IOError("stat pack "+path, err)
	}
	if err = p.LoadFrom(f, st.Size()); err != nil {
		_ = f.Close()
		return err
	}
	p.closer = f
	p.logger.Info("pack loaded",
		log.String("path", path),
		log.Int("scenes", len(p.scenes)),
		log.Int("broken", len(p.broken)),
	)
	return nil
}

// LoadFrom replaces the pack's contents with the pack stored in src. A bad
// magic, version or total size rejects the whole pack before any scene is
// read. A scene whose index entry cannot be parsed is recorded in Broken and
// skipped. Any failure leaves the pack empty.
func (p *Pack) LoadFrom(src io.ReaderAt, size int64) error {
	p.reset()
	if err := p.loadFrom(src, size); err != nil {
		p.reset()
		return err
	}
	return nil
}

func (p *Pack) loadFrom(src io.ReaderAt, size int64) error {
	head := make([]byte, min(size, headerSize+indexSize))
	if _, err := src.ReadAt(head, 0); err != nil && err != io.EOF {
		return asset.IOError("read pack header", err)
	}
	r := encoding.NewReaderBytes(head)
	header, err := readHeader(r)
	if err != nil {
		return err
	}
	totalSize, err := encoding.ReadAligned[uint64](r)
	if err != nil {
		return parseError("truncated pack index", err)
	}
	sceneCount, err := encoding.ReadAligned[uint64](r)
	if err != nil {
		return parseError("truncated pack index", err)
	}
	if totalSize != uint64(size) {
		return parseError(fmt.Sprintf("pack declares %d bytes but holds %d", totalSize, size), nil)
	}

	p.header = header
	p.source = src

	offset := int64(headerSize + indexSize)
	for i := 0; uint64(i) < sceneCount; i++ {
		offset = alignUp(offset, 8)
		if offset+8 > size {
			p.markBroken(i, asset.NullHandle, parseError("scene length past end of pack", nil))
			break
		}
		var lenBytes [8]byte
		if _, err = src.ReadAt(lenBytes[:], offset); err != nil {
			return asset.IOError("read scene length", err)
		}
		length := encoding.ByteOrder.Uint64(lenBytes[:])
		offset += 8
		if length > uint64(size-offset) {
			p.markBroken(i, asset.NullHandle, parseError(fmt.Sprintf("scene of %d bytes past end of pack", length), nil))
			break
		}

		blob := make([]byte, length)
		if _, err = src.ReadAt(blob, offset); err != nil {
			return asset.IOError("read scene blob", err)
		}
		rec, err := parseScene(blob, offset)
		switch {
		case err != nil:
			p.markBroken(i, rec.Handle, err)
		case p.HandleExists(rec.Handle):
			p.markBroken(i, rec.Handle, asset.NewError(asset.CodeDuplicate, "scene "+rec.Handle.String()+" appears twice", asset.ErrDuplicateHandle))
		default:
			rec.Offset = offset
			rec.Size = int64(length)
			p.scenes[rec.Handle] = rec
			p.handles[rec.Handle] = struct{}{}
			for h := range rec.Assets {
				p.handles[h] = struct{}{}
			}
			for h := range rec.Entities {
				p.handles[h] = struct{}{}
			}
		}
		offset += int64(length)
	}
	return nil
}

func (p *Pack) markBroken(index int, h asset.Handle, err error) {
	p.broken = append(p.broken, BrokenScene{Index: index, Handle: h, Err: err})
	p.logger.Warn("skipping broken scene in pack index",
		log.Int("index", index),
		log.Stringer("scene", h),
		log.Error(err),
	)
}

func readHeader(r *encoding.Reader) (Header, error) {
	magic, err := r.ReadRaw(len(Magic))
	if err != nil {
		return Header{}, parseError("truncated pack header", err)
	}
	if !bytes.Equal(magic, Magic[:]) {
		return Header{}, parseError(fmt.Sprintf("bad pack signature %q", magic), nil)
	}
	version, err := encoding.ReadAligned[uint32](r)
	if err != nil {
		return Header{}, parseError("truncated pack header", err)
	}
	if version != Version {
		return Header{}, parseError(fmt.Sprintf("unsupported pack version %d, want %d", version, Version), nil)
	}
	built, err := encoding.ReadAligned[int64](r)
	if err != nil {
		return Header{}, parseError("truncated pack header", err)
	}
	return Header{Magic: Magic, Version: version, BuildTime: time.Unix(0, built).UTC()}, nil
}

// parseScene reads a scene blob's framing. Child offsets are made absolute
// with base; child bytes are not copied. The returned record carries the
// scene handle whenever it could be read, even on error.
func parseScene(blob []byte, base int64) (*SceneRecord, error) {
	rec := NewSceneRecord(asset.NullHandle, "", 0)
	r := encoding.NewReaderBytes(blob)

	h, err := encoding.ReadAligned[uint64](r)
	if err != nil {
		return rec, parseError("scene handle", err)
	}
	rec.Handle = asset.Handle(h)
	if rec.Handle.IsNull() {
		return rec, asset.NewError(asset.CodeNullHandle, "scene has a null handle", asset.ErrNullHandle)
	}
	if rec.Name, err = r.ReadString(); err != nil {
		return rec, parseError("scene name", err)
	}
	if rec.StepFrames, err = encoding.ReadAligned[uint64](r); err != nil {
		return rec, parseError("scene step frames", err)
	}

	assetCount, err := encoding.ReadAligned[uint64](r)
	if err != nil {
		return rec, parseError("asset count", err)
	}
	for i := uint64(0); i < assetCount; i++ {
		ah, err := encoding.ReadAligned[uint64](r)
		if err != nil {
			return rec, parseError("asset handle", err)
		}
		typ, err := encoding.ReadAligned[uint16](r)
		if err != nil {
			return rec, parseError("asset type", err)
		}
		t := asset.Type(typ)
		if !t.Valid() || t == asset.TypeScene {
			return rec, asset.NewError(asset.CodeUnknownTag, fmt.Sprintf("asset %d has type tag %d", ah, typ), asset.ErrUnknownTag)
		}
		off, n, err := r.ReadSpan()
		if err != nil {
			return rec, parseError("asset bytes", err)
		}
		if _, dup := rec.Assets[asset.Handle(ah)]; dup {
			return rec, asset.NewError(asset.CodeDuplicate, fmt.Sprintf("asset %d listed twice", ah), asset.ErrDuplicateHandle)
		}
		rec.Assets[asset.Handle(ah)] = &AssetRecord{Handle: asset.Handle(ah), Type: t, Offset: base + int64(off), Size: int64(n)}
	}

	entityCount, err := encoding.ReadAligned[uint64](r)
	if err != nil {
		return rec, parseError("entity count", err)
	}
	for i := uint64(0); i < entityCount; i++ {
		eh, err := encoding.ReadAligned[uint64](r)
		if err != nil {
			return rec, parseError("entity handle", err)
		}
		off, n, err := r.ReadSpan()
		if err != nil {
			return rec, parseError("entity bytes", err)
		}
		if _, dup := rec.Entities[asset.Handle(eh)]; dup {
			return rec, asset.NewError(asset.CodeDuplicate, fmt.Sprintf("entity %d listed twice", eh), asset.ErrDuplicateHandle)
		}
		rec.Entities[asset.Handle(eh)] = &EntityRecord{Handle: asset.Handle(eh), Offset: base + int64(off), Size: int64(n)}
	}

	if !r.Done() {
		return rec, parseError(fmt.Sprintf("%d trailing bytes after scene", r.Remaining()), nil)
	}
	return rec, nil
}

// Save writes the pack to path atomically. Records loaded lazily are read
// from the current source first.
func (p *Pack) Save(path string) error {
	buf, err := p.Encode()
	if err != nil {
		return err
	}
	defer buf.Release()
	if err = fsutil.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return asset.IOError("write pack "+path, err)
	}
	p.logger.Info("pack saved",
		log.String("path", path),
		log.Int("bytes", buf.Len()),
		log.Int("scenes", len(p.scenes)),
	)
	return nil
}

// Encode produces the whole pack file in one buffer using the two-pass
// protocol and stamps the header with the build time.
func (p *Pack) Encode() (encoding.Buffer, error) {
	scenes := p.Scenes()
	for _, s := range scenes {
		for _, a := range s.Assets {
			if _, err := p.AssetBuffer(a); err != nil {
				return encoding.Buffer{}, err
			}
		}
		for _, e := range s.Entities {
			if _, err := p.EntityBuffer(e); err != nil {
				return encoding.Buffer{}, err
			}
		}
	}

	p.header.BuildTime = p.now().UTC()
	buf, err := encoding.Marshal(&fileImage{header: p.header, scenes: scenes})
	if err != nil {
		return encoding.Buffer{}, asset.WrapError(err, "encode pack")
	}
	return buf, nil
}

// fileImage lays out a whole pack file. The size pass records each scene's
// blob length and the file length, which the write pass puts in the index.
type fileImage struct {
	header     Header
	scenes     []*SceneRecord
	sceneSizes []int
	total      int
}

func (f *fileImage) SizeTo(s *encoding.Sizer) {
	sizeHeader(s)
	f.sceneSizes = make([]int, len(f.scenes))
	for i, rec := range f.scenes {
		var blob encoding.Sizer
		sizeScene(&blob, rec)
		f.sceneSizes[i] = blob.Len()

		encoding.SizeAligned[uint64](s)
		s.Raw(f.sceneSizes[i])
	}
	f.total = s.Len()
}

func (f *fileImage) WriteTo(w *encoding.Writer) {
	writeHeader(w, f.header, uint64(f.total), uint64(len(f.scenes)))
	for i, rec := range f.scenes {
		encoding.WriteAligned(w, uint64(f.sceneSizes[i]))
		start := w.Offset()
		writeScene(w, rec)
		if w.Offset()-start != f.sceneSizes[i] {
			panic(&encoding.OverflowError{Op: "write scene", Offset: start, Size: w.Offset() - start, Len: f.sceneSizes[i]})
		}
	}
}

func sizeHeader(s *encoding.Sizer) {
	s.Raw(len(Magic))
	encoding.SizeAligned[uint32](s)
	encoding.SizeAligned[int64](s)
	encoding.SizeAligned[uint64](s)
	encoding.SizeAligned[uint64](s)
}

func writeHeader(w *encoding.Writer, h Header, totalSize, sceneCount uint64) {
	w.WriteRaw(h.Magic[:])
	encoding.WriteAligned(w, h.Version)
	encoding.WriteAligned(w, h.BuildTime.UnixNano())
	encoding.WriteAligned(w, totalSize)
	encoding.WriteAligned(w, sceneCount)
}

// sizeScene and writeScene start from an 8-aligned offset, so alignment
// inside the blob is the same whether it is measured from the blob or the file.
func sizeScene(s *encoding.Sizer, rec *SceneRecord) {
	encoding.SizeAligned[uint64](s)
	s.String(rec.Name)
	encoding.SizeAligned[uint64](s)

	encoding.SizeAligned[uint64](s)
	for _, h := range rec.AssetHandles() {
		encoding.SizeAligned[uint64](s)
		encoding.SizeAligned[uint16](s)
		s.Bytes(rec.Assets[h].Buffer.Bytes())
	}

	encoding.SizeAligned[uint64](s)
	for _, h := range rec.EntityHandles() {
		encoding.SizeAligned[uint64](s)
		s.Bytes(rec.Entities[h].Buffer.Bytes())
	}
}

func writeScene(w *encoding.Writer, rec *SceneRecord) {
	encoding.WriteAligned(w, uint64(rec.Handle))
	w.WriteString(rec.Name)
	encoding.WriteAligned(w, rec.StepFrames)

	encoding.WriteAligned(w, uint64(len(rec.Assets)))
	for _, h := range rec.AssetHandles() {
		a := rec.Assets[h]
		encoding.WriteAligned(w, uint64(h))
		encoding.WriteAligned(w, uint16(a.Type))
		w.WriteBytes(a.Buffer.Bytes())
	}

	encoding.WriteAligned(w, uint64(len(rec.Entities)))
	for _, h := range rec.EntityHandles() {
		encoding.WriteAligned(w, uint64(h))
		w.WriteBytes(rec.Entities[h].Buffer.Bytes())
	}
}

func parseError(message string, cause error) *asset.Error {
	return asset.NewError(asset.CodeParse, message, cause)
}

func alignUp(offset, align int64) int64 {
	return (offset + align - 1) / align * align
}
