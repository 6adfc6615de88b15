// Package loader maps a ReConfig image file into memory read-only, mirroring
// util.c's file2mem: open, fstat for size, mmap PROT_READ MAP_PRIVATE, and
// return the mapping as an Image whose bytes stay valid until Close.
package loader

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Image is a read-only mapping of a file's contents. The zero value is not
// usable; obtain one from Open.
type Image struct {
	data []byte
}

// Open mmaps path read-only and returns an Image wrapping its bytes. The
// caller must call Close when done to unmap it.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("loader: stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return &Image{data: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("loader: mmap %s: %w", path, err)
	}
	return &Image{data: data}, nil
}

// Bytes returns the mapped file contents. The slice is only valid until
// Close is called.
func (img *Image) Bytes() []byte {
	return img.data
}

// Close unmaps the file. It is safe to call on an Image backed by an empty
// file (Open never mapped anything in that case).
func (img *Image) Close() error {
	if img.data == nil {
		return nil
	}
	if err := unix.Munmap(img.data); err != nil {
		return fmt.Errorf("loader: munmap: %w", err)
	}
	img.data = nil
	return nil
}

// Slice bounds-checks [off, off+length) against the mapped file the way
// the original recfg() entry point validates its off/len arguments before
// ever looking at the bytes: off must not exceed the file size, and
// off+length must not exceed it either. length of 0 means "to the end of
// the file".
func (img *Image) Slice(off, length uint64) ([]byte, error) {
	size := uint64(len(img.data))
	if off > size {
		return nil, fmt.Errorf("loader: offset 0x%x exceeds file size 0x%x", off, size)
	}
	if length == 0 {
		length = size - off
	}
	if off+length > size {
		return nil, fmt.Errorf("loader: offset+length 0x%x exceeds file size 0x%x", off+length, size)
	}
	return img.data[off : off+length], nil
}
