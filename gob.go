package locations

import (
	"compress/gzip"
	"encoding/gob"
	"os"
)

// GobDump saves obj as a gzip compressed GOB file
func GobDump(filename string, obj interface{}) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(obj); err != nil {
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// GobLoad reads a file written by GobDump into obj
func GobLoad(filename string, obj interface{}) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()
	return gob.NewDecoder(zr).Decode(obj)
}
