package locations

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteJSON writes the document as indented JSON
func WriteJSON(w io.Writer, doc Document) error {
	if doc == nil {
		doc = Document{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteJSONFile saves the document to filename, creating any missing
// parent directories
func WriteJSONFile(filename string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("can't create dir for %q -- %w", filename, err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WriteJSON(w, doc); err != nil {
		f.Close()
		return fmt.Errorf("encode %q -- %w", filename, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON loads a document previously written by WriteJSON
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
