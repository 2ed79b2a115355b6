package output

import (
	"encoding/json"
	"io"
)

// JSONEncoder writes doc as two-space indented JSON followed by a newline.
func JSONEncoder(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// CompactJSONEncoder writes doc as a single JSON line.
func CompactJSONEncoder(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
