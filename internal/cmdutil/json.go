package cmdutil

import (
	"encoding/json"
	"io"
)

// WriteJSON encodes v to w as a single JSON line. Tools print their ready
// records this way so wrappers can parse stdout line by line.
func WriteJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
