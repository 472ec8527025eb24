package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/microcosm-cc/bluemonday"
	"net/http"
)

// Nothing the relay serves is markup, so every tag is stripped.
var sanitizer = bluemonday.StrictPolicy()

func sanitizedJSONResponse(w http.ResponseWriter, i interface{}) {
	ret, err := marshalAndSanitizeJSON(i)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, string(ret))
}

func marshalAndSanitizeJSON(i interface{}) ([]byte, error) {
	out, err := json.MarshalIndent(i, "", "    ")
	if err != nil {
		return nil, err
	}
	return sanitizeJSON(out)
}

// sanitizeJSON strips markup from every string in the document. Node
// replies and stored errors end up in the output so none of them are
// trusted.
func sanitizeJSON(s []byte) ([]byte, error) {
	d := json.NewDecoder(bytes.NewReader(s))
	d.UseNumber()

	var i interface{}
	err := d.Decode(&i)
	if err != nil {
		return nil, err
	}
	sanitize(i)

	return json.MarshalIndent(i, "", "    ")
}

func sanitize(data interface{}) {
	switch d := data.(type) {
	case map[string]interface{}:
		for k, v := range d {
			switch tv := v.(type) {
			case string:
				d[k] = sanitizer.Sanitize(tv)
			case map[string]interface{}:
				sanitize(tv)
			case []interface{}:
				sanitize(tv)
			case nil:
				delete(d, k)
			}
		}
	case []interface{}:
		for i, t := range d {
			switch tv := t.(type) {
			case string:
				d[i] = sanitizer.Sanitize(tv)
			case map[string]interface{}, []interface{}:
				sanitize(tv)
			}
		}
	}
}
