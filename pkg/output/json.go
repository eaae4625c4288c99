package output

import (
	"encoding/json"
	"io"
)

// jsonRenderer writes one indented JSON document per call
type jsonRenderer struct {
	encoder *json.Encoder
}

func newJSONRenderer(w io.Writer) *jsonRenderer {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return &jsonRenderer{encoder: encoder}
}

func (j *jsonRenderer) Render(r *Report) error {
	return j.encoder.Encode(r)
}

func (j *jsonRenderer) RenderError(err error) error {
	return j.encoder.Encode(map[string]string{"error": err.Error()})
}

func (j *jsonRenderer) RenderMessage(msg string) error {
	return j.encoder.Encode(map[string]string{"message": msg})
}
