package export

import (
	"bufio"
	"encoding/json"
)

type jsonlWriter[T any] struct {
	out *output
	buf *bufio.Writer
	enc *json.Encoder
}

func newJSONLWriter[T any](path string) (*jsonlWriter[T], error) {
	out, err := createOutput(path)
	if err != nil {
		return nil, err
	}

	buf := bufio.NewWriter(out.writer())
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	return &jsonlWriter[T]{out: out, buf: buf, enc: enc}, nil
}

func (w *jsonlWriter[T]) Write(v T) error {
	return w.enc.Encode(v)
}

func (w *jsonlWriter[T]) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.out.Close()
		return err
	}
	return w.out.Close()
}
