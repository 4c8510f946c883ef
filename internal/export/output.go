package export

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// output is a created file, optionally behind a zstd encoder.
type output struct {
	file *os.File
	zw   *zstd.Encoder
}

func createOutput(path string) (*output, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	out := &output{file: f}
	if strings.HasSuffix(path, ".zst") {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		out.zw = zw
	}
	return out, nil
}

func (o *output) writer() io.Writer {
	if o.zw != nil {
		return o.zw
	}
	return o.file
}

func (o *output) Close() error {
	if o.zw != nil {
		if err := o.zw.Close(); err != nil {
			_ = o.file.Close()
			return err
		}
	}
	return o.file.Close()
}
