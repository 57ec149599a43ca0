package transport

import "io"

// progressReader reports the running byte count after every read.
type progressReader struct {
	r      io.Reader
	loaded int64
	report func(loaded int64)
}

func newProgressReader(r io.Reader, report func(loaded int64)) *progressReader {
	return &progressReader{r: r, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.report(p.loaded)
	}
	return n, err
}

// progressReadCloser adds Close to progressReader for request bodies.
type progressReadCloser struct {
	*progressReader
	c io.Closer
}

func (p progressReadCloser) Close() error { return p.c.Close() }
