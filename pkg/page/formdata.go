package page

import (
	"bufio"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches the default read limit of mimetype.
const sniffLen = 3072

// Entry is one name/value pair of a form data set. File is set for file
// controls, in which case Value is ignored.
type Entry struct {
	Name  string
	Value string
	File  *File
}

// FormData is an ordered form data set.
type FormData struct {
	entries []Entry
}

// NewFormData collects the successful controls of f. A nil form yields an
// empty set.
func NewFormData(f *Form) *FormData {
	d := &FormData{}
	if f != nil {
		d.entries = f.Entries()
	}
	return d
}

// Append adds a text entry.
func (d *FormData) Append(name, value string) {
	d.entries = append(d.entries, Entry{Name: name, Value: value})
}

// AppendFile adds a file entry.
func (d *FormData) AppendFile(name string, file File) {
	d.entries = append(d.entries, Entry{Name: name, File: &file})
}

// Entries returns a copy of the data set.
func (d *FormData) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// WriteMultipart writes every entry as a part of mw. It does not close mw.
func (d *FormData) WriteMultipart(mw *multipart.Writer) error {
	for _, e := range d.entries {
		if e.File == nil {
			if err := mw.WriteField(e.Name, e.Value); err != nil {
				return fmt.Errorf("write field %s: %w", e.Name, err)
			}
			continue
		}
		if err := writeFilePart(mw, e.Name, *e.File); err != nil {
			return err
		}
	}
	return nil
}

// Multipart streams the data set as multipart/form-data. The returned reader
// must be read to the end or closed; content is produced while it is read.
func (d *FormData) Multipart() (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := d.WriteMultipart(mw)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()
	return pr, mw.FormDataContentType()
}

// URLValues encodes the data set for application/x-www-form-urlencoded
// submissions, where files contribute their name only.
func (d *FormData) URLValues() url.Values {
	v := url.Values{}
	for _, e := range d.entries {
		if e.File != nil {
			v.Add(e.Name, e.File.Name)
			continue
		}
		v.Add(e.Name, e.Value)
	}
	return v
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, name string, f File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffLen)
	contentType := f.ContentType
	if contentType == "" {
		head, _ := br.Peek(sniffLen)
		contentType = mimetype.Detect(head).String()
		if f.Name == "" && len(head) == 0 {
			contentType = "application/octet-stream"
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", name, err)
	}
	if _, err := io.Copy(part, br); err != nil {
		return fmt.Errorf("write file %s: %w", f.Name, err)
	}
	return nil
}
