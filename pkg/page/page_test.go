package page

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadPage = `<!DOCTYPE html>
<html><body>
<form id="upload">
  <input type="text" name="title" value="holiday">
  <input type="checkbox" name="public" checked>
  <input type="checkbox" name="draft">
  <input type="radio" name="size" value="s">
  <input type="radio" name="size" value="m" checked>
  <input type="file" name="photo">
  <input type="submit" name="go" value="Upload">
  <input type="text" name="disabled" value="x" disabled>
  <textarea name="note">first line</textarea>
  <select name="album"><option value="a">A</option><option value="b" selected>B</option></select>
</form>
</body></html>`

func loadPage(t *testing.T, rawURL string, opts ...Option) *Page {
	t.Helper()
	p, err := Load(rawURL, strings.NewReader(uploadPage), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func waitFor(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestLoad_RequiresAbsoluteURL(t *testing.T) {
	_, err := New("/relative")
	assert.Error(t, err)
}

func TestOriginOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://Example.com/a", "http://example.com"},
		{"http://example.com:80/", "http://example.com"},
		{"https://example.com:443", "https://example.com"},
		{"https://example.com:8443/x", "https://example.com:8443"},
		{"http://[::1]:9000/", "http://[::1]:9000"},
		{"*", "*"},
		{"null", "null"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeOrigin(tt.in), tt.in)
	}
}

func TestForm_Entries(t *testing.T) {
	p := loadPage(t, "http://example.com/")
	f, err := p.Form("upload")
	require.NoError(t, err)
	require.NoError(t, f.SetFiles("photo", FileFromBytes("a.png", []byte("png"))))

	var got []string
	for _, e := range f.Entries() {
		if e.File != nil {
			got = append(got, e.Name+"=file:"+e.File.Name)
			continue
		}
		got = append(got, e.Name+"="+e.Value)
	}

	assert.Equal(t, []string{
		"title=holiday",
		"public=on",
		"size=m",
		"photo=file:a.png",
		"note=first line",
		"album=b",
	}, got)
}

func TestPage_FormNotFound(t *testing.T) {
	p := loadPage(t, "http://example.com/")
	_, err := p.Form("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	f, err := p.Form("upload")
	require.NoError(t, err)
	assert.ErrorIs(t, f.SetFiles("nope"), ErrNotFound)
}

func TestPage_FormIdentityIsStable(t *testing.T) {
	p := loadPage(t, "http://example.com/")
	a, _ := p.Form("upload")
	b, _ := p.Form("upload")
	assert.Same(t, a, b)
	assert.Len(t, p.Forms(), 1)
}

func TestForm_HiddenFieldsByTag(t *testing.T) {
	p := loadPage(t, "http://example.com/")
	f, _ := p.Form("upload")

	f.AppendHidden("one", "X-Requested-With", "IFrame")
	f.AppendHidden("one", "token", "t")
	f.AppendHidden("two", "token", "u")

	assert.Equal(t, 2, f.Tagged("one"))
	assert.Equal(t, 2, f.RemoveTagged("one"))
	assert.Zero(t, f.Tagged("one"))
	assert.Equal(t, 1, f.Tagged("two"))
	assert.NotContains(t, p.HTML(), `data-uploadformid="one"`)
}

func TestForm_Attributes(t *testing.T) {
	p := loadPage(t, "http://example.com/")
	f, _ := p.Form("upload")

	f.SetAttr("target", "frame-1")
	f.SetAttr("target", "frame-2")
	assert.Equal(t, "frame-2", f.Attr("target"))

	f.RemoveAttr("target", "action")
	assert.False(t, f.HasAttr("target"))
}

func TestFileFromFS(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "in/report.pdf", []byte("%PDF-1.4 body"), 0o644))

	file, err := FileFromFS(fs, "in/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", file.Name)
	assert.EqualValues(t, 13, file.Size)

	_, err = FileFromFS(fs, "in")
	assert.Error(t, err)
}

func TestFormData_MultipartSniffsContentType(t *testing.T) {
	d := &FormData{}
	d.Append("title", "x")
	d.AppendFile("doc", FileFromBytes("report.pdf", []byte("%PDF-1.4\n...")))

	body, contentType := d.Multipart()
	defer body.Close()
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	mr := multipart.NewReader(body, params["boundary"])
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "title", part.FormName())

	part, err = mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", part.FileName())
	assert.Equal(t, "application/pdf", part.Header.Get("Content-Type"))
	content, _ := io.ReadAll(part)
	assert.Equal(t, "%PDF-1.4\n...", string(content))
}

func TestRegistry_RegisterDispatchUnregister(t *testing.T) {
	r := NewRegistry()
	target := &Window{}
	var calls []string
	first := r.Register(target, "load", func(*Event) { calls = append(calls, "first") })
	r.Register(target, "load", func(*Event) { calls = append(calls, "second") })

	r.Dispatch(&Event{Type: "load", Target: target})
	assert.True(t, r.Unregister(target, "load", first))
	assert.False(t, r.Unregister(target, "load", first))
	r.Dispatch(&Event{Type: "load", Target: target})

	assert.Equal(t, []string{"first", "second", "second"}, calls)
	assert.Equal(t, 1, r.Count(target, "load"))
}

func TestRegistry_UnregisterDuringDispatchSkipsLaterHandler(t *testing.T) {
	r := NewRegistry()
	target := &Window{}
	var second Token
	called := false
	r.Register(target, "load", func(*Event) { r.Unregister(target, "load", second) })
	second = r.Register(target, "load", func(*Event) { called = true })

	r.Dispatch(&Event{Type: "load", Target: target})

	assert.False(t, called)
}

func TestForm_RequestSubmitHonorsPreventDefault(t *testing.T) {
	p := loadPage(t, "http://example.com/")
	f, _ := p.Form("upload")
	intercepted := 0
	tok := p.Events().Register(f, EventSubmit, func(ev *Event) {
		intercepted++
		ev.PreventDefault()
	})

	require.NoError(t, f.RequestSubmit())
	assert.Equal(t, 1, intercepted)

	p.Events().Unregister(f, EventSubmit, tok)
	assert.ErrorIs(t, f.RequestSubmit(), ErrNoTarget)
}

func TestForm_SubmitLoadsSameOriginFrame(t *testing.T) {
	received := make(chan [2]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got [2]string
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			got[0] = r.FormValue("title")
			if fh := r.MultipartForm.File["photo"]; len(fh) == 1 {
				got[1] = fh[0].Filename
			}
		}
		received <- got
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	p := loadPage(t, srv.URL+"/app")
	f, _ := p.Form("upload")
	require.NoError(t, f.SetFiles("photo", FileFromBytes("a.png", []byte("png"))))
	frame := p.CreateFrame("target-frame")
	loaded := make(chan *Event, 1)
	p.Events().Register(frame, EventLoad, func(ev *Event) { loaded <- ev })

	f.SetAttr("action", "/upload")
	f.SetAttr("method", "post")
	f.SetAttr("enctype", "multipart/form-data")
	f.SetAttr("target", "target-frame")
	require.NoError(t, f.Submit())

	waitFor(t, loaded)
	doc, err := frame.Document()
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, doc.TextContent())
	got := <-received
	assert.Equal(t, "holiday", got[0])
	assert.Equal(t, "a.png", got[1])
}

func TestFrame_CrossOriginDocumentIsUnreadable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "secret")
	}))
	defer srv.Close()

	p := loadPage(t, "http://app.example.com/")
	f, _ := p.Form("upload")
	frame := p.CreateFrame("x")
	loaded := make(chan *Event, 1)
	p.Events().Register(frame, EventLoad, func(ev *Event) { loaded <- ev })

	f.SetAttr("action", srv.URL)
	f.SetAttr("method", "POST")
	f.SetAttr("enctype", "multipart/form-data")
	f.SetAttr("target", "x")
	require.NoError(t, f.Submit())

	waitFor(t, loaded)
	_, err := frame.Document()
	assert.ErrorIs(t, err, ErrCrossOrigin)
}

func TestFrame_ScriptSignalsParent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body><script>
			parent.postMessage('{"id":42}', 'http://app.example.com');
			window.parent.postMessage('ignored', 'http://elsewhere.example.com');
		</script></body></html>`)
	}))
	defer srv.Close()

	p := loadPage(t, "http://app.example.com/")
	f, _ := p.Form("upload")
	frame := p.CreateFrame("x")
	messages := make(chan *Event, 2)
	p.Events().Register(p.Window(), EventMessage, func(ev *Event) { messages <- ev })

	f.SetAttr("action", srv.URL)
	f.SetAttr("method", "POST")
	f.SetAttr("enctype", "multipart/form-data")
	f.SetAttr("target", "x")
	require.NoError(t, f.Submit())

	ev := waitFor(t, messages)
	assert.Equal(t, `{"id":42}`, ev.Data)
	assert.Equal(t, NormalizeOrigin(srv.URL), ev.Origin)
	assert.Same(t, frame, ev.Source)

	select {
	case extra := <-messages:
		t.Fatalf("unexpected second message %v", extra.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPage_RemoveFrameDiscardsLateNavigation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, "late")
	}))
	defer srv.Close()
	defer close(release)

	p := loadPage(t, srv.URL)
	f, _ := p.Form("upload")
	frame := p.CreateFrame("x")
	loaded := make(chan *Event, 1)
	p.Events().Register(frame, EventLoad, func(ev *Event) { loaded <- ev })
	f.SetAttr("method", "POST")
	f.SetAttr("enctype", "multipart/form-data")
	f.SetAttr("target", "x")
	require.NoError(t, f.Submit())

	p.RemoveFrame(frame)
	assert.False(t, frame.Attached())
	assert.Nil(t, p.Frame("x"))
	assert.NotContains(t, p.HTML(), "<iframe")

	release <- struct{}{}
	select {
	case <-loaded:
		t.Fatal("load fired for a detached frame")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDocument_TextContentReadsBody(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{name: "head is skipped", markup: `<html><head><title>Upload</title><script>var x = 1;</script></head><body>{"a":1}</body></html>`, want: `{"a":1}`},
		{name: "fragment", markup: `{"a":1}`, want: `{"a":1}`},
		{name: "nested", markup: `<html><body><pre>ok</pre></body></html>`, want: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := newHTMLDocument(nil, http.StatusOK, "text/html", tt.markup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.TextContent())
		})
	}
}
