package formship_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/bft-labs/formship"
	"github.com/bft-labs/formship/pkg/codec"
	"github.com/bft-labs/formship/pkg/events"
	"github.com/bft-labs/formship/pkg/page"
	"github.com/bft-labs/formship/pkg/uploadform"
)

func Example() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		fh := r.MultipartForm.File["photo"]
		fmt.Fprintf(w, `{"title":%q,"file":%q}`, r.FormValue("title"), fh[0].Filename)
	}))
	defer srv.Close()

	p, err := formship.LoadPage(srv.URL+"/", strings.NewReader(
		`<form id="upload"><input name="title" value="holiday"><input type="file" name="photo"></form>`))
	if err != nil {
		panic(err)
	}
	defer p.Close()
	form, _ := p.Form("upload")
	_ = form.SetFiles("photo", page.FileFromBytes("a.png", []byte("png")))

	u, err := formship.New(form, "/upload", formship.DefaultConfig())
	if err != nil {
		panic(err)
	}
	done := make(chan struct{})
	u.On(events.Load, events.NewCallback(func(e events.Event) {
		body := e.Body.(map[string]any)
		fmt.Println(body["title"], body["file"])
		close(done)
	}))
	u.On(events.Error, events.NewCallback(func(e events.Event) {
		fmt.Println("error:", e.Kind, e.Detail)
		close(done)
	}))

	u.Send(uploadform.WithResponseType(codec.JSON))
	<-done
	// Output: holiday a.png
}

func ExampleUploader_Abort() {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, "late")
	}))
	defer srv.Close()
	defer close(block)

	p, _ := formship.LoadPage(srv.URL+"/", strings.NewReader(`<form id="upload"></form>`))
	defer p.Close()
	form, _ := p.Form("upload")
	u, _ := formship.New(form, "/upload", formship.DefaultConfig())
	u.On(events.Error, events.NewCallback(func(e events.Event) {
		fmt.Println(e.Kind)
	}))

	u.Send().Abort()
	fmt.Println(u.State())
	// Output:
	// abort
	// Idle
}
