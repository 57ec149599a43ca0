package page

import (
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/dop251/goja"

	"github.com/bft-labs/formship/pkg/log"
)

// runScripts executes the inline scripts of a frame document. The runtime
// exposes window, parent, top and location; parent.postMessage is the only
// way out of the frame.
func (p *Page) runScripts(frame *Frame, doc *Document) {
	scripts := htmlquery.Find(doc.Root, "//script")
	if len(scripts) == 0 {
		return
	}

	vm := goja.New()
	parent := vm.NewObject()
	_ = parent.Set("postMessage", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("postMessage: target origin is required"))
		}
		p.PostMessage(call.Argument(0).Export(), call.Argument(1).String(), doc.Origin, frame)
		return goja.Undefined()
	})

	location := vm.NewObject()
	if doc.URL != nil {
		_ = location.Set("href", doc.URL.String())
	}
	_ = location.Set("origin", doc.Origin)

	window := vm.NewObject()
	_ = window.Set("parent", parent)
	_ = window.Set("top", parent)
	_ = window.Set("location", location)
	_ = vm.Set("window", window)
	_ = vm.Set("self", window)
	_ = vm.Set("parent", parent)
	_ = vm.Set("top", parent)
	_ = vm.Set("location", location)

	for _, s := range scripts {
		if attr(s, "src") != "" {
			p.logger.Debug("external frame script skipped", log.String("src", attr(s, "src")))
			continue
		}
		if typ := strings.ToLower(attr(s, "type")); typ != "" && !strings.Contains(typ, "javascript") {
			continue
		}
		p.runScript(vm, frame, htmlquery.InnerText(s))
	}
}

func (p *Page) runScript(vm *goja.Runtime, frame *Frame, code string) {
	timer := time.AfterFunc(p.scriptBudget, func() {
		vm.Interrupt("script budget exceeded")
	})
	defer func() {
		timer.Stop()
		vm.ClearInterrupt()
	}()
	if _, err := vm.RunString(code); err != nil {
		p.logger.Warn("frame script failed",
			log.String("frame", frame.name),
			log.Err(err))
	}
}
