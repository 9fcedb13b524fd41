//go:build js && wasm

// Package wasm mounts the livestream notification in the browser.
package wasm

import (
	"context"
	"strings"
	"syscall/js"
	"time"

	"github.com/Its-donkey/shrine-live/internal/ui/i18n"
	"github.com/Its-donkey/shrine-live/internal/ui/layout"
	"github.com/Its-donkey/shrine-live/internal/ui/livestream"
	"github.com/Its-donkey/shrine-live/logging"
)

const notificationSlotID = "livestream-notification-slot"

var (
	// Document references the global browser document for DOM interactions.
	Document js.Value
	handlers []js.Func
)

// RunApp mounts the notification widget and blocks until the page is hidden.
func RunApp() {
	window := js.Global()
	Document = window.Get("document")

	slot := Document.Call("getElementById", notificationSlotID)
	if !slot.Truthy() {
		consoleCall("error", "notification slot missing")
		return
	}

	logger := logging.New("shrine-wasm", logging.WARN, consoleWriter{})
	lang := strings.TrimSpace(Document.Get("body").Call("getAttribute", "data-lang").String())
	localizer := i18n.Default().Localizer(lang)
	renderer, err := livestream.NewRenderer()
	if err != nil {
		consoleCall("error", err.Error())
		return
	}

	menu := layout.NewChannel()
	stopMenu := bindMobileMenu(menu)

	widget := livestream.NewWidget(livestream.WidgetOptions{
		Source: livestream.NewHTTPSource(livestream.HTTPSourceOptions{
			Limiter: livestream.NewLimiter(1, 2),
		}),
		Layout:   menu,
		Interval: livestream.DefaultInterval,
		Window:   livestream.DefaultWindow,
		Location: time.Local,
		Logger:   logger,
		OnChange: func(v livestream.Visibility) {
			markup, err := renderer.Render(v.View(), localizer, time.Local)
			if err != nil {
				logger.Error("livestream", "render notification", err, nil)
				return
			}
			slot.Set("innerHTML", string(markup))
		},
	})

	onClick := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		target := args[0].Get("target")
		if target.Truthy() && target.Call("closest", "[data-dismiss-notification]").Truthy() {
			widget.Dismiss()
		}
		return nil
	})
	slot.Call("addEventListener", "click", onClick)
	handlers = append(handlers, onClick)

	ctx, cancel := context.WithCancel(context.Background())
	widget.Mount(ctx)

	done := make(chan struct{})
	onHide := js.FuncOf(func(this js.Value, args []js.Value) any {
		widget.Unmount()
		cancel()
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	})
	window.Call("addEventListener", "pagehide", onHide)
	handlers = append(handlers, onHide)

	<-done
	widget.Wait()
	stopMenu()
	releaseHandlers()
}

// bindMobileMenu wires the header toggle to menu and mirrors menu state onto
// the mobile navigation element.
func bindMobileMenu(menu *layout.Channel) func() {
	toggle := Document.Call("querySelector", "[data-nav-toggle]")
	nav := Document.Call("querySelector", "[data-mobile-menu]")
	if !toggle.Truthy() || !nav.Truthy() {
		return func() {}
	}

	onToggle := js.FuncOf(func(this js.Value, args []js.Value) any {
		menu.Toggle()
		return nil
	})
	toggle.Call("addEventListener", "click", onToggle)
	handlers = append(handlers, onToggle)

	updates, cancel := menu.Subscribe()
	go func() {
		for open := range updates {
			nav.Get("classList").Call("toggle", "hidden", !open)
			nav.Get("classList").Call("toggle", "flex", open)
			if open {
				toggle.Call("setAttribute", "aria-expanded", "true")
			} else {
				toggle.Call("setAttribute", "aria-expanded", "false")
			}
		}
	}()
	return cancel
}

func releaseHandlers() {
	for _, fn := range handlers {
		fn.Release()
	}
	handlers = nil
}
