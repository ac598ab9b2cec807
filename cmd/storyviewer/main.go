// Command storyviewer opens a story page in a kiosk window.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"

	webview "github.com/webview/webview_go"

	"narrascroll/pkg/config"
)

func main() {
	configPath := flag.String("config", "configs/narrascroll.yaml", "Path to the config file")
	story := flag.String("story", "", "Story to open (defaults to the story list)")
	serverBin := flag.String("server", "./narrascroll", "Server binary started when no server is running")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Webview requires the main thread.
	runtime.LockOSThread()

	w := webview.New(cfg.Viewer.Debug)
	defer w.Destroy()

	// Kiosk: no context menu, no text selection while scrolling.
	w.Init(`
		window.addEventListener('contextmenu', function(e) {
			e.preventDefault();
		}, true);
		document.addEventListener('DOMContentLoaded', function() {
			document.body.style.userSelect = 'none';
		});
	`)

	w.SetTitle(cfg.Viewer.Title)
	w.SetSize(cfg.Viewer.Width, cfg.Viewer.Height, webview.HintNone)
	w.SetHtml(`<body style="background:#0f0f0f;color:#888;font-family:sans-serif"><pre id="log"></pre></body>`)

	logProxy := func(msg string) {
		fmt.Println(msg)
		w.Dispatch(func() {
			w.Eval("document.getElementById('log').textContent += " + escapeJS(msg+"\n"))
		})
	}
	openProxy := func(url string) {
		w.Dispatch(func() {
			w.Navigate(url)
		})
	}

	l := NewLauncher(logProxy, openProxy, *serverBin, cfg.Server.Address, *story)
	defer l.Stop()

	_ = w.Bind("kioskClose", func() {
		w.Terminate()
	})

	l.Start()
	w.Run()
}

func escapeJS(s string) string {
	b, _ := json.Marshal(s)
	// json.Marshal returns "string", surrounding quotes included.
	return string(b)
}
