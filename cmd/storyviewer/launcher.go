package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

// Launcher makes sure a narrascroll server is reachable, starting one when needed,
// and hands the story URL to the window once the server answers.
type Launcher struct {
	logFunc    func(string)
	openFunc   func(string)
	serverBin  string
	serverAddr string
	story      string
	serverCmd  *exec.Cmd
	client     *http.Client
	retries    int
	interval   time.Duration
}

// NewLauncher creates a launcher for the server at serverAddr. serverBin is only
// run when nothing answers there.
func NewLauncher(log, open func(string), serverBin, serverAddr, story string) *Launcher {
	return &Launcher{
		logFunc:    log,
		openFunc:   open,
		serverBin:  serverBin,
		serverAddr: serverAddr,
		story:      story,
		client:     &http.Client{Timeout: 1 * time.Second},
		retries:    30,
		interval:   1 * time.Second,
	}
}

func (l *Launcher) log(msg string) {
	if l.logFunc != nil {
		l.logFunc(msg)
	}
}

// Start runs the startup sequence in the background.
func (l *Launcher) Start() {
	go func() {
		if err := l.ensureServer(); err != nil {
			l.log(fmt.Sprintf("> Error: %v", err))
			return
		}
		l.openFunc(l.pageURL())
	}()
}

func (l *Launcher) ensureServer() error {
	if l.isServerReady() {
		l.log("> Server already active.")
		return nil
	}

	if l.serverBin != "" {
		l.log(fmt.Sprintf("> Server not running. Starting %s...", l.serverBin))
		go l.runServer()
	}

	l.log("> Waiting for server...")
	for i := 0; i < l.retries; i++ {
		if l.isServerReady() {
			l.log("> Server ready!")
			return nil
		}
		time.Sleep(l.interval)
	}
	return fmt.Errorf("server at %s timed out", l.serverAddr)
}

// Stop asks a server started by this launcher to shut down.
func (l *Launcher) Stop() {
	if l.serverCmd == nil || l.serverCmd.Process == nil {
		return
	}
	l.log("> Viewer closing: sending shutdown signal to server...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL()+"/api/shutdown", http.NoBody)
	resp, err := l.client.Do(req)
	if err != nil {
		l.log(fmt.Sprintf("> API shutdown failed: %v", err))
		return
	}
	resp.Body.Close()
}

func (l *Launcher) runServer() {
	cmd := exec.Command(l.serverBin)
	l.serverCmd = cmd

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()
	if err := cmd.Start(); err != nil {
		l.log(fmt.Sprintf("> Server failed to start: %v", err))
		return
	}
	go l.streamReader(stdout)
	go l.streamReader(stderr)

	if err := cmd.Wait(); err != nil {
		l.log(fmt.Sprintf("> Server exited with error: %v", err))
	}
}

func (l *Launcher) streamReader(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		l.log(scanner.Text())
	}
}

func (l *Launcher) isServerReady() bool {
	resp, err := l.client.Get(l.baseURL() + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (l *Launcher) baseURL() string {
	return "http://" + resolveAddr(l.serverAddr)
}

// pageURL is the story page, or the story list when no story was chosen.
func (l *Launcher) pageURL() string {
	if l.story == "" {
		return l.baseURL() + "/"
	}
	return l.baseURL() + "/story/" + url.PathEscape(l.story)
}

// resolveAddr turns a listen address into one a client can dial.
func resolveAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	if strings.HasPrefix(addr, "localhost:") {
		return strings.Replace(addr, "localhost:", "127.0.0.1:", 1)
	}
	return addr
}
