package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"dictate/session"
	"dictate/surface"
)

// lineDisplay prints session events one per line for the headless mode.
type lineDisplay struct {
	mu  sync.Mutex
	out io.Writer
}

func (d *lineDisplay) Status(s session.Status) { d.println("status: " + s.String()) }
func (d *lineDisplay) Notice(msg string)       { d.println("notice: " + msg) }
func (d *lineDisplay) Redraw()                 {}

func (d *lineDisplay) println(s string) {
	d.mu.Lock()
	fmt.Fprintln(d.out, s)
	d.mu.Unlock()
}

const waitTimeout = 30 * time.Second

// runTestMode drives the app from stdin commands, one per line:
//
//	TOGGLE                    run the dictation toggle and wait for it
//	CLICK                     click the indicator
//	WAIT                      wait until the session is idle
//	FOCUS title|notes|editor  focus an element, or "none" to blur
//	SELECT start end          select a rune range in the notes region
//	TYPE text                 type into the focused element
//	DUMP                      print every element's content
//	SLEEP ms
//	QUIT
func runTestMode(a *app, in io.Reader, d *lineDisplay) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, raw, _ := strings.Cut(strings.TrimLeft(scanner.Text(), " \t"), " ")
		arg := strings.TrimSpace(raw)
		switch strings.TrimSpace(cmd) {
		case "TOGGLE":
			a.toggle()
		case "CLICK":
			o := a.indicator.Overlay()
			if o == nil {
				d.println("error: no indicator")
				continue
			}
			b := o.Bounds()
			a.click(surface.Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2})
		case "WAIT":
			waitIdle(a)
		case "FOCUS":
			if arg == "none" {
				a.blur()
			} else if el := a.element(arg); el != nil {
				a.focus(el)
			} else {
				d.println("error: unknown element " + arg)
			}
		case "SELECT":
			var start, end int
			if _, err := fmt.Sscanf(arg, "%d %d", &start, &end); err != nil {
				d.println("error: SELECT needs start and end")
				continue
			}
			a.ws.Focus(a.notes)
			a.notes.Select(start, end)
		case "TYPE":
			a.typeText(raw)
		case "DUMP":
			for _, el := range a.elements() {
				d.println(fmt.Sprintf("%s: %q", el.ID(), el.Text()))
			}
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			return
		case "":
		default:
			d.println("error: unknown command " + cmd)
		}
	}
}

// waitIdle blocks until no cycle is running, giving up after waitTimeout.
func waitIdle(a *app) {
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if a.ctl.Status() == session.Idle {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
