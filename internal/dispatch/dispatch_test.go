package dispatch_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/nadzzz/lircbridge/internal/catalog"
	"github.com/nadzzz/lircbridge/internal/dispatch"
	"github.com/nadzzz/lircbridge/internal/macro"
	"github.com/nadzzz/lircbridge/internal/message"
	"github.com/nadzzz/lircbridge/internal/profile"
)

type call struct {
	mode    macro.Mode
	remote  string
	command string
}

type fakeDriver struct {
	mu      sync.Mutex
	calls   []call
	remotes catalog.Catalog
	reloads int
	fail    string
}

func (f *fakeDriver) record(mode macro.Mode, remote, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if command == f.fail {
		return errors.New("send queue full")
	}
	f.calls = append(f.calls, call{mode, remote, command})
	return nil
}

func (f *fakeDriver) SendOnce(remote, command string) error {
	return f.record(macro.ModeOnce, remote, command)
}

func (f *fakeDriver) SendStart(remote, command string) error {
	return f.record(macro.ModeStart, remote, command)
}

func (f *fakeDriver) SendStop(remote, command string) error {
	return f.record(macro.ModeStop, remote, command)
}

func (f *fakeDriver) Remotes() catalog.Catalog { return f.remotes }

func (f *fakeDriver) Reload(context.Context) error {
	f.mu.Lock()
	f.reloads++
	f.mu.Unlock()
	return nil
}

func (f *fakeDriver) Close() error { return nil }

func (f *fakeDriver) sent() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

const testProfile = `{
  "macros": {
    "turn on tv": [["Yamaha", "Power"], ["SonyTV", "Power"], ["Yamaha", "TV"]],
    "play xbox": [["Xbox360", "Power"]]
  },
  "blacklists": {"Yamaha": ["AUX2"]}
}`

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, *fakeDriver) {
	t.Helper()
	p, err := profile.Parse([]byte(testProfile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	driver := &fakeDriver{remotes: catalog.Catalog{
		"Yamaha":  {"Power", "TV", "AUX2"},
		"SonyTV":  {"Power"},
		"Xbox360": {"Power"},
	}}
	return dispatch.New(profile.NewStore(p), driver), driver
}

func voiceQuery(utterance string) url.Values {
	return url.Values{"json": {fmt.Sprintf(`{"slots":{"Question":{"value":%q}}}`, utterance)}}
}

func TestVoice_PromptsWithoutUtterance(t *testing.T) {
	d, driver := newDispatcher(t)

	got := d.Voice(context.Background(), url.Values{})

	want := &message.Reply{Text: "What would you like me to do?", ShouldEndSession: false}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reply: got %+v, want %+v", got, want)
	}
	if len(driver.sent()) != 0 {
		t.Errorf("unexpected transmissions: %v", driver.sent())
	}
}

// captureLogs routes the default logger to a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestVoice_FailedStepLoggedOnceWithTurnID(t *testing.T) {
	logs := captureLogs(t)
	d, driver := newDispatcher(t)
	driver.fail = "TV"

	got := d.Voice(context.Background(), voiceQuery("turn on tv"))
	if got.Text != "OK. TV remote did turn on tv." {
		t.Errorf("reply: got %q", got.Text)
	}
	if n := len(driver.sent()); n != 2 {
		t.Errorf("transmissions: got %d, want 2", n)
	}

	var warnings []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if rec["level"] == "WARN" {
			warnings = append(warnings, rec)
		}
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings: got %d, want 1: %v", len(warnings), warnings)
	}
	if id, _ := warnings[0]["turn_id"].(string); id == "" {
		t.Errorf("warning has no turn_id: %v", warnings[0])
	}
}

func TestVoice_RunsMatchedMacro(t *testing.T) {
	d, driver := newDispatcher(t)

	got := d.Voice(context.Background(), voiceQuery("turn on tv"))

	want := &message.Reply{Text: "OK. TV remote did turn on tv.", ShouldEndSession: true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reply: got %+v, want %+v", got, want)
	}
	wantCalls := []call{
		{macro.ModeOnce, "Yamaha", "Power"},
		{macro.ModeOnce, "SonyTV", "Power"},
		{macro.ModeOnce, "Yamaha", "TV"},
	}
	if !reflect.DeepEqual(driver.sent(), wantCalls) {
		t.Errorf("transmissions: got %v, want %v", driver.sent(), wantCalls)
	}
}

func TestVoice_ApproximateMatch(t *testing.T) {
	d, _ := newDispatcher(t)

	got := d.Voice(context.Background(), voiceQuery("turn on a tv"))
	if got.Text != "OK. TV remote did turn on tv." {
		t.Errorf("reply: got %q", got.Text)
	}
}

func TestVoice_NotFound(t *testing.T) {
	d, driver := newDispatcher(t)

	got := d.Voice(context.Background(), voiceQuery("asdfghjkl"))

	want := &message.Reply{Text: "Sorry, I'm not sure I can do that.", ShouldEndSession: true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reply: got %+v, want %+v", got, want)
	}
	if len(driver.sent()) != 0 {
		t.Errorf("unexpected transmissions: %v", driver.sent())
	}
}

func TestVoice_PromptThenCommand(t *testing.T) {
	d, driver := newDispatcher(t)

	first := d.Voice(context.Background(), url.Values{"json": {"undefined"}})
	if first.ShouldEndSession || first.Text != "What would you like me to do?" {
		t.Errorf("first reply: got %+v", first)
	}

	second := d.Voice(context.Background(), voiceQuery("play xbox"))
	if !second.ShouldEndSession || second.Text != "OK. TV remote did play xbox." {
		t.Errorf("second reply: got %+v", second)
	}
	if want := []call{{macro.ModeOnce, "Xbox360", "Power"}}; !reflect.DeepEqual(driver.sent(), want) {
		t.Errorf("transmissions: got %v, want %v", driver.sent(), want)
	}
}

func TestVoice_ConcurrentTurnsDoNotMix(t *testing.T) {
	d, _ := newDispatcher(t)

	utterances := map[string]string{
		"turn on tv": "OK. TV remote did turn on tv.",
		"play xbox":  "OK. TV remote did play xbox.",
		"asdfghjkl":  "Sorry, I'm not sure I can do that.",
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		for utterance, want := range utterances {
			wg.Add(1)
			go func(utterance, want string) {
				defer wg.Done()
				got := d.Voice(context.Background(), voiceQuery(utterance))
				if got.Text != want {
					t.Errorf("%q: got %q, want %q", utterance, got.Text, want)
				}
			}(utterance, want)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := d.Voice(context.Background(), url.Values{})
			if got.Text != "What would you like me to do?" || got.ShouldEndSession {
				t.Errorf("prompt turn: got %+v", got)
			}
		}()
	}
	wg.Wait()
}

func TestRemotes_AppliesBlacklist(t *testing.T) {
	d, _ := newDispatcher(t)

	got := d.Remotes()
	if want := []string{"Power", "TV"}; !reflect.DeepEqual(got["Yamaha"], want) {
		t.Errorf("Yamaha: got %v, want %v", got["Yamaha"], want)
	}

	cmds, ok := d.RemoteCommands("Yamaha")
	if !ok || !reflect.DeepEqual(cmds, []string{"Power", "TV"}) {
		t.Errorf("RemoteCommands: got %v (ok=%v)", cmds, ok)
	}
	if _, ok := d.RemoteCommands("Nope"); ok {
		t.Error("unknown remote should not be found")
	}
}

func TestRunMacro(t *testing.T) {
	d, driver := newDispatcher(t)

	if err := d.RunMacro("play xbox"); err != nil {
		t.Fatalf("RunMacro: %v", err)
	}
	if len(driver.sent()) != 1 {
		t.Errorf("transmissions: got %v", driver.sent())
	}

	// Exact names only; fuzzy matching is for voice turns.
	if err := d.RunMacro("play xbox!"); !errors.Is(err, dispatch.ErrUnknownMacro) {
		t.Errorf("got %v, want ErrUnknownMacro", err)
	}
}

func TestSend_Modes(t *testing.T) {
	d, driver := newDispatcher(t)

	_ = d.Send(macro.ModeStart, "SonyTV", "VolumeUp")
	_ = d.Send(macro.ModeStop, "SonyTV", "VolumeUp")

	want := []call{
		{macro.ModeStart, "SonyTV", "VolumeUp"},
		{macro.ModeStop, "SonyTV", "VolumeUp"},
	}
	if !reflect.DeepEqual(driver.sent(), want) {
		t.Errorf("transmissions: got %v, want %v", driver.sent(), want)
	}
}

func TestRefresh_ReloadsDriver(t *testing.T) {
	d, driver := newDispatcher(t)

	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if driver.reloads != 1 {
		t.Errorf("driver reloads: got %d, want 1", driver.reloads)
	}
	// The store has no paths, so the reload falls back to an empty profile.
	if d.Macros().Len() != 0 {
		t.Errorf("macros after refresh: got %d", d.Macros().Len())
	}
}
