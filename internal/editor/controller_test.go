package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/steamednotes/steamnotes/internal/api"
)

// fakeAPI serves notes from memory and counts calls.
type fakeAPI struct {
	mu      sync.Mutex
	notes   map[api.ID]*api.Note
	folders map[api.ID][]api.NoteSummary
	updates []api.NoteUpdate
	gets    int
	lists   int
	saveErr error
	listErr error
	getErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		notes:   map[api.ID]*api.Note{},
		folders: map[api.ID][]api.NoteSummary{},
	}
}

func (f *fakeAPI) GetNote(_ context.Context, id api.ID) (*api.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	n, ok := f.notes[id]
	if !ok {
		return nil, &api.StatusError{Code: http.StatusNotFound, Status: "404 Not Found"}
	}
	cp := *n
	return &cp, nil
}

func (f *fakeAPI) UpdateNote(_ context.Context, u api.NoteUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	return f.saveErr
}

func (f *fakeAPI) ListFolderNotes(_ context.Context, folderID api.ID) ([]api.NoteSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]api.NoteSummary{}, f.folders[folderID]...), nil
}

// fakeRouter records navigation requests.
type fakeRouter struct {
	paths []string
}

type navigatedMsg struct{ path string }

func (r *fakeRouter) Navigate(path string) tea.Cmd {
	r.paths = append(r.paths, path)
	return func() tea.Msg { return navigatedMsg{path} }
}

func newTestController(f *fakeAPI, r *fakeRouter) *Controller {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(f, r, Options{Logger: logger})
}

// run executes cmd and feeds its message back into the controller, following
// any command the controller returns.
func run(t *testing.T, c *Controller, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		m := cmd()
		next, handled := c.Update(m)
		if !handled {
			return
		}
		cmd = next
	}
}

func groceries() *api.Note {
	return &api.Note{
		ID: "42", Title: "Groceries", Content: "milk",
		FolderID: "7", RoomID: "1", RoomName: "Home", FolderName: "Lists",
	}
}

func loadedController(t *testing.T) (*Controller, *fakeAPI, *fakeRouter) {
	t.Helper()
	f := newFakeAPI()
	f.notes["42"] = groceries()
	r := &fakeRouter{}
	c := newTestController(f, r)
	run(t, c, c.Load("42"))
	if c.Phase() != PhaseReady {
		t.Fatalf("phase = %v, want ready", c.Phase())
	}
	return c, f, r
}

func TestDirtyTracksBuffer(t *testing.T) {
	c, _, _ := loadedController(t)

	steps := []struct {
		op     func()
		expect bool
	}{
		{func() {}, false},
		{func() { c.SetBody("milk, eggs") }, true},
		{func() { c.SetBody("milk") }, false},
		{func() { c.SetTitle("Shopping") }, true},
		{func() { c.SetBody("bread") }, true},
		{func() { c.SetTitle("Groceries") }, true},
		{func() { c.SetBody("milk") }, false},
		{func() { c.SetTitle("") }, true},
		{func() { c.SetTitle("Groceries") }, false},
	}
	for i, s := range steps {
		s.op()
		if got := c.Dirty(); got != s.expect {
			t.Errorf("step %d: Dirty() = %v, want %v (buffer %+v)", i, got, s.expect, c.Buffer())
		}
	}
}

func TestSave_SingleFlight(t *testing.T) {
	c, f, _ := loadedController(t)
	c.SetBody("milk, eggs")

	first := c.Save()
	second := c.Save()
	if first == nil {
		t.Fatal("first Save should return a command")
	}
	if second != nil {
		t.Error("second Save while in flight should be dropped")
	}
	if !c.Saving() {
		t.Errorf("phase = %v, want saving", c.Phase())
	}

	run(t, c, first)
	if len(f.updates) != 1 {
		t.Fatalf("update calls = %d, want 1", len(f.updates))
	}
	if c.Dirty() {
		t.Error("should be clean after save")
	}
	if c.Save() != nil {
		t.Error("Save on a clean buffer should be a no-op")
	}
}

func TestSave_EditsDuringFlightStayDirty(t *testing.T) {
	c, _, _ := loadedController(t)
	c.SetBody("milk, eggs")
	cmd := c.Save()
	c.SetBody("milk, eggs, bread")

	run(t, c, cmd)
	if got := c.LastSaved().Body; got != "milk, eggs" {
		t.Errorf("last saved body = %q, want the sent body", got)
	}
	if !c.Dirty() {
		t.Error("edit made during the save should remain dirty")
	}
	if c.Phase() != PhaseReady {
		t.Errorf("phase = %v, want ready", c.Phase())
	}
}

func TestLoad_GenerationGuard(t *testing.T) {
	f := newFakeAPI()
	f.notes["A"] = &api.Note{ID: "A", Title: "alpha", Content: "a"}
	f.notes["B"] = &api.Note{ID: "B", Title: "beta", Content: "b"}
	c := newTestController(f, &fakeRouter{})

	loadA := c.Load("A")
	loadB := c.Load("B")

	// B resolves first, A arrives late.
	c.Update(loadB())
	c.Update(loadA())

	if c.Note() == nil || c.Note().ID != "B" {
		t.Fatalf("note = %+v, want B", c.Note())
	}
	if c.Buffer().Title != "beta" || c.Buffer().Body != "b" {
		t.Errorf("buffer = %+v, want beta/b", c.Buffer())
	}
	if c.NoteID() != "B" {
		t.Errorf("NoteID = %q, want B", c.NoteID())
	}
}

func TestLoad_LateResultAfterClose(t *testing.T) {
	f := newFakeAPI()
	f.notes["42"] = groceries()
	c := newTestController(f, &fakeRouter{})
	cmd := c.Load("42")
	c.Close()

	c.Update(cmd())
	if c.Note() != nil {
		t.Error("closed controller must ignore late results")
	}
	if c.Load("42") != nil {
		t.Error("Load after Close should be a no-op")
	}
}

func TestLoad_StaleControllerMessage(t *testing.T) {
	f := newFakeAPI()
	f.notes["42"] = groceries()
	old := newTestController(f, &fakeRouter{})
	stale := old.Load("42")
	old.Close()

	fresh := newTestController(f, &fakeRouter{})
	fresh.Load("42")
	// A message issued by the unmounted controller must not satisfy the
	// fresh one's guard.
	fresh.Update(stale())
	if fresh.Phase() != PhaseLoading {
		t.Errorf("phase = %v, want loading", fresh.Phase())
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     api.ID
		getErr error
		expect error
	}{
		{"empty id", "", nil, ErrNoNote},
		{"missing note", "99", nil, api.ErrNotFound},
		{"session expired", "42", &api.StatusError{Code: http.StatusUnauthorized}, api.ErrUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeAPI()
			f.notes["42"] = groceries()
			f.getErr = tc.getErr
			c := newTestController(f, &fakeRouter{})
			run(t, c, c.Load(tc.id))

			if c.Phase() != PhaseLoadError {
				t.Fatalf("phase = %v, want load-error", c.Phase())
			}
			if !errors.Is(c.LoadErr(), tc.expect) {
				t.Errorf("LoadErr = %v, want %v", c.LoadErr(), tc.expect)
			}
			if c.Buffer() != (Buffer{}) {
				t.Errorf("buffer = %+v, want empty", c.Buffer())
			}
			c.SetBody("ignored")
			if c.Dirty() {
				t.Error("edits must be ignored in load-error")
			}
		})
	}
}

func withSiblings(t *testing.T, current api.ID, ids ...api.ID) (*Controller, *fakeRouter) {
	t.Helper()
	f := newFakeAPI()
	for _, id := range ids {
		f.notes[id] = &api.Note{ID: id, Title: "note " + id.String(), FolderID: "7"}
		f.folders["7"] = append(f.folders["7"], api.NoteSummary{ID: id, Title: "note " + id.String()})
	}
	if _, ok := f.notes[current]; !ok {
		f.notes[current] = &api.Note{ID: current, Title: "stray", FolderID: "7"}
	}
	r := &fakeRouter{}
	c := New(f, r, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), PanelOpen: true})
	run(t, c, c.Load(current))
	if !c.SiblingsLoaded() {
		t.Fatal("siblings should load with the panel open")
	}
	return c, r
}

func TestNavigateSibling_Wraparound(t *testing.T) {
	tests := []struct {
		current api.ID
		dir     Direction
		expect  string
	}{
		{"n3", Next, "/note/n1"},
		{"n1", Previous, "/note/n3"},
		{"n1", Next, "/note/n2"},
		{"n2", Previous, "/note/n1"},
	}
	for _, tc := range tests {
		c, r := withSiblings(t, tc.current, "n1", "n2", "n3")
		cmd := c.NavigateSibling(tc.dir)
		if cmd == nil {
			t.Fatalf("%s: expected a navigation command", tc.current)
		}
		if len(r.paths) != 1 || r.paths[0] != tc.expect {
			t.Errorf("at %s: navigated to %v, want %s", tc.current, r.paths, tc.expect)
		}
	}
}

func TestNavigateSibling_NoOp(t *testing.T) {
	t.Run("empty index", func(t *testing.T) {
		c, _, r := loadedController(t)
		if cmd := c.NavigateSibling(Next); cmd != nil {
			t.Error("expected nil command")
		}
		if len(r.paths) != 0 {
			t.Errorf("router called: %v", r.paths)
		}
	})
	t.Run("current absent", func(t *testing.T) {
		c, r := withSiblings(t, "stray", "n1", "n2")
		if cmd := c.NavigateSibling(Previous); cmd != nil {
			t.Error("expected nil command")
		}
		if len(r.paths) != 0 {
			t.Errorf("router called: %v", r.paths)
		}
	})
}

func TestNavigateSibling_OnlyNoteReloadsItself(t *testing.T) {
	for _, dir := range []Direction{Next, Previous} {
		c, r := withSiblings(t, "n1", "n1")
		if cmd := c.NavigateSibling(dir); cmd == nil {
			t.Fatal("expected a navigation command")
		}
		if len(r.paths) != 1 || r.paths[0] != "/note/n1" {
			t.Errorf("router paths = %v, want [/note/n1]", r.paths)
		}
	}
}

func TestScenario_EditAndSave(t *testing.T) {
	c, f, _ := loadedController(t)
	n := c.Note()
	if n.RoomName != "Home" || n.FolderName != "Lists" || n.FolderID != "7" {
		t.Errorf("note metadata = %+v", n)
	}
	if c.Dirty() {
		t.Fatal("should be clean right after load")
	}

	c.SetBody("milk, eggs")
	if !c.Dirty() {
		t.Fatal("should be dirty after edit")
	}
	run(t, c, c.Save())

	if len(f.updates) != 1 {
		t.Fatalf("update calls = %d, want 1", len(f.updates))
	}
	want := api.NoteUpdate{ID: "42", Content: "milk, eggs", Title: "Groceries"}
	if f.updates[0] != want {
		t.Errorf("sent %+v, want %+v", f.updates[0], want)
	}
	if c.Dirty() {
		t.Error("should be clean after successful save")
	}
}

func TestScenario_SaveFailure(t *testing.T) {
	c, f, _ := loadedController(t)
	f.saveErr = &api.StatusError{Code: http.StatusInternalServerError, Status: "500 Internal Server Error"}
	c.SetBody("milk, eggs")
	run(t, c, c.Save())

	if c.Phase() != PhaseSaveError {
		t.Errorf("phase = %v, want save-error", c.Phase())
	}
	if !c.Dirty() {
		t.Error("failed save must keep the buffer dirty")
	}
	if c.SaveErr() == nil || api.UserMessage(c.SaveErr()) == "" {
		t.Error("expected a save error message")
	}

	f.saveErr = nil
	cmd := c.Save()
	if cmd == nil {
		t.Fatal("second save should be permitted after a failure")
	}
	run(t, c, cmd)
	if len(f.updates) != 2 || c.Dirty() || c.SaveErr() != nil {
		t.Errorf("updates=%d dirty=%v err=%v", len(f.updates), c.Dirty(), c.SaveErr())
	}
}

func TestFolderPanel(t *testing.T) {
	f := newFakeAPI()
	f.notes["42"] = groceries()
	f.folders["7"] = []api.NoteSummary{{ID: "41", Title: "Todo"}, {ID: "42", Title: "Groceries"}}
	c := newTestController(f, &fakeRouter{})
	run(t, c, c.Load("42"))

	if f.lists != 0 {
		t.Fatal("listing must be lazy while the panel is closed")
	}
	run(t, c, c.ToggleFolderPanel())
	if !c.PanelOpen() || len(c.Siblings()) != 2 {
		t.Fatalf("open=%v siblings=%v", c.PanelOpen(), c.Siblings())
	}

	// Closing and reopening reuses the cached listing.
	c.ToggleFolderPanel()
	run(t, c, c.ToggleFolderPanel())
	if f.lists != 1 {
		t.Errorf("list calls = %d, want 1", f.lists)
	}

	// A saved title shows up in the listing.
	c.SetTitle("Shopping")
	run(t, c, c.Save())
	if got := c.Siblings()[1].Title; got != "Shopping" {
		t.Errorf("sibling title = %q, want Shopping", got)
	}
}

func TestRefreshSiblings_ErrorIsScoped(t *testing.T) {
	c, f, _ := loadedController(t)
	f.folders["7"] = []api.NoteSummary{{ID: "42", Title: "Groceries"}}
	run(t, c, c.RefreshSiblings("7"))
	if len(c.Siblings()) != 1 {
		t.Fatalf("siblings = %v", c.Siblings())
	}

	f.listErr = errors.New("connection refused")
	c.SetBody("dirty")
	run(t, c, c.RefreshSiblings("7"))

	if c.SiblingErr() == nil {
		t.Error("expected sibling error")
	}
	if len(c.Siblings()) != 1 {
		t.Error("failed refresh must keep the previous listing")
	}
	if c.Phase() != PhaseReady || !c.Dirty() {
		t.Errorf("editor state disturbed: phase=%v dirty=%v", c.Phase(), c.Dirty())
	}
}

func TestRefreshSiblings_Superseded(t *testing.T) {
	c, f, _ := loadedController(t)
	f.folders["7"] = []api.NoteSummary{{ID: "1"}}
	first := c.RefreshSiblings("7")
	f.folders["7"] = []api.NoteSummary{{ID: "1"}, {ID: "2"}}
	second := c.RefreshSiblings("7")

	c.Update(second())
	c.Update(first())
	if len(c.Siblings()) != 2 {
		t.Errorf("siblings = %v, want the newer listing", c.Siblings())
	}
}

func TestOpenSibling(t *testing.T) {
	c, _, r := loadedController(t)
	if c.OpenSibling("42") != nil {
		t.Error("opening the current note should be a no-op")
	}
	c.OpenSibling("43")
	if len(r.paths) != 1 || r.paths[0] != "/note/43" {
		t.Errorf("paths = %v", r.paths)
	}
}

func TestSubscribe(t *testing.T) {
	f := newFakeAPI()
	f.notes["42"] = groceries()
	c := newTestController(f, &fakeRouter{})

	var events []Event
	sub := c.Subscribe(func(e Event) { events = append(events, e) })
	run(t, c, c.Load("42"))
	c.SetBody("milk\neggs\nbread")
	c.SetBody("milk\neggs\nbread")

	var last Event
	bodyChanges := 0
	for _, e := range events {
		if e.Kind == EventBodyChanged {
			bodyChanges++
			last = e
		}
	}
	if bodyChanges != 2 {
		t.Errorf("body change events = %d, want 2", bodyChanges)
	}
	if last.Lines != 3 {
		t.Errorf("lines = %d, want 3", last.Lines)
	}

	sub.Release()
	sub.Release()
	n := len(events)
	c.SetBody("x")
	if len(events) != n {
		t.Error("released subscription still receives events")
	}
}
