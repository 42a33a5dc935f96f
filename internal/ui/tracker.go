package ui

import (
	"context"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/Bloorize/timetracker/internal/models"
	"github.com/Bloorize/timetracker/internal/store"
	"github.com/Bloorize/timetracker/internal/timer"
	"github.com/Bloorize/timetracker/internal/timeutil"
)

// Tracker is the main screen: the project list on the left, the selected
// project's tasks with their timers on the right. It owns the timer state
// machine and the in-memory project snapshot the reports screen reads.
type Tracker struct {
	store   store.Store
	machine *timer.Machine
	window  fyne.Window

	mu       sync.Mutex
	projects []models.Project
	selected string
	filtered []string // project ids matching the search box
	search   string
	live     int // display seconds for the running task

	timerData binding.String

	refreshProjects func()
	refreshTasks    func()
}

func NewTracker(st store.Store, w fyne.Window) *Tracker {
	t := &Tracker{
		store:     st,
		window:    w,
		timerData: binding.NewString(),
	}
	t.machine = timer.New(st, timer.Options{
		TaskTotal:   t.taskTotal,
		LoadProject: t.loadTasks,
		OnTick: func(taskID string, seconds int) {
			fyne.Do(func() {
				t.mu.Lock()
				t.live = seconds
				t.mu.Unlock()
				t.timerData.Set(timeutil.Format(seconds))
				if t.refreshTasks != nil {
					t.refreshTasks()
				}
			})
		},
		OnTotalSaved: func(task models.Task) {
			t.commitTask(task)
		},
	})
	return t
}

// Machine exposes the timer controller to the tray menu.
func (t *Tracker) Machine() *timer.Machine { return t.machine }

// StopActive stops whatever is currently being timed, if anything.
func (t *Tracker) StopActive() {
	if taskID, _, running := t.machine.Active(); running {
		t.machine.Stop(context.Background(), taskID)
		fyne.Do(func() { t.refresh() })
	}
}

// Load pulls the project list, the selected project's tasks and any
// persisted active timer. Called once after sign-in.
func (t *Tracker) Load(ctx context.Context) {
	projects, err := t.store.ListProjects(ctx)
	if err != nil {
		log.Printf("loading projects: %v", err)
		return
	}

	t.mu.Lock()
	t.projects = projects
	if t.selected == "" && len(projects) > 0 {
		t.selected = projects[0].ID
	}
	selected := t.selected
	t.mu.Unlock()

	if selected != "" {
		t.loadTasks(ctx, selected)
	}

	// The machine pulls the resumed project's tasks into the snapshot itself
	// (LoadProject above), so one fetch of the active record is enough.
	if resumed, err := t.machine.Resume(ctx); err == nil && resumed != nil {
		shown := timeutil.Format(t.taskTotalOrZero(resumed.TaskID))
		fyne.Do(func() { t.timerData.Set(shown) })
	}

	fyne.Do(func() { t.refresh() })
}

// EnsureAllTasks fetches tasks for every project that has none loaded yet.
// The reports screen aggregates over the whole collection, not just the
// projects the user clicked through.
func (t *Tracker) EnsureAllTasks(ctx context.Context) {
	t.mu.Lock()
	var missing []string
	for _, p := range t.projects {
		if p.Tasks == nil {
			missing = append(missing, p.ID)
		}
	}
	t.mu.Unlock()

	for _, id := range missing {
		t.loadTasks(ctx, id)
	}
}

// Projects returns a copy of the in-memory snapshot.
func (t *Tracker) Projects() []models.Project {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Project, len(t.projects))
	copy(out, t.projects)
	return out
}

func (t *Tracker) loadTasks(ctx context.Context, projectID string) {
	project, err := t.store.GetProjectWithTasks(ctx, projectID)
	if err != nil {
		log.Printf("loading tasks for project %s: %v", projectID, err)
		return
	}

	t.mu.Lock()
	for i := range t.projects {
		if t.projects[i].ID == projectID {
			t.projects[i].Tasks = project.Tasks
			if t.projects[i].Tasks == nil {
				t.projects[i].Tasks = []models.Task{}
			}
			break
		}
	}
	t.mu.Unlock()
}

func (t *Tracker) taskTotal(taskID string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.projects {
		for _, task := range p.Tasks {
			if task.ID == taskID {
				return task.TimeSpent, true
			}
		}
	}
	return 0, false
}

func (t *Tracker) taskTotalOrZero(taskID string) int {
	seconds, _ := t.taskTotal(taskID)
	return seconds
}

func (t *Tracker) commitTask(task models.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.projects {
		if t.projects[i].ID != task.ProjectID {
			continue
		}
		for j := range t.projects[i].Tasks {
			if t.projects[i].Tasks[j].ID == task.ID {
				t.projects[i].Tasks[j].TimeSpent = task.TimeSpent
				return
			}
		}
	}
}

// visibleProjects applies the fuzzy search box to the project list.
func (t *Tracker) visibleProjects() []models.Project {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.search == "" {
		out := make([]models.Project, len(t.projects))
		copy(out, t.projects)
		return out
	}

	var out []models.Project
	for _, p := range t.projects {
		if fuzzy.PartialRatio(t.search, p.Name) >= 60 {
			out = append(out, p)
		}
	}
	return out
}

func (t *Tracker) selectedProject() *models.Project {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.projects {
		if t.projects[i].ID == t.selected {
			p := t.projects[i]
			return &p
		}
	}
	return nil
}

func (t *Tracker) refresh() {
	if t.refreshProjects != nil {
		t.refreshProjects()
	}
	if t.refreshTasks != nil {
		t.refreshTasks()
	}
}

func (t *Tracker) MakeUI() fyne.CanvasObject {
	t.timerData.Set("00:00:00")

	timerLabel := widget.NewLabelWithData(t.timerData)
	timerLabel.TextStyle = fyne.TextStyle{Bold: true}
	timerLabel.Alignment = fyne.TextAlignCenter

	// Project panel
	searchEntry := widget.NewEntry()
	searchEntry.PlaceHolder = "Search projects"

	var visible []models.Project
	projectList := widget.NewList(
		func() int { return len(visible) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				widget.NewButtonWithIcon("", theme.DeleteIcon(), nil),
				widget.NewLabel("Project"))
		},
		func(i int, o fyne.CanvasObject) {
			if i >= len(visible) {
				return
			}
			project := visible[i]
			box := o.(*fyne.Container)
			name := box.Objects[0].(*widget.Label)
			delBtn := box.Objects[1].(*widget.Button)

			name.SetText(project.Name)
			delBtn.OnTapped = func() {
				t.confirmDeleteProject(project)
			}
		},
	)
	projectList.OnSelected = func(i widget.ListItemID) {
		if i >= len(visible) {
			return
		}
		t.mu.Lock()
		t.selected = visible[i].ID
		selected := t.selected
		t.mu.Unlock()
		t.loadTasks(context.Background(), selected)
		if t.refreshTasks != nil {
			t.refreshTasks()
		}
	}

	t.refreshProjects = func() {
		visible = t.visibleProjects()
		projectList.Refresh()
	}

	searchEntry.OnChanged = func(q string) {
		t.mu.Lock()
		t.search = q
		t.mu.Unlock()
		t.refreshProjects()
	}

	addProjectBtn := widget.NewButtonWithIcon("New Project", theme.ContentAddIcon(), func() {
		t.showAddProjectDialog()
	})

	projectPanel := container.NewBorder(
		container.NewVBox(searchEntry, addProjectBtn),
		nil, nil, nil,
		projectList,
	)

	// Task panel
	projectTitle := widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	taskEntry := widget.NewEntry()
	taskEntry.PlaceHolder = "New task name"
	addTask := func() {
		name := taskEntry.Text
		if name == "" {
			return
		}
		t.mu.Lock()
		selected := t.selected
		t.mu.Unlock()
		if selected == "" {
			return
		}
		task, err := t.store.CreateTask(context.Background(), selected, name, 0)
		if err != nil {
			dialog.ShowError(err, t.window)
			return
		}
		t.mu.Lock()
		for i := range t.projects {
			if t.projects[i].ID == selected {
				t.projects[i].Tasks = append(t.projects[i].Tasks, *task)
			}
		}
		t.mu.Unlock()
		taskEntry.SetText("")
		t.refreshTasks()
	}
	taskEntry.OnSubmitted = func(string) { addTask() }
	addTaskBtn := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), addTask)

	var tasks []models.Task
	taskList := widget.NewList(
		func() int { return len(tasks) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				container.NewHBox(
					widget.NewLabel("00:00:00"),
					widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil),
					widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil),
					widget.NewButtonWithIcon("", theme.DeleteIcon(), nil),
				),
				widget.NewLabel("Task"))
		},
		func(i int, o fyne.CanvasObject) {
			if i >= len(tasks) {
				return
			}
			task := tasks[i]
			box := o.(*fyne.Container)
			name := box.Objects[0].(*widget.Label)
			right := box.Objects[1].(*fyne.Container)
			timeLabel := right.Objects[0].(*widget.Label)
			editBtn := right.Objects[1].(*widget.Button)
			toggleBtn := right.Objects[2].(*widget.Button)
			delBtn := right.Objects[3].(*widget.Button)

			name.SetText(task.Name)

			activeID, _, running := t.machine.Active()
			isActive := running && activeID == task.ID

			if isActive {
				t.mu.Lock()
				live := t.live
				t.mu.Unlock()
				if live < task.TimeSpent {
					live = task.TimeSpent
				}
				timeLabel.SetText(timeutil.Format(live))
				timeLabel.TextStyle = fyne.TextStyle{Italic: true}
				editBtn.Disable()
				toggleBtn.SetIcon(theme.MediaStopIcon())
				toggleBtn.OnTapped = func() {
					t.machine.Stop(context.Background(), task.ID)
					t.timerData.Set("00:00:00")
					t.refresh()
				}
			} else {
				timeLabel.SetText(timeutil.Format(task.TimeSpent))
				timeLabel.TextStyle = fyne.TextStyle{}
				editBtn.Enable()
				toggleBtn.SetIcon(theme.MediaPlayIcon())
				toggleBtn.OnTapped = func() {
					t.mu.Lock()
					projectID := t.selected
					t.mu.Unlock()
					t.machine.Start(context.Background(), task.ID, projectID)
					t.refresh()
				}
			}

			editBtn.OnTapped = func() {
				t.showEditTimeDialog(task)
			}
			delBtn.OnTapped = func() {
				t.confirmDeleteTask(task)
			}
		},
	)

	t.refreshTasks = func() {
		if project := t.selectedProject(); project != nil {
			projectTitle.SetText(project.Name)
			tasks = project.Tasks
		} else {
			projectTitle.SetText("No project selected")
			tasks = nil
		}
		taskList.Refresh()
	}

	taskPanel := container.NewBorder(
		container.NewVBox(
			projectTitle,
			container.NewBorder(nil, nil, nil, addTaskBtn, taskEntry),
		),
		nil, nil, nil,
		taskList,
	)

	t.refresh()

	split := container.NewHSplit(projectPanel, taskPanel)
	split.SetOffset(0.3)

	return container.NewBorder(timerLabel, nil, nil, nil, split)
}

func (t *Tracker) showAddProjectDialog() {
	nameEntry := widget.NewEntry()
	descEntry := widget.NewEntry()

	items := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("Description", descEntry),
	}

	dialog.ShowForm("New Project", "Create", "Cancel", items, func(ok bool) {
		if !ok || nameEntry.Text == "" {
			return
		}
		project, err := t.store.CreateProject(context.Background(), nameEntry.Text, descEntry.Text)
		if err != nil {
			dialog.ShowError(err, t.window)
			return
		}
		project.Tasks = []models.Task{}

		t.mu.Lock()
		t.projects = append([]models.Project{*project}, t.projects...)
		t.selected = project.ID
		t.mu.Unlock()
		t.refresh()
	}, t.window)
}

func (t *Tracker) confirmDeleteProject(project models.Project) {
	dialog.ShowConfirm("Delete Project",
		"Delete this project and all of its tasks? This cannot be undone.",
		func(confirmed bool) {
			if !confirmed {
				return
			}

			// A timer running inside this project banks its time first.
			t.machine.StopIfProject(context.Background(), project.ID)

			if err := t.store.DeleteProject(context.Background(), project.ID); err != nil {
				dialog.ShowError(err, t.window)
				return
			}

			t.mu.Lock()
			kept := t.projects[:0]
			for _, p := range t.projects {
				if p.ID != project.ID {
					kept = append(kept, p)
				}
			}
			t.projects = kept
			if t.selected == project.ID {
				t.selected = ""
				if len(t.projects) > 0 {
					t.selected = t.projects[0].ID
				}
			}
			t.mu.Unlock()
			t.refresh()
		}, t.window)
}

func (t *Tracker) confirmDeleteTask(task models.Task) {
	dialog.ShowConfirm("Delete Task",
		"Delete this task? This cannot be undone.",
		func(confirmed bool) {
			if !confirmed {
				return
			}

			// No-op unless this exact task is the one being timed.
			t.machine.Stop(context.Background(), task.ID)

			if err := t.store.DeleteTask(context.Background(), task.ID); err != nil {
				dialog.ShowError(err, t.window)
				return
			}

			t.mu.Lock()
			for i := range t.projects {
				if t.projects[i].ID != task.ProjectID {
					continue
				}
				kept := t.projects[i].Tasks[:0]
				for _, existing := range t.projects[i].Tasks {
					if existing.ID != task.ID {
						kept = append(kept, existing)
					}
				}
				t.projects[i].Tasks = kept
			}
			t.mu.Unlock()
			t.refresh()
		}, t.window)
}

// showEditTimeDialog overwrites a task's total from HH:MM:SS text. The edit
// button is disabled while the task is actively timing, so this never races
// a stop commit.
func (t *Tracker) showEditTimeDialog(task models.Task) {
	timeEntry := widget.NewEntry()
	timeEntry.SetText(timeutil.Format(task.TimeSpent))
	timeEntry.PlaceHolder = "HH:MM:SS"

	items := []*widget.FormItem{
		widget.NewFormItem("Time", timeEntry),
	}

	dialog.ShowForm("Edit Time", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}

		seconds, err := timeutil.Parse(timeEntry.Text)
		if err != nil {
			dialog.ShowError(err, t.window)
			return
		}

		updated, err := t.store.UpdateTaskTime(context.Background(), task.ID, seconds)
		if err != nil {
			dialog.ShowError(err, t.window)
			return
		}
		t.commitTask(*updated)
		t.refresh()
	}, t.window)
}
