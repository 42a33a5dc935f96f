// Package timer owns the start/stop state machine: at most one task accrues
// time at any instant, the running timer survives an application restart via
// the persisted active-task record, and elapsed wall-clock time is folded
// into the task's stored total on stop.
package timer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Bloorize/timetracker/internal/models"
	"github.com/Bloorize/timetracker/internal/store"
)

// Options wires the machine to its surroundings. Every field is optional
// except the callbacks a caller actually cares about.
type Options struct {
	// Now is the clock; defaults to time.Now. Injected so tests can pin it.
	Now func() time.Time

	// TaskTotal looks up a task's last-known persisted total in the caller's
	// in-memory snapshot. The stop commit is base total + elapsed; the
	// one-second display ticks never feed back into it.
	TaskTotal func(taskID string) (int, bool)

	// LoadProject pulls a project's tasks into the caller's snapshot. Resume
	// calls it before the base lookup so the resumed task's persisted total
	// is available even when its project was never opened this session.
	LoadProject func(ctx context.Context, projectID string)

	// OnTick receives the seconds to display for the running task, once per
	// second. Display only; it must not block.
	OnTick func(taskID string, seconds int)

	// OnTotalSaved fires after a stop successfully persisted the new total,
	// so the caller can commit it to its snapshot. Not called on failure:
	// the snapshot keeps its pre-failure value.
	OnTotalSaved func(task models.Task)
}

// Machine is the timer controller. All methods are safe for concurrent use;
// Stop always runs to completion before a subsequent Start writes its record.
type Machine struct {
	store store.Store
	opts  Options

	mu        sync.Mutex
	taskID    string
	projectID string
	startTime time.Time
	base      int
	baseOK    bool
	stopTick  chan struct{}
}

func New(st store.Store, opts Options) *Machine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{store: st, opts: opts}
}

// Active reports the running task and its project, if any.
func (m *Machine) Active() (taskID, projectID string, running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taskID, m.projectID, m.taskID != ""
}

// Start begins timing taskID within projectID. A timer already running is
// stopped first, synchronously, so its elapsed time is persisted before the
// new active record is written and two records can never logically overlap.
func (m *Machine) Start(ctx context.Context, taskID, projectID string) {
	m.mu.Lock()
	current := m.taskID
	m.mu.Unlock()
	if current != "" {
		m.Stop(ctx, current)
	}

	startTime := m.opts.Now()
	base, baseOK := m.baseFor(ctx, taskID, projectID)

	m.mu.Lock()
	m.taskID = taskID
	m.projectID = projectID
	m.startTime = startTime
	m.base = base
	m.baseOK = baseOK
	m.startTickLocked()
	m.mu.Unlock()

	record := models.ActiveTimer{
		TaskID:    taskID,
		ProjectID: projectID,
		StartTime: startTime.UnixMilli(),
	}
	if err := m.store.SaveActiveTask(ctx, record); err != nil {
		// The timer keeps running in memory; only the restart-resume
		// guarantee is degraded until the next successful save.
		log.Printf("timer: saving active task %s: %v", taskID, err)
	}
}

// Stop ends timing for taskID and adds the elapsed whole seconds to the
// task's persisted total. A no-op unless taskID is the running task.
func (m *Machine) Stop(ctx context.Context, taskID string) {
	m.mu.Lock()
	if m.taskID == "" || m.taskID != taskID {
		m.mu.Unlock()
		return
	}
	startTime := m.startTime
	base := m.base
	baseOK := m.baseOK
	m.cancelTickLocked()
	m.taskID = ""
	m.projectID = ""
	m.startTime = time.Time{}
	m.base = 0
	m.baseOK = false
	m.mu.Unlock()

	elapsed := int(m.opts.Now().Sub(startTime) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	// An unknown base must never reach storage: writing 0+elapsed would
	// overwrite whatever total the backend holds. The elapsed seconds are
	// dropped instead, which only loses this session's increment.
	if !baseOK {
		log.Printf("timer: unknown persisted total for task %s, dropping %d elapsed seconds", taskID, elapsed)
	} else {
		total := base + elapsed
		if task, err := m.store.UpdateTaskTime(ctx, taskID, total); err != nil {
			log.Printf("timer: persisting %d seconds for task %s: %v", total, taskID, err)
		} else if m.opts.OnTotalSaved != nil {
			m.opts.OnTotalSaved(*task)
		}
	}

	if err := m.store.ClearActiveTask(ctx); err != nil {
		log.Printf("timer: clearing active task: %v", err)
	}
}

// StopIfProject stops the timer when the running task belongs to projectID,
// persisting its elapsed time. Called before a project is deleted so the
// cascade never removes the task out from under a running timer.
func (m *Machine) StopIfProject(ctx context.Context, projectID string) {
	m.mu.Lock()
	taskID, running := m.taskID, m.projectID == projectID
	m.mu.Unlock()
	if taskID != "" && running {
		m.Stop(ctx, taskID)
	}
}

// Resume picks up a persisted active-task record after an application start.
// The stored start timestamp is kept, so time accrued while the app was
// closed counts once the timer is eventually stopped. Returns the record, or
// nil when nothing was running.
func (m *Machine) Resume(ctx context.Context) (*models.ActiveTimer, error) {
	record, err := m.store.ActiveTask(ctx)
	if err != nil {
		log.Printf("timer: fetching active task: %v", err)
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	if m.opts.LoadProject != nil {
		m.opts.LoadProject(ctx, record.ProjectID)
	}
	base, baseOK := m.baseFor(ctx, record.TaskID, record.ProjectID)

	m.mu.Lock()
	m.taskID = record.TaskID
	m.projectID = record.ProjectID
	m.startTime = record.Started()
	m.base = base
	m.baseOK = baseOK
	m.startTickLocked()
	m.mu.Unlock()

	return record, nil
}

// baseFor resolves the task's persisted total: the caller's snapshot first,
// then the backend when the snapshot does not have the task.
func (m *Machine) baseFor(ctx context.Context, taskID, projectID string) (int, bool) {
	if m.opts.TaskTotal != nil {
		if base, ok := m.opts.TaskTotal(taskID); ok {
			return base, true
		}
	}

	project, err := m.store.GetProjectWithTasks(ctx, projectID)
	if err != nil || project == nil {
		if err != nil {
			log.Printf("timer: fetching base total for task %s: %v", taskID, err)
		}
		return 0, false
	}
	for _, task := range project.Tasks {
		if task.ID == taskID {
			return task.TimeSpent, true
		}
	}
	return 0, false
}

// Shutdown cancels the display tick on component teardown. The active record
// stays persisted so the timer resumes on the next start.
func (m *Machine) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTickLocked()
}

// startTickLocked launches the once-per-second display tick. It only pushes
// a derived display value; it never reads or writes storage, and persistence
// calls in flight never delay it.
func (m *Machine) startTickLocked() {
	m.cancelTickLocked()
	if m.opts.OnTick == nil {
		return
	}

	stop := make(chan struct{})
	m.stopTick = stop
	taskID := m.taskID
	startTime := m.startTime
	base := m.base

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				elapsed := int(m.opts.Now().Sub(startTime) / time.Second)
				if elapsed < 0 {
					elapsed = 0
				}
				m.opts.OnTick(taskID, base+elapsed)
			}
		}
	}()
}

func (m *Machine) cancelTickLocked() {
	if m.stopTick != nil {
		close(m.stopTick)
		m.stopTick = nil
	}
}
