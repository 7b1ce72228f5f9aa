// Package beads wraps the bd (beads) CLI, the task tracker the agents
// record their work in. The dashboard only reads from it.
package beads

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Common errors.
var (
	ErrNotInstalled = errors.New("bd not installed: see https://github.com/steveyegge/beads")
	ErrNotFound     = errors.New("task not found")
)

// Task represents a beads issue as the dashboard consumes it.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
	Assignee    string   `json:"assignee,omitempty"`
	CreatedBy   string   `json:"created_by,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	ClosedAt    string   `json:"closed_at,omitempty"`
}

// HasLabel checks if a task carries a specific label.
func (t *Task) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// ListOptions specifies filters for listing tasks.
type ListOptions struct {
	Status   string // "open", "closed", "all"
	Label    string // e.g. "jat:message"
	Assignee string
	Limit    int // max results, 0 uses bd's default
}

// Client runs bd commands against one beads database.
type Client struct {
	workDir  string // directory to run bd in
	beadsDir string // explicit BEADS_DIR, empty resolves from workDir
}

// NewClient creates a bd client that runs in workDir.
func NewClient(workDir string) *Client {
	return &Client{workDir: workDir}
}

// NewClientWithDir creates a bd client pinned to an explicit beads directory.
func NewClientWithDir(workDir, beadsDir string) *Client {
	return &Client{workDir: workDir, beadsDir: beadsDir}
}

// IsAvailable reports whether the bd binary can be executed.
func (c *Client) IsAvailable() bool {
	return exec.Command("bd", "--version").Run() == nil
}

// run executes a bd command and returns stdout.
// --allow-stale tolerates a db that is behind its JSONL export.
func (c *Client) run(args ...string) ([]byte, error) {
	fullArgs := append([]string{"--allow-stale"}, args...)
	cmd := exec.Command("bd", fullArgs...)
	cmd.Dir = c.workDir

	// Strip any inherited BEADS_DIR before setting ours: getenv returns
	// the first occurrence, so an inherited value would shadow it.
	if c.beadsDir != "" {
		var env []string
		for _, e := range os.Environ() {
			if !strings.HasPrefix(e, "BEADS_DIR=") {
				env = append(env, e)
			}
		}
		cmd.Env = append(env, "BEADS_DIR="+c.beadsDir)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, c.wrapError(err, stderr.String(), args)
	}

	// bd can exit 0 on a missing task but write the error to stderr
	// with empty stdout. Treat that as a failure.
	if stdout.Len() == 0 && stderr.Len() > 0 {
		return nil, c.wrapError(fmt.Errorf("command produced no output"), stderr.String(), args)
	}
	return stdout.Bytes(), nil
}

// wrapError maps bd failures to sentinel errors.
func (c *Client) wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	if execErr, ok := err.(*exec.Error); ok && errors.Is(execErr.Err, exec.ErrNotFound) {
		return ErrNotInstalled
	}
	if strings.Contains(stderr, "not found") || strings.Contains(stderr, "no issue found") {
		return ErrNotFound
	}

	if stderr != "" {
		return fmt.Errorf("bd %s: %s", strings.Join(args, " "), stderr)
	}
	return fmt.Errorf("bd %s: %w", strings.Join(args, " "), err)
}

// List returns tasks matching the given options.
func (c *Client) List(opts ListOptions) ([]*Task, error) {
	args := []string{"list", "--json"}
	if opts.Status != "" {
		args = append(args, "--status="+opts.Status)
	}
	if opts.Label != "" {
		args = append(args, "--label="+opts.Label)
	}
	if opts.Assignee != "" {
		args = append(args, "--assignee="+opts.Assignee)
	}
	if opts.Limit > 0 {
		args = append(args, fmt.Sprintf("--limit=%d", opts.Limit))
	}

	out, err := c.run(args...)
	if err != nil {
		return nil, err
	}
	return parseTaskList(out)
}

// Show returns a single task by ID.
func (c *Client) Show(id string) (*Task, error) {
	out, err := c.run("show", id, "--json")
	if err != nil {
		return nil, err
	}

	// bd show wraps single results in an array.
	var tasks []*Task
	if err := json.Unmarshal(out, &tasks); err != nil {
		var task Task
		if err2 := json.Unmarshal(out, &task); err2 != nil {
			return nil, fmt.Errorf("parsing bd show output: %w", err)
		}
		return &task, nil
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return tasks[0], nil
}

// parseTaskList decodes a bd list --json payload. An empty payload is an
// empty list, not an error.
func parseTaskList(out []byte) ([]*Task, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var tasks []*Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return nil, fmt.Errorf("parsing bd list output: %w", err)
	}
	return tasks, nil
}
