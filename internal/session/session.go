// Package session drives one interactive build flow at a time: choosing or
// defining a build, picking exclusions, optionally saving it, and running
// the copy. It also remembers the latest build for the menu's re-run key.
package session

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/harrison/builder/internal/copier"
	"github.com/harrison/builder/internal/display"
	"github.com/harrison/builder/internal/exclusion"
	"github.com/harrison/builder/internal/fileutil"
	"github.com/harrison/builder/internal/logger"
	"github.com/harrison/builder/internal/models"
	"github.com/harrison/builder/internal/prompt"
	"github.com/harrison/builder/internal/store"
)

// Title is shown at the top of every flow
const Title = "personal-cli-builder"

// Session holds the collaborators of a flow and the latest build id,
// which lives only as long as the process.
type Session struct {
	fs       billy.Filesystem
	store    store.Store
	prompter *prompt.Prompter
	out      io.Writer
	log      logger.Logger

	// ShowProgress enables the progress bar while copying
	ShowProgress bool

	latestBuildID string
}

// New creates a Session. fs is the filesystem paths are validated and
// copied on; use osfs.New("/") for the host.
func New(fs billy.Filesystem, st store.Store, p *prompt.Prompter, out io.Writer, log logger.Logger) *Session {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Session{
		fs:       fs,
		store:    st,
		prompter: p,
		out:      out,
		log:      log,
	}
}

// LatestBuildID returns the id of the most recently saved or chosen build,
// or "" if there is none yet.
func (s *Session) LatestBuildID() string {
	return s.latestBuildID
}

// plan is everything a flow decided before copying
type plan struct {
	record           models.BuildRecord
	fromSaved        bool
	clearDestination bool
}

// NewBuild runs the interactive flow. prompt.ErrCancelled is returned when
// the user abandons a question; nothing is copied in that case.
func (s *Session) NewBuild() error {
	err := s.newBuild()
	if errors.Is(err, prompt.ErrCancelled) {
		s.prompter.Cancel("Operation cancelled.")
	}
	return err
}

func (s *Session) newBuild() error {
	s.prompter.Intro(Title)

	p, err := s.choose()
	if err != nil {
		return err
	}
	if err := s.extraOptions(p); err != nil {
		return err
	}
	if !p.fromSaved {
		if err := s.offerSave(p); err != nil {
			return err
		}
	}

	result := s.copy(p.record, p.clearDestination)
	if result.Err != nil {
		return fmt.Errorf("build %s: %w", result.Name(), result.Err)
	}

	s.prompter.Outro("Done!")
	return nil
}

// RerunLatest copies the latest build again without prompting.
func (s *Session) RerunLatest() error {
	if s.latestBuildID == "" {
		fmt.Fprintln(s.out, "Nothing to rerun")
		return nil
	}

	fmt.Fprintf(s.out, "Running latest action... (%s)\n", s.latestBuildID)
	return s.RunByID(s.latestBuildID)
}

// RunByID copies the saved build id with its saved exclusions. The
// destination is never cleared.
func (s *Session) RunByID(id string) error {
	record, err := s.store.Get(id)
	if err != nil {
		return fmt.Errorf("load build %q: %w", id, err)
	}

	result := s.copy(record, false)
	if result.Err != nil {
		return fmt.Errorf("build %s: %w", id, result.Err)
	}
	return nil
}

// choose asks whether to reuse a saved build and fills in the directories.
func (s *Session) choose() (*plan, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("list saved builds: %w", err)
	}

	useSaved := false
	if len(records) == 0 {
		s.prompter.Note("No saved builds yet, defining a new one")
	} else {
		useSaved, err = s.prompter.Confirm("Do you want to use any of saved directories?", false)
		if err != nil {
			return nil, err
		}
	}

	if useSaved {
		return s.useSaved(records)
	}
	return s.defineNew()
}

func (s *Session) useSaved(records []models.BuildRecord) (*plan, error) {
	options := make([]prompt.Option, 0, len(records))
	for _, r := range records {
		options = append(options, prompt.Option{Value: r.ID, Label: r.Label()})
	}

	id, err := s.prompter.Select("Select saved directories", options)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Get(id)
	if err != nil {
		s.log.LogError(fmt.Sprintf("Saved build %q disappeared: %v", id, err))
		return nil, fmt.Errorf("load build %q: %w", id, err)
	}

	// The choice becomes the latest build even if the copy later fails
	s.latestBuildID = id
	s.log.LogInfo(fmt.Sprintf("Using saved build %q", id))

	return &plan{record: record, fromSaved: true}, nil
}

func (s *Session) defineNew() (*plan, error) {
	project, err := s.askDirectory("Project directory", "/home/luis/...")
	if err != nil {
		return nil, err
	}
	destination, err := s.askDirectory("Destination directory", "/mnt/c/Users/Luis/...")
	if err != nil {
		return nil, err
	}

	return &plan{record: models.BuildRecord{
		ProjectDirectory:     project,
		DestinationDirectory: destination,
		FilesToExclude:       []string{},
	}}, nil
}

// askDirectory prompts until an existing path is entered and returns it
// expanded and absolute.
func (s *Session) askDirectory(message, placeholder string) (string, error) {
	value, err := s.prompter.Text(prompt.TextOptions{
		Message:     message,
		Placeholder: placeholder,
		Validate:    fileutil.ValidateExistingPath(s.fs),
	})
	if err != nil {
		return "", err
	}
	return fileutil.ExpandPath(value)
}

// extraOptions offers the exclusion list and destination clearing.
// Declining keeps the plan's current exclusions and does not clear.
func (s *Session) extraOptions(p *plan) error {
	extra, err := s.prompter.Confirm("Should show extra options?", false)
	if err != nil || !extra {
		return err
	}

	exclude, err := s.prompter.Confirm("Do you want to exclude files from the project directory?", false)
	if err != nil {
		return err
	}
	if exclude {
		selected, err := s.selectExclusions(p.record)
		if err != nil {
			return err
		}
		p.record.FilesToExclude = selected
	}

	p.clearDestination, err = s.prompter.Confirm("Do you want to clear the destination folder before copying files?", false)
	return err
}

func (s *Session) selectExclusions(record models.BuildRecord) ([]string, error) {
	children, err := fileutil.ListChildren(s.fs, record.ProjectDirectory)
	if err != nil {
		return nil, fmt.Errorf("list project directory: %w", err)
	}
	if len(children) == 0 {
		s.prompter.Note("Project directory is empty, nothing to exclude")
		return []string{}, nil
	}

	options := make([]prompt.Option, 0, len(children))
	for _, name := range children {
		options = append(options, prompt.Option{Value: name, Label: name})
	}
	return s.prompter.MultiSelect("Select files to exclude", options, record.FilesToExclude)
}

// offerSave asks whether to persist a newly defined build.
func (s *Session) offerSave(p *plan) error {
	save, err := s.prompter.Confirm("Do you want to save these directories for future use?", false)
	if err != nil || !save {
		return err
	}

	name, err := s.prompter.Text(prompt.TextOptions{
		Message: "Build name",
		Validate: func(v string) error {
			if v == "" {
				return errors.New("build name is required")
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	p.record.ID = name
	if err := s.store.Save(p.record); err != nil {
		return fmt.Errorf("save build %q: %w", name, err)
	}

	s.latestBuildID = name
	s.log.LogInfo(fmt.Sprintf("Saved build %q", name))
	s.prompter.Note(fmt.Sprintf("Saved as %q", name))
	return nil
}

// copy runs the copy for record and reports the outcome. Failures are
// shown and logged here; the caller only propagates them.
func (s *Session) copy(record models.BuildRecord, clearDestination bool) models.RunResult {
	exclusions := exclusion.Resolve(record.ProjectDirectory, record.FilesToExclude)
	c := copier.New(s.fs)

	total, err := c.Count(record.ProjectDirectory, exclusions)
	if err != nil {
		// CopyTree reports the same failure with full context
		s.log.LogDebug(fmt.Sprintf("Counting entries failed: %v", err))
	}

	status := display.NewStatus(s.out, s.ShowProgress)
	c.Progress = status.Step

	s.log.LogDebug(fmt.Sprintf("Copying %s to %s (%d exclusions, clear=%t)",
		record.ProjectDirectory, record.DestinationDirectory, exclusions.Len(), clearDestination))

	start := time.Now()
	status.Start("Copying files", total)
	err = c.CopyTree(copier.Request{
		Source:           record.ProjectDirectory,
		Destination:      record.DestinationDirectory,
		Exclusions:       exclusions,
		ClearDestination: clearDestination,
	})

	result := models.RunResult{
		BuildID:     record.ID,
		Source:      record.ProjectDirectory,
		Destination: record.DestinationDirectory,
		Excluded:    exclusions.Paths(),
		Cleared:     clearDestination,
		Entries:     status.Copied(),
		Duration:    time.Since(start),
		Err:         err,
	}

	if err != nil {
		status.Fail("Copy failed")
		display.WarnCopyFailure(err).Display(s.out)
	} else {
		status.Stop("Files copied")
	}
	s.log.LogRunResult(result)

	return result
}
