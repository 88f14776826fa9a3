// Package display renders the non-interactive parts of a build run: the
// copy status indicator, failure warnings and screen clearing.
//
// # Status
//
// Status brackets a copy run:
//
//	status := display.NewStatus(os.Stdout, cfg.ShowProgress)
//	status.Start("Copying files", total)
//	copier.Progress = status.Step
//	err := copier.CopyTree(req)
//	status.Stop("Files copied")
//
// On a terminal with progress enabled a cheggaaa/pb bar tracks the entry
// count; otherwise Start and Stop print one line each.
//
// # Warnings
//
//	display.WarnCopyFailure(err).Display(os.Stderr)
//
// All functions accept io.Writer interfaces for testability. Colors are
// only emitted when the writer is a terminal.
package display
