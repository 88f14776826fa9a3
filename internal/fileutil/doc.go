// Package fileutil holds the small filesystem helpers used while prompting:
// path expansion, existence validation for text prompts, and listing the
// immediate children of a project directory for the exclusion prompt.
//
// All helpers take a billy.Filesystem so the interactive flow can be
// exercised against an in-memory tree in tests:
//
//	fs := osfs.New("/")
//	if err := fileutil.ValidateExistingPath(fs)(input); err != nil {
//	    // re-prompt with err.Error()
//	}
//	names, err := fileutil.ListChildren(fs, projectDir)
package fileutil
