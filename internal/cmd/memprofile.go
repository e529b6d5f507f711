package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
)

// memprofileDir, when set by the hidden --memprofile flag, receives heap and
// allocs profiles as the process exits.
var memprofileDir string

func maybeWriteMemProfile() {
	if memprofileDir == "" {
		return
	}
	if err := writeMemProfiles(memprofileDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func writeMemProfiles(dir string) error {
	var errList []error
	for _, name := range []string{"heap", "allocs"} {
		errList = append(errList, writeProfile(name, filepath.Join(dir, "modelkit_"+name+".profile")))
	}
	return errors.Join(errList...)
}

func writeProfile(name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%s profile: %w", name, err)
	}
	if err := pprof.Lookup(name).WriteTo(f, 0); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s profile: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s profile: %w", name, err)
	}
	return nil
}
