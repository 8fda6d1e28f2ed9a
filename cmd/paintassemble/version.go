package main

import (
	"flag"
	"fmt"
)

type versionCmd struct{ *root }

func (v *versionCmd) Program() string { return v.root.program + " version" }

func (v *versionCmd) FlagSet() *flag.FlagSet { return nil }

func (v *versionCmd) Run() error {
	fmt.Fprintf(v.stdout, "%s version %s\n", v.program, version)
	if commit != "" {
		fmt.Fprintf(v.stdout, "commit %s\n", commit)
	}
	if date != "" {
		fmt.Fprintf(v.stdout, "built %s\n", date)
	}
	return nil
}
